package suite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeout_Integer(t *testing.T) {
	d, err := ParseTimeout(30)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestParseTimeout_IntegerZero(t *testing.T) {
	d, err := ParseTimeout(0)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)
}

func TestParseTimeout_IntegerNegative(t *testing.T) {
	_, err := ParseTimeout(-5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestParseTimeout_Expressions(t *testing.T) {
	cases := []struct {
		expr string
		want time.Duration
	}{
		{"1h2m3s", 3723 * time.Second},
		{"90s", 90 * time.Second},
		{"2m", 120 * time.Second},
		{"1h", 3600 * time.Second},
		{"45", 45 * time.Second},
		{"1h30", 3630 * time.Second}, // trailing remainder without suffix is seconds
		{"2m15s", 135 * time.Second},
		{"1H2M3S", 3723 * time.Second}, // case-insensitive units
		{" 10s ", 10 * time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			d, err := ParseTimeout(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d)
		})
	}
}

func TestParseTimeout_Malformed(t *testing.T) {
	cases := []string{
		"",
		"abc",
		"h30m",    // empty hours segment
		"3s2m",    // unit out of order
		"1h2h",    // repeated unit
		"1x",      // unknown unit
		"1m2m",    // repeated minutes, surfaces as bad seconds segment
		"12.5s",   // fractional seconds not supported
	}

	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseTimeout(expr)
			require.Error(t, err, "expected %q to be rejected", expr)
		})
	}
}

func TestParseTimeout_UnsupportedType(t *testing.T) {
	_, err := ParseTimeout(12.5)
	require.Error(t, err)

	_, err = ParseTimeout(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}
