package suite

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeout converts a raw timeout value from a suite document into a
// duration. Integers are a count of seconds. Strings are compound
// expressions of the form "<N>h<N>m<N>s": every segment is optional, none
// repeatable, and they are evaluated in that fixed order. A trailing numeric
// remainder without a unit suffix is treated as seconds.
//
// Malformed input (non-numeric segment, unit out of order, negative value)
// is rejected with a descriptive error rather than silently truncated.
func ParseTimeout(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case int:
		if v < 0 {
			return 0, fmt.Errorf("timeout must be non-negative, got %d", v)
		}
		return time.Duration(v) * time.Second, nil
	case int64:
		return ParseTimeout(int(v))
	case string:
		return parseTimeoutExpr(v)
	case nil:
		return 0, fmt.Errorf("timeout is required")
	default:
		return 0, fmt.Errorf("timeout must be an integer or a duration string, got %T", raw)
	}
}

// parseTimeoutExpr parses an "XhYmZs" expression into a duration.
func parseTimeoutExpr(expr string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return 0, fmt.Errorf("timeout expression is empty")
	}

	var seconds int64
	rest := s
	if before, after, ok := strings.Cut(rest, "h"); ok {
		hours, err := parseSegment(before, "hours", expr)
		if err != nil {
			return 0, err
		}
		seconds += hours * 3600
		rest = after
	}
	if before, after, ok := strings.Cut(rest, "m"); ok {
		minutes, err := parseSegment(before, "minutes", expr)
		if err != nil {
			return 0, err
		}
		seconds += minutes * 60
		rest = after
	}
	if rest != "" {
		secs, err := parseSegment(strings.TrimSuffix(rest, "s"), "seconds", expr)
		if err != nil {
			return 0, err
		}
		seconds += secs
	}

	return time.Duration(seconds) * time.Second, nil
}

// parseSegment converts one unit segment to an integer. An out-of-order unit
// (e.g. "3s2m") surfaces here as a non-numeric segment.
func parseSegment(segment, unit, expr string) (int64, error) {
	n, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s segment %q in timeout %q", unit, segment, expr)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s segment must be non-negative in timeout %q", unit, expr)
	}
	return n, nil
}
