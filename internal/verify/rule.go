// Package verify evaluates verification rules against execution outcomes.
//
// A rule is one pass/fail check. Rule kinds form a closed enumeration:
// adding a kind is a compile-visible change to every switch that dispatches
// on it, unlike the string-compared dispatch this replaces.
package verify

import (
	"fmt"
	"regexp"
)

// Kind identifies one verification rule variant.
type Kind int

const (
	// KindMatchOutput passes when a regex matches anywhere in the test's
	// stdout.
	KindMatchOutput Kind = iota

	// KindMatchExitCode passes when the test's exit code equals the
	// expected value.
	KindMatchExitCode

	// KindMatchCommandOutput passes when a regex matches the stdout of a
	// secondary command run for this rule.
	KindMatchCommandOutput

	// KindNotMatchCommandOutput is the logical negation of
	// KindMatchCommandOutput.
	KindNotMatchCommandOutput
)

// Wire names as they appear in suite documents.
const (
	nameMatchOutput           = "MATCH_OUTPUT"
	nameMatchExitCode         = "MATCH_EC"
	nameMatchCommandOutput    = "MATCH_CMD_OUTPUT"
	nameNotMatchCommandOutput = "NOT_MATCH_CMD_OUTPUT"
)

// ParseKind maps a wire name to its Kind. Unknown names are rejected.
func ParseKind(name string) (Kind, error) {
	switch name {
	case nameMatchOutput:
		return KindMatchOutput, nil
	case nameMatchExitCode:
		return KindMatchExitCode, nil
	case nameMatchCommandOutput:
		return KindMatchCommandOutput, nil
	case nameNotMatchCommandOutput:
		return KindNotMatchCommandOutput, nil
	default:
		return 0, fmt.Errorf("unknown verification rule %q", name)
	}
}

func (k Kind) String() string {
	switch k {
	case KindMatchOutput:
		return nameMatchOutput
	case KindMatchExitCode:
		return nameMatchExitCode
	case KindMatchCommandOutput:
		return nameMatchCommandOutput
	case KindNotMatchCommandOutput:
		return nameNotMatchCommandOutput
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Rule is one verification check. Which fields are meaningful depends on
// Kind: Pattern for MatchOutput, ExitCode for MatchExitCode, and
// Command+Pattern for the two command-output variants.
type Rule struct {
	Kind     Kind   `json:"kind"`
	Pattern  string `json:"pattern,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
	Command  string `json:"command,omitempty"`
}

// Validate checks that the rule's fields are usable: patterns must compile
// and command-output rules must name a command. Called by the suite loader
// so a bad rule is a configuration error, not a runtime surprise.
func (r Rule) Validate() error {
	switch r.Kind {
	case KindMatchOutput:
		_, err := outputPattern(r.Pattern)
		return err
	case KindMatchExitCode:
		return nil
	case KindMatchCommandOutput, KindNotMatchCommandOutput:
		if r.Command == "" {
			return fmt.Errorf("%s: command is required", r.Kind)
		}
		_, err := outputPattern(r.Pattern)
		return err
	default:
		return fmt.Errorf("unknown rule kind %d", int(r.Kind))
	}
}

// outputPattern compiles pattern with multiline and dot-matches-newline
// semantics: `.` spans lines and `^`/`$` anchor at line boundaries.
func outputPattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?ms)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}
