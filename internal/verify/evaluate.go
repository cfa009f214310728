package verify

import (
	"context"
	"fmt"

	"github.com/strosek/cyancrown/internal/executor"
)

// CaptureFunc runs a secondary verification command and returns its stdout.
// The two command-output rule kinds use it to spawn their side-check process.
type CaptureFunc func(ctx context.Context, command string) (string, error)

// RuleResult is the evaluation of a single rule.
type RuleResult struct {
	Rule    Rule   `json:"rule"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// SetResult is the reduction of a test's full rule list to one verdict.
type SetResult struct {
	Passed  bool         `json:"passed"`
	Results []RuleResult `json:"results"`
}

// Evaluator evaluates rules against execution outcomes.
type Evaluator struct {
	capture CaptureFunc
}

// NewEvaluator creates an evaluator. A nil capture falls back to
// executor.Capture.
func NewEvaluator(capture CaptureFunc) *Evaluator {
	if capture == nil {
		capture = executor.Capture
	}
	return &Evaluator{capture: capture}
}

// Evaluate checks one rule against an outcome.
func (e *Evaluator) Evaluate(ctx context.Context, rule Rule, outcome executor.Outcome) RuleResult {
	switch rule.Kind {
	case KindMatchOutput:
		return matchOutput(rule, outcome.Stdout)
	case KindMatchExitCode:
		return matchExitCode(rule, outcome.ExitCode)
	case KindMatchCommandOutput:
		return e.matchCommandOutput(ctx, rule, false)
	case KindNotMatchCommandOutput:
		return e.matchCommandOutput(ctx, rule, true)
	default:
		return RuleResult{Rule: rule, Message: fmt.Sprintf("unknown rule kind %d", int(rule.Kind))}
	}
}

// EvaluateAll runs every rule in order against the one outcome and reduces
// the results to a single verdict. Rules are never short-circuited: the
// command-output kinds spawn a secondary process, so skipping them after a
// failure would change observable behavior. The verdict is FAIL if any rule
// failed; an empty rule list passes vacuously.
func (e *Evaluator) EvaluateAll(ctx context.Context, rules []Rule, outcome executor.Outcome) SetResult {
	set := SetResult{Passed: true, Results: make([]RuleResult, 0, len(rules))}
	for _, rule := range rules {
		result := e.Evaluate(ctx, rule, outcome)
		set.Results = append(set.Results, result)
		if !result.Passed {
			set.Passed = false
		}
	}
	return set
}

func matchOutput(rule Rule, stdout string) RuleResult {
	re, err := outputPattern(rule.Pattern)
	if err != nil {
		return RuleResult{Rule: rule, Message: err.Error()}
	}
	if !re.MatchString(stdout) {
		return RuleResult{Rule: rule, Message: fmt.Sprintf("output does not match %q", rule.Pattern)}
	}
	return RuleResult{Rule: rule, Passed: true}
}

func matchExitCode(rule Rule, exitCode int) RuleResult {
	if exitCode != rule.ExitCode {
		return RuleResult{
			Rule:    rule,
			Message: fmt.Sprintf("exit code %d, expected %d", exitCode, rule.ExitCode),
		}
	}
	return RuleResult{Rule: rule, Passed: true}
}

// matchCommandOutput spawns the rule's side-check command and matches its
// stdout. A launch failure counts as "did not match": the plain variant
// fails, while the negated variant inverts that to a pass. The inversion is
// inherited behavior, kept deliberately and pinned by tests.
func (e *Evaluator) matchCommandOutput(ctx context.Context, rule Rule, negate bool) RuleResult {
	stdout, err := e.capture(ctx, rule.Command)
	if err != nil {
		return RuleResult{
			Rule:    rule,
			Passed:  negate,
			Message: fmt.Sprintf("command %q failed to run: %v", rule.Command, err),
		}
	}

	re, err := outputPattern(rule.Pattern)
	if err != nil {
		return RuleResult{Rule: rule, Message: err.Error()}
	}

	matched := re.MatchString(stdout)
	if matched == negate {
		verb := "does not match"
		if negate {
			verb = "matches"
		}
		return RuleResult{
			Rule:    rule,
			Message: fmt.Sprintf("output of %q %s %q", rule.Command, verb, rule.Pattern),
		}
	}
	return RuleResult{Rule: rule, Passed: true}
}
