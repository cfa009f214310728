// Package suite loads declarative test suites from YAML documents.
//
// A suite document maps test names to specifications:
//
//	smoke_test:
//	  command: "echo hello"
//	  timeout: 5
//	  verify:
//	    - name: MATCH_OUTPUT
//	      value: "^hello$"
//	    - name: MATCH_EC
//	      value: 0
//
// Documents are validated against an embedded CUE schema, then translated
// into typed TestSpec records. Document order is preserved: it is the
// execution order of the run.
package suite

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/strosek/cyancrown/internal/verify"
)

// TestSpec is one immutable test specification. Names are unique within
// a suite; the loader rejects duplicates.
type TestSpec struct {
	Name    string
	Command string
	Timeout time.Duration
	Rules   []verify.Rule
}

// Suite is an ordered list of test specifications from one document.
type Suite struct {
	Source string
	Tests  []TestSpec
}

// rawTest mirrors the document shape before translation. Timeout stays
// untyped because the schema allows both an integer and a duration string.
type rawTest struct {
	Command string    `yaml:"command"`
	Timeout any       `yaml:"timeout"`
	Verify  []rawRule `yaml:"verify"`
}

// rawRule defers decoding of value until the rule name determines its shape.
type rawRule struct {
	Name  string    `yaml:"name"`
	Value yaml.Node `yaml:"value"`
}

// Load reads and parses a suite file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite file: %w", err)
	}
	return Parse(data, path)
}

// Parse validates a suite document against the schema and translates it
// into typed specifications.
func Parse(data []byte, source string) (*Suite, error) {
	if err := validateSchema(data, source); err != nil {
		return nil, fmt.Errorf("invalid suite %s: %w", source, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse suite %s: %w", source, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("suite %s is empty", source)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("suite %s: document must be a mapping of test names", source)
	}

	s := &Suite{Source: source}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]

		// NFC-normalized so log lines and history keys are byte-stable.
		name := norm.NFC.String(keyNode.Value)
		if seen[name] {
			return nil, fmt.Errorf("suite %s: duplicate test name %q", source, name)
		}
		seen[name] = true

		spec, err := decodeTest(name, valNode)
		if err != nil {
			return nil, fmt.Errorf("suite %s: test %q: %w", source, name, err)
		}
		s.Tests = append(s.Tests, spec)
	}

	if len(s.Tests) == 0 {
		return nil, fmt.Errorf("suite %s defines no tests", source)
	}
	return s, nil
}

func decodeTest(name string, node *yaml.Node) (TestSpec, error) {
	var raw rawTest
	if err := node.Decode(&raw); err != nil {
		return TestSpec{}, err
	}
	if raw.Command == "" {
		return TestSpec{}, fmt.Errorf("command is required")
	}

	timeout, err := ParseTimeout(raw.Timeout)
	if err != nil {
		return TestSpec{}, err
	}

	rules := make([]verify.Rule, 0, len(raw.Verify))
	for i, rr := range raw.Verify {
		rule, err := decodeRule(rr)
		if err != nil {
			return TestSpec{}, fmt.Errorf("verify[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}

	return TestSpec{
		Name:    name,
		Command: raw.Command,
		Timeout: timeout,
		Rules:   rules,
	}, nil
}

func decodeRule(raw rawRule) (verify.Rule, error) {
	kind, err := verify.ParseKind(raw.Name)
	if err != nil {
		return verify.Rule{}, err
	}

	rule := verify.Rule{Kind: kind}
	switch kind {
	case verify.KindMatchOutput:
		if err := raw.Value.Decode(&rule.Pattern); err != nil {
			return verify.Rule{}, fmt.Errorf("%s: value must be a pattern string: %w", raw.Name, err)
		}
	case verify.KindMatchExitCode:
		if err := raw.Value.Decode(&rule.ExitCode); err != nil {
			return verify.Rule{}, fmt.Errorf("%s: value must be an integer: %w", raw.Name, err)
		}
	case verify.KindMatchCommandOutput, verify.KindNotMatchCommandOutput:
		var v struct {
			Command string `yaml:"command"`
			Output  string `yaml:"output"`
		}
		if err := raw.Value.Decode(&v); err != nil {
			return verify.Rule{}, fmt.Errorf("%s: value must be a command/output pair: %w", raw.Name, err)
		}
		rule.Command = v.Command
		rule.Pattern = v.Output
	}

	if err := rule.Validate(); err != nil {
		return verify.Rule{}, err
	}
	return rule, nil
}
