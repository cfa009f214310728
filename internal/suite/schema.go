package suite

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// validateSchema checks a raw suite document against the embedded CUE
// schema. The schema closes every record shape, so unknown fields, wrong
// rule names, and mismatched value shapes are all rejected before any test
// runs.
func validateSchema(data []byte, source string) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile suite schema: %w", err)
	}

	file, err := cueyaml.Extract(source, data)
	if err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("build document: %w", err)
	}

	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	return nil
}
