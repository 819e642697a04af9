package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schema constrains the decoded TOML document. Definitions are closed, so
// misspelled keys are rejected instead of silently ignored.
const schema = `
#Manifest: {
	project?: {
		name?:   string
		caller?: string
	}
	policy?: {
		"force-preserve-count"?:  bool
		"fail-fast-on-critical"?: bool
		"strict-build"?:          bool
		"critical-markers"?: [...string]
	}
	symbols?: {
		files?: [...string & != ""]
	}
	log?: {
		level?: "debug" | "info" | "warning" | "error"
	}
}
`

// validate checks a decoded manifest document against the schema.
func validate(doc map[string]any) error {
	ctx := cuecontext.New()
	s := ctx.CompileString(schema)
	if err := s.Err(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	unified := s.LookupPath(cue.ParsePath("#Manifest")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
