package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/encoding/jsonschema"

	"github.com/codexbridge/codexbridge/internal/config"
)

//go:embed plan.schema.json
var defaultSchema []byte

// Result is the outcome of validating one payload.
type Result struct {
	Valid  bool
	Issues []string
}

// Validator wraps the CUE JSON-Schema engine. The schema document is loaded
// and compiled exactly once per instance; compilation is comparatively
// expensive and every plan in a sweep shares the same schema.
type Validator struct {
	path string

	once   sync.Once
	cctx   *cue.Context
	schema cue.Value
	err    error
}

// New returns a validator for the schema document at path. An empty path
// selects the embedded default plan schema.
func New(path string) *Validator {
	return &Validator{path: path}
}

func (v *Validator) compile() {
	data := defaultSchema
	name := "plan.schema.json (embedded)"
	if v.path != "" {
		b, err := os.ReadFile(v.path)
		if err != nil {
			v.err = &config.Error{Path: v.path, Err: err}
			return
		}
		data = b
		name = v.path
	}

	v.cctx = cuecontext.New()
	doc := v.cctx.CompileBytes(data, cue.Filename(name))
	if err := doc.Err(); err != nil {
		v.err = &config.Error{Path: name, Err: fmt.Errorf("schema is not valid JSON: %v", err)}
		return
	}
	file, err := jsonschema.Extract(doc, &jsonschema.Config{})
	if err != nil {
		v.err = &config.Error{Path: name, Err: fmt.Errorf("schema does not compile: %v", err)}
		return
	}
	compiled := v.cctx.BuildFile(file)
	if err := compiled.Err(); err != nil {
		v.err = &config.Error{Path: name, Err: fmt.Errorf("schema does not compile: %v", err)}
		return
	}
	v.schema = compiled
}

// Validate checks payload against the compiled schema. The returned error is
// non-nil only for configuration failures (schema missing or uncompilable);
// plan-shaped problems come back as Issues.
func (v *Validator) Validate(payload any) (Result, error) {
	v.once.Do(v.compile)
	if v.err != nil {
		return Result{}, v.err
	}
	val := v.cctx.Encode(payload)
	if err := val.Err(); err != nil {
		return Result{Valid: false, Issues: []string{sanitize(err.Error())}}, nil
	}
	unified := v.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Result{Valid: false, Issues: diagnostics(err)}, nil
	}
	return Result{Valid: true}, nil
}

// diagnostics converts a CUE validation error into one readable string per
// structural violation, each prefixed with the offending path.
func diagnostics(err error) []string {
	errs := cueerrors.Errors(err)
	issues := make([]string, 0, len(errs))
	seen := map[string]bool{}
	for _, e := range errs {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if p := strings.Join(e.Path(), "."); p != "" {
			msg = p + ": " + msg
		}
		msg = sanitize(msg)
		if seen[msg] {
			continue
		}
		seen[msg] = true
		issues = append(issues, msg)
	}
	if len(issues) == 0 {
		issues = append(issues, sanitize(err.Error()))
	}
	return issues
}

func sanitize(msg string) string {
	s := strings.Join(strings.Fields(msg), " ")
	if s == "" {
		return "schema violation"
	}
	return s
}
