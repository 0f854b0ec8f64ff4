package macro

import (
	"os"
	"path/filepath"
	"time"

	"github.com/codexbridge/codexbridge/internal/plan"
)

// Generator writes macro stubs under a configured root.
type Generator struct {
	// MacrosRoot is the directory stubs are written under.
	MacrosRoot string
	// ContextModule is the path of the shared MacroContext module; the stub
	// imports it via a specifier relative to the stub's own directory.
	ContextModule string
	// FunctionSuffix is appended to derived function names.
	FunctionSuffix string
}

// Generate derives the stub path and content from the validated plan and
// writes the file, creating intermediate directories. It returns the absolute
// path written; the caller owns deleting that file if a later step fails.
func (g *Generator) Generate(p *plan.Plan, sourcePlan string, now time.Time) (string, error) {
	segments, err := Segments(p.Macro)
	if err != nil {
		return "", err
	}
	target := TargetPath(g.MacrosRoot, segments)
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	stub := Stub{
		Identifier:   p.Macro,
		Description:  p.Description,
		Domain:       p.Domain,
		SourcePlan:   sourcePlan,
		FunctionName: FunctionName(segments, g.FunctionSuffix),
		Import:       ContextImport(target, g.ContextModule),
		GeneratedAt:  now,
		Inputs:       p.Inputs,
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, []byte(stub.Render()), 0o644); err != nil {
		_ = os.Remove(abs)
		return "", err
	}
	return abs, nil
}
