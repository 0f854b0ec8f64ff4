package macro

import (
	"fmt"
	"strings"
	"time"

	"github.com/codexbridge/codexbridge/internal/plan"
)

// Stub is everything needed to render one macro stub file. Rendering is pure
// so tests can exercise it without touching a filesystem.
type Stub struct {
	Identifier   string
	Description  string
	Domain       string
	SourcePlan   string
	FunctionName string
	Import       string
	GeneratedAt  time.Time
	Inputs       []plan.Input
}

// Render produces the stub file content: a traceability header followed by a
// typed function that unconditionally fails. A generated stub must never
// silently succeed; the throw surfaces any attempt to run an unimplemented
// macro.
func (s Stub) Render() string {
	var b strings.Builder
	b.WriteString("/**\n")
	fmt.Fprintf(&b, " * Macro: %s\n", s.Identifier)
	if s.Description != "" {
		fmt.Fprintf(&b, " * Description: %s\n", s.Description)
	}
	if s.Domain != "" {
		fmt.Fprintf(&b, " * Domain: %s\n", s.Domain)
	}
	fmt.Fprintf(&b, " * Source plan: %s\n", s.SourcePlan)
	fmt.Fprintf(&b, " * Generated: %s\n", s.GeneratedAt.UTC().Format(time.RFC3339))
	if len(s.Inputs) > 0 {
		b.WriteString(" *\n * Inputs:\n")
		for _, in := range s.Inputs {
			if in.Description != "" {
				fmt.Fprintf(&b, " *   - %s (%s): %s\n", in.Name, in.Type, in.Description)
			} else {
				fmt.Fprintf(&b, " *   - %s (%s)\n", in.Name, in.Type)
			}
		}
	}
	b.WriteString(" */\n\n")
	fmt.Fprintf(&b, "import { MacroContext } from '%s';\n\n", s.Import)
	fmt.Fprintf(&b, "export async function %s(context: MacroContext): Promise<never> {\n", s.FunctionName)
	fmt.Fprintf(&b, "  throw new Error('macro %s is not implemented yet');\n", s.Identifier)
	b.WriteString("}\n")
	return b.String()
}
