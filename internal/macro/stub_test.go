package macro

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/codexbridge/codexbridge/internal/plan"
)

func TestStubRender_HeaderAndThrow(t *testing.T) {
	stub := Stub{
		Identifier:   "::frontend.dashboard",
		Description:  "Render the dashboard",
		Domain:       "frontend",
		SourcePlan:   "plan-001.json",
		FunctionName: "FrontendDashboardMacro",
		Import:       "../../types/macro-context",
		GeneratedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Inputs: []plan.Input{
			{Name: "context", Type: "MacroContext", Description: "shared context"},
			{Name: "limit", Type: "number"},
		},
	}
	out := stub.Render()
	for _, want := range []string{
		" * Macro: ::frontend.dashboard\n",
		" * Source plan: plan-001.json\n",
		" * Generated: 2026-03-01T12:00:00Z\n",
		" *   - context (MacroContext): shared context\n",
		" *   - limit (number)\n",
		"import { MacroContext } from '../../types/macro-context';\n",
		"export async function FrontendDashboardMacro(context: MacroContext): Promise<never> {\n",
		"throw new Error('macro ::frontend.dashboard is not implemented yet');",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("stub missing %q\ngot:\n%s", want, out)
		}
	}
}

func TestGenerator_WritesUnderMacrosRoot(t *testing.T) {
	root := t.TempDir()
	gen := &Generator{
		MacrosRoot:     root,
		ContextModule:  root + "/types/macro-context",
		FunctionSuffix: "Macro",
	}
	p := &plan.Plan{Macro: "::frontend.dashboard", Safe: true}
	path, err := gen.Generate(p, "plan-001.json", time.Now())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stub: %v", err)
	}
	if !strings.Contains(string(b), "FrontendDashboardMacro") {
		t.Fatalf("stub content missing function name:\n%s", string(b))
	}
	if !strings.HasSuffix(path, "frontend/dashboard.ts") {
		t.Fatalf("unexpected stub path: %s", path)
	}
}

func TestGenerator_BadIdentifierWritesNothing(t *testing.T) {
	root := t.TempDir()
	gen := &Generator{MacrosRoot: root, FunctionSuffix: "Macro"}
	if _, err := gen.Generate(&plan.Plan{Macro: "::"}, "x.json", time.Now()); err == nil {
		t.Fatalf("expected generation error")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no filesystem mutation, found %d entries", len(entries))
	}
}
