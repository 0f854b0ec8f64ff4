package macro

import (
	"path/filepath"
	"testing"
)

func TestSegments_StripsSigilAndSplits(t *testing.T) {
	segs, err := Segments("::frontend.dashboard")
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if len(segs) != 2 || segs[0] != "frontend" || segs[1] != "dashboard" {
		t.Fatalf("unexpected segments: %v", segs)
	}
}

func TestSegments_SanitizesUnsafeCharacters(t *testing.T) {
	segs, err := Segments("::Data Sync.CSV Export!")
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if len(segs) != 2 || segs[0] != "data-sync" || segs[1] != "csv-export" {
		t.Fatalf("unexpected segments: %v", segs)
	}
}

func TestSegments_ColonDelimited(t *testing.T) {
	segs, err := Segments("shared:theme:colors")
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if len(segs) != 3 || segs[2] != "colors" {
		t.Fatalf("unexpected segments: %v", segs)
	}
}

func TestSegments_EmptyIdentifierFails(t *testing.T) {
	if _, err := Segments("::"); err == nil {
		t.Fatalf("expected error for identifier with no segments")
	}
	if _, err := Segments(":::..."); err == nil {
		t.Fatalf("expected error for identifier with only separators")
	}
}

func TestFunctionName_CapitalizesSubParts(t *testing.T) {
	got := FunctionName([]string{"frontend", "dashboard"}, "Macro")
	if got != "FrontendDashboardMacro" {
		t.Fatalf("unexpected function name: %s", got)
	}
	got = FunctionName([]string{"data-sync", "csv_export"}, "Macro")
	if got != "DataSyncCsvExportMacro" {
		t.Fatalf("unexpected function name: %s", got)
	}
}

func TestFunctionName_LeadingDigitGuarded(t *testing.T) {
	got := FunctionName([]string{"2fa", "setup"}, "Macro")
	if got != "_2faSetupMacro" {
		t.Fatalf("leading digit must not start an identifier, got: %s", got)
	}
}

func TestIdentifierMapping_Deterministic(t *testing.T) {
	first, err := Segments("::frontend.dashboard")
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	second, err := Segments("::frontend.dashboard")
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	p1 := TargetPath("macros", first)
	p2 := TargetPath("macros", second)
	if p1 != p2 {
		t.Fatalf("path not deterministic: %s vs %s", p1, p2)
	}
	if FunctionName(first, "Macro") != FunctionName(second, "Macro") {
		t.Fatalf("function name not deterministic")
	}
	if p1 != filepath.Join("macros", "frontend", "dashboard")+".ts" {
		t.Fatalf("unexpected target path: %s", p1)
	}
}

func TestContextImport_RelativeToStubDirectory(t *testing.T) {
	target := filepath.Join("repo", "macros", "frontend", "dashboard.ts")
	got := ContextImport(target, filepath.Join("repo", "types", "macro-context"))
	if got != "../../types/macro-context" {
		t.Fatalf("unexpected import specifier: %s", got)
	}
}

func TestContextImport_SiblingGetsDotSlash(t *testing.T) {
	target := filepath.Join("macros", "a.ts")
	got := ContextImport(target, filepath.Join("macros", "context"))
	if got != "./context" {
		t.Fatalf("unexpected import specifier: %s", got)
	}
}
