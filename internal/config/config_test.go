package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Paths(t *testing.T) {
	cfg := Default()
	if cfg.Plans.Inbox != "plans/from_gpt" {
		t.Fatalf("unexpected inbox default: %s", cfg.Plans.Inbox)
	}
	if cfg.Macros.FunctionSuffix != "Macro" {
		t.Fatalf("unexpected suffix default: %s", cfg.Macros.FunctionSuffix)
	}
	if cfg.Tests.DefaultTimeoutSec != 120 {
		t.Fatalf("unexpected timeout default: %d", cfg.Tests.DefaultTimeoutSec)
	}
	if got := cfg.Resolve("plans/from_gpt"); got != filepath.Join(".", "plans", "from_gpt") {
		t.Fatalf("resolve: %s", got)
	}
}

func TestLoad_OverlaysDocumentOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	doc := `
root: /work/repo
plans:
  inbox: incoming
tests:
  defaultCommand: make check
policy:
  inline: 'plan.domain ~= "finance"'
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Root != "/work/repo" {
		t.Fatalf("root not overlaid: %s", cfg.Root)
	}
	if cfg.Plans.Inbox != "incoming" {
		t.Fatalf("inbox not overlaid: %s", cfg.Plans.Inbox)
	}
	if cfg.Plans.Processed != "plans/processed" {
		t.Fatalf("untouched default lost: %s", cfg.Plans.Processed)
	}
	if cfg.Tests.DefaultCommand != "make check" {
		t.Fatalf("command not overlaid: %s", cfg.Tests.DefaultCommand)
	}
	if cfg.Policy.Inline == "" {
		t.Fatalf("policy inline lost")
	}
	if got := cfg.InboxDir(); got != filepath.Join("/work/repo", "incoming") {
		t.Fatalf("inbox dir: %s", got)
	}
}

func TestLoad_MissingFileIsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing config")
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Plans.Inbox != "plans/from_gpt" {
		t.Fatalf("defaults not returned: %s", cfg.Plans.Inbox)
	}
}
