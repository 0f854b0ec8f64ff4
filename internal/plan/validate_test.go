package plan

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codexbridge/codexbridge/internal/schema"
)

const validPlanJSON = `{
  "macro": "::frontend.dashboard",
  "description": "Render the dashboard",
  "domain": "frontend",
  "safe": true,
  "requires_review": false,
  "inputs": [{"name": "context", "type": "MacroContext"}],
  "tests": [{"type": "unit", "command": "echo ok"}]
}`

func newValidator() *Validator {
	return NewValidator(schema.New(""))
}

func TestValidateFile_ValidPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	if err := os.WriteFile(path, []byte(validPlanJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, payload, err := newValidator().ValidateFile(path)
	if err != nil {
		t.Fatalf("validate file: %v", err)
	}
	if p.Macro != "::frontend.dashboard" {
		t.Fatalf("unexpected macro: %s", p.Macro)
	}
	if payload["domain"] != "frontend" {
		t.Fatalf("payload not preserved: %+v", payload)
	}
}

func TestValidateFile_ParseErrorIsDistinct(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := newValidator().ValidateFile(path)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		t.Fatalf("parse failure must not be reported as a validation error")
	}
}

func TestAssertValid_CarriesIssues(t *testing.T) {
	payload := map[string]any{"description": "missing everything"}
	err := newValidator().AssertValid(payload, "plan-007.json")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if valErr.Context != "plan-007.json" {
		t.Fatalf("context label lost: %s", valErr.Context)
	}
	if len(valErr.Issues) == 0 {
		t.Fatalf("expected at least one issue")
	}
}

func TestValidateFile_TypeMismatchIsValidationError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mistyped.json")
	doc := `{
  "macro": "::frontend.dashboard",
  "description": "safe is not a boolean",
  "domain": "frontend",
  "safe": "yes",
  "requires_review": false
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := newValidator().ValidateFile(path)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		t.Fatalf("valid JSON must never be reported as a parse error")
	}
	found := false
	for _, issue := range valErr.Issues {
		if strings.Contains(issue, "safe") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no issue names the mistyped field: %v", valErr.Issues)
	}
}

func TestParseAndDecode_Agree(t *testing.T) {
	payload, err := Parse([]byte(validPlanJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := payload["tests"]; !ok {
		t.Fatalf("raw payload missing tests")
	}
	p, err := Decode([]byte(validPlanJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(p.Tests) != 1 || p.Tests[0].Command != "echo ok" {
		t.Fatalf("tests not decoded: %+v", p.Tests)
	}
}
