package plan

import (
	"fmt"
	"os"
	"strings"

	"github.com/codexbridge/codexbridge/internal/schema"
)

// ParseError reports a plan file that is not valid JSON. It is kept distinct
// from schema violations: there is no structured plan to diagnose.
type ParseError struct {
	Context string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: invalid JSON: %s", e.Context, e.Message)
}

// ValidationError carries the full list of schema diagnostics for one plan.
type ValidationError struct {
	Context string
	Issues  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: plan failed schema validation: %s", e.Context, strings.Join(e.Issues, "; "))
}

// Validator applies the plan schema and the automation-safety policy.
type Validator struct {
	schema *schema.Validator
}

// NewValidator wraps the given schema validator.
func NewValidator(s *schema.Validator) *Validator {
	return &Validator{schema: s}
}

// Validate delegates to the schema validator. The error return is reserved
// for fatal configuration problems.
func (v *Validator) Validate(payload map[string]any) (schema.Result, error) {
	return v.schema.Validate(payload)
}

// AssertValid returns a *ValidationError carrying every issue when the payload
// violates the schema. context labels error messages only, typically the
// source filename.
func (v *Validator) AssertValid(payload map[string]any, context string) error {
	res, err := v.Validate(payload)
	if err != nil {
		return err
	}
	if !res.Valid {
		return &ValidationError{Context: context, Issues: res.Issues}
	}
	return nil
}

// ValidateFile reads, parses, and validates a plan file. Parse failures come
// back as *ParseError, schema failures as *ValidationError.
func (v *Validator) ValidateFile(path string) (*Plan, map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	payload, err := Parse(data)
	if err != nil {
		return nil, nil, &ParseError{Context: path, Message: err.Error()}
	}
	if err := v.AssertValid(payload, path); err != nil {
		return nil, nil, err
	}
	p, err := Decode(data)
	if err != nil {
		return nil, nil, &ValidationError{Context: path, Issues: []string{err.Error()}}
	}
	return p, payload, nil
}
