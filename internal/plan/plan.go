package plan

import "encoding/json"

// Plan is the untrusted unit of input: a machine-authored request to generate
// one macro stub. A Plan is immutable once decoded; everything derived from it
// (stub path, function name, registry entry) is a pure function of its fields.
type Plan struct {
	Macro          string            `json:"macro"`
	Description    string            `json:"description"`
	Domain         string            `json:"domain"`
	Inputs         []Input           `json:"inputs,omitempty"`
	Safe           bool              `json:"safe"`
	RequiresReview bool              `json:"requires_review"`
	Tests          []TestSpec        `json:"tests,omitempty"`
	Dependencies   []string          `json:"dependencies,omitempty"`
	Governance     *Governance       `json:"governance,omitempty"`
	Version        string            `json:"version,omitempty"`
	CreatedAt      string            `json:"created_at,omitempty"`
	Notes          string            `json:"notes,omitempty"`
}

// Input documents one parameter of the generated stub. It does not affect
// control flow.
type Input struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    *bool  `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Example     any    `json:"example,omitempty"`
}

// TestSpec declares one verification command. Command and timeout fall back to
// configured defaults when absent.
type TestSpec struct {
	Type        string            `json:"type"`
	Command     string            `json:"command,omitempty"`
	Path        string            `json:"path,omitempty"`
	Description string            `json:"description,omitempty"`
	TimeoutSec  float64           `json:"timeout,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
}

// Governance metadata is carried through to archives verbatim; the pipeline
// validates its shape and nothing else.
type Governance struct {
	PolicyRefs         []string `json:"policy_refs,omitempty"`
	EscalationPath     string   `json:"escalation_path,omitempty"`
	ManualReviewReason string   `json:"manual_review_reason,omitempty"`
}

// Parse decodes raw plan JSON into the payload map used for schema validation
// and archive augmentation. A failure here means the file is not valid JSON;
// type mismatches against the Plan struct are a schema concern, not a parse
// concern, so nothing typed is decoded yet.
func Parse(data []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Decode unmarshals the typed Plan. Callers validate the parsed payload
// against the schema first; the schema types every field the struct declares,
// so schema-valid input decodes cleanly.
func Decode(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
