package registry

import (
	"github.com/codexbridge/codexbridge/internal/plan"
)

// DocumentVersion is the registry document format version.
const DocumentVersion = 1

// DefaultEntryVersion is recorded for plans that omit a version.
const DefaultEntryVersion = "0.1.0"

// Entry is the durable record of one accepted macro. Entries are appended on
// successful plan processing and never mutated or removed by the pipeline.
type Entry struct {
	Identifier     string       `json:"identifier"`
	Description    string       `json:"description"`
	Domain         string       `json:"domain"`
	Safe           bool         `json:"safe"`
	RequiresReview bool         `json:"requires_review"`
	Inputs         []plan.Input `json:"inputs,omitempty"`
	Dependencies   []string     `json:"dependencies,omitempty"`
	Version        string       `json:"version"`
	MacroPath      string       `json:"macro_path"`
	GeneratedAt    string       `json:"generated_at"`
}

// Document is the whole registry file, kept sorted by identifier so rewrites
// produce deterministic diffs.
type Document struct {
	Version int     `json:"version"`
	Macros  []Entry `json:"macros"`
}

// MacroCacheEntry records the most recent generation outcome for a macro.
// Best-effort observability; the registry stays authoritative.
type MacroCacheEntry struct {
	MacroPath   string `json:"macro_path"`
	GeneratedAt string `json:"generated_at"`
	Status      string `json:"status"`
}

// TestRecord is one test outcome kept in the test cache.
type TestRecord struct {
	Type       string `json:"type"`
	Command    string `json:"command"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
}

// TestCacheEntry records the most recent test run for a macro.
type TestCacheEntry struct {
	LastRun string       `json:"last_run"`
	Results []TestRecord `json:"results"`
}
