package watcher

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codexbridge/codexbridge/internal/registry"
	"github.com/codexbridge/codexbridge/internal/runner"
)

// resultArtifact is the machine-readable per-plan outcome written for the
// originating planner to consume.
type resultArtifact struct {
	SweepID     string          `json:"sweep_id"`
	Plan        string          `json:"plan"`
	Identifier  string          `json:"identifier,omitempty"`
	Status      string          `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	Issues      []string        `json:"issues,omitempty"`
	MacroPath   string          `json:"macro_path,omitempty"`
	TestResults []runner.Result `json:"test_results,omitempty"`
	Command     string          `json:"command,omitempty"`
	Stdout      string          `json:"stdout,omitempty"`
	Stderr      string          `json:"stderr,omitempty"`
	DurationMs  int64           `json:"duration_ms,omitempty"`
	Commit      string          `json:"commit,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// reject archives the plan under rejected/, writes its result artifact, and
// removes the inbox file. A payload of nil means the file never parsed; the
// raw text is archived under its own field since there is no structured plan
// to merge diagnostics into.
func (w *Watcher) reject(sweepID, name string, raw []byte, payload map[string]any, identifier string, rej rejection) (Outcome, error) {
	now := time.Now()

	doc := map[string]any{}
	if payload != nil {
		for k, v := range payload {
			doc[k] = v
		}
	} else {
		doc["raw_content"] = string(raw)
	}
	block := map[string]any{
		"status":         "rejected",
		"reason":         rej.reason,
		"issues":         rej.issues,
		"archived_at":    now.UTC().Format(time.RFC3339),
		"content_sha256": contentHash(raw),
	}
	if w.commit != "" {
		block["commit"] = w.commit
	}
	doc["codexbridge"] = block

	if err := writeJSONFile(filepath.Join(w.cfg.RejectedDir(), name), doc); err != nil {
		return Outcome{}, err
	}
	if err := w.writeResult(resultArtifact{
		SweepID:    sweepID,
		Plan:       name,
		Identifier: identifier,
		Status:     "rejected",
		Reason:     rej.reason,
		Issues:     rej.issues,
		Command:    rej.command,
		Stdout:     rej.stdout,
		Stderr:     rej.stderr,
		DurationMs: rej.durationMs,
		Commit:     w.commit,
	}, name, "rejected", now); err != nil {
		return Outcome{}, err
	}
	if err := os.Remove(filepath.Join(w.cfg.InboxDir(), name)); err != nil {
		return Outcome{}, err
	}
	return Outcome{Filename: name, Status: "rejected", Reason: rej.reason}, nil
}

// archiveProcessed writes the accepted plan under processed/, augmented with
// the codexbridge traceability block.
func (w *Watcher) archiveProcessed(name string, payload map[string]any, entry registry.Entry, relStub string, results []runner.Result, raw []byte, now time.Time) error {
	doc := map[string]any{}
	for k, v := range payload {
		doc[k] = v
	}
	block := map[string]any{
		"status":         "processed",
		"processed_at":   now.UTC().Format(time.RFC3339),
		"macro_path":     relStub,
		"registry_entry": entry,
		"tests":          results,
		"content_sha256": contentHash(raw),
	}
	if w.commit != "" {
		block["commit"] = w.commit
	}
	doc["codexbridge"] = block
	return writeJSONFile(filepath.Join(w.cfg.ProcessedDir(), name), doc)
}

// writeResult persists one result artifact. The name embeds a colon-free UTC
// timestamp, the plan basename, and the status, so listings sort by time.
func (w *Watcher) writeResult(artifact resultArtifact, name, status string, now time.Time) error {
	artifact.CreatedAt = now.UTC().Format(time.RFC3339)
	base := strings.TrimSuffix(name, ".json")
	filename := now.UTC().Format("2006-01-02T15-04-05") + "__" + base + "__" + status + ".json"
	return writeJSONFile(filepath.Join(w.cfg.ResultsDir(), filename), artifact)
}

func contentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// writeJSONFile writes pretty-printed JSON with HTML escaping disabled,
// creating parent directories.
func writeJSONFile(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
