package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/codexbridge/codexbridge/internal/config"
	"github.com/codexbridge/codexbridge/internal/gitinfo"
	"github.com/codexbridge/codexbridge/internal/macro"
	"github.com/codexbridge/codexbridge/internal/plan"
	"github.com/codexbridge/codexbridge/internal/policy"
	"github.com/codexbridge/codexbridge/internal/registry"
	"github.com/codexbridge/codexbridge/internal/runner"
	"github.com/codexbridge/codexbridge/internal/schema"
)

// Rejection reason codes, in priority order.
const (
	ReasonInvalidJSON  = "invalid_json"
	ReasonSchema       = "schema"
	ReasonGate         = "gate"
	ReasonPolicy       = "policy"
	ReasonDependencies = "dependencies"
	ReasonDuplicate    = "duplicate"
	ReasonGeneration   = "generation"
	ReasonRegistry     = "registry"
	ReasonTests        = "tests"
	ReasonCache        = "cache"
)

// Outcome is the per-file result of one sweep.
type Outcome struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	MacroPath string `json:"macro_path,omitempty"`
}

// Report is the ordered list of outcomes for one sweep.
type Report struct {
	SweepID   string    `json:"sweep_id"`
	StartedAt string    `json:"started_at"`
	Outcomes  []Outcome `json:"outcomes"`
}

// rejection is the internal shape of a per-plan failure before archiving.
type rejection struct {
	reason     string
	issues     []string
	command    string
	stdout     string
	stderr     string
	durationMs int64
}

// Watcher drives pending plan files through validation, gating, generation,
// testing, registry update, and archiving. Processing is strictly sequential
// so registry mutations stay serializable.
type Watcher struct {
	cfg    *config.Config
	plans  *plan.Validator
	store  *registry.Store
	gen    *macro.Generator
	runner *runner.Runner
	policy *policy.Policy
	commit string
}

// New wires a watcher from configuration. The optional env file is loaded
// here so every test command in the sweep sees the same base environment.
func New(cfg *config.Config) (*Watcher, error) {
	baseEnv := map[string]string{}
	if cfg.EnvFile != "" {
		env, err := godotenv.Read(cfg.Resolve(cfg.EnvFile))
		if err != nil && !os.IsNotExist(err) {
			return nil, &config.Error{Path: cfg.EnvFile, Err: err}
		}
		for k, v := range env {
			baseEnv[k] = v
		}
	}

	commit, _ := gitinfo.Head(cfg.Root)

	w := &Watcher{
		cfg:   cfg,
		plans: plan.NewValidator(schema.New(cfg.SchemaPath())),
		store: registry.NewStore(
			cfg.RegistryPath(),
			cfg.Resolve(cfg.Cache.MacroOutput),
			cfg.Resolve(cfg.Cache.TestOutcomes),
		),
		gen: &macro.Generator{
			MacrosRoot:     cfg.MacrosRoot(),
			ContextModule:  cfg.Resolve(cfg.Macros.ContextModule),
			FunctionSuffix: cfg.Macros.FunctionSuffix,
		},
		runner: &runner.Runner{
			WorkDir:        cfg.Root,
			DefaultCommand: cfg.Tests.DefaultCommand,
			DefaultTimeout: time.Duration(cfg.Tests.DefaultTimeoutSec) * time.Second,
			BaseEnv:        baseEnv,
		},
		policy: &policy.Policy{Inline: cfg.Policy.Inline, TimeoutMs: cfg.Policy.TimeoutMs},
		commit: commit,
	}
	return w, nil
}

// Sweep processes every pending plan file once, in lexicographic order. An
// absent inbox directory means zero pending plans, not an error. Per-plan
// failures become rejection outcomes; only infrastructure and configuration
// errors propagate.
func (w *Watcher) Sweep(ctx context.Context) (Report, error) {
	report := Report{
		SweepID:   uuid.NewString(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Outcomes:  []Outcome{},
	}

	entries, err := os.ReadDir(w.cfg.InboxDir())
	if os.IsNotExist(err) {
		return report, nil
	}
	if err != nil {
		return Report{}, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		outcome, err := w.processFile(ctx, report.SweepID, name)
		if err != nil {
			return Report{}, err
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

// processFile runs one plan file through the full state machine. The returned
// error aborts the sweep and is reserved for configuration or infrastructure
// failures; every plan-level problem is converted into a rejected outcome.
func (w *Watcher) processFile(ctx context.Context, sweepID, name string) (Outcome, error) {
	path := filepath.Join(w.cfg.InboxDir(), name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, err
	}

	payload, parseErr := plan.Parse(raw)
	if parseErr != nil {
		return w.reject(sweepID, name, raw, nil, "", rejection{
			reason: ReasonInvalidJSON,
			issues: []string{sanitize(parseErr.Error())},
		})
	}
	identifier, _ := payload["macro"].(string)

	res, err := w.plans.Validate(payload)
	if err != nil {
		return Outcome{}, err
	}
	if !res.Valid {
		return w.reject(sweepID, name, raw, payload, identifier, rejection{
			reason: ReasonSchema,
			issues: res.Issues,
		})
	}

	p, err := plan.Decode(raw)
	if err != nil {
		return w.reject(sweepID, name, raw, payload, identifier, rejection{
			reason: ReasonSchema,
			issues: []string{sanitize(err.Error())},
		})
	}

	if gate := plan.AutomationGate(p); !gate.AutoExecutable {
		return w.reject(sweepID, name, raw, payload, p.Macro, rejection{
			reason: ReasonGate,
			issues: []string{gate.Reason},
		})
	}

	if w.policy.Enabled() {
		allowed, reason, err := w.policy.Evaluate(ctx, payload, name)
		if err != nil {
			return Outcome{}, &config.Error{Err: err}
		}
		if !allowed {
			return w.reject(sweepID, name, raw, payload, p.Macro, rejection{
				reason: ReasonPolicy,
				issues: []string{reason},
			})
		}
	}

	missing, err := w.store.MissingDependencies(p)
	if err != nil {
		return Outcome{}, err
	}
	if len(missing) > 0 {
		return w.reject(sweepID, name, raw, payload, p.Macro, rejection{
			reason: ReasonDependencies,
			issues: []string{"missing dependencies: " + strings.Join(missing, ", ")},
		})
	}

	registered, err := w.store.Registered(p.Macro)
	if err != nil {
		return Outcome{}, err
	}
	if registered {
		return w.reject(sweepID, name, raw, payload, p.Macro, rejection{
			reason: ReasonDuplicate,
			issues: []string{"macro " + p.Macro + " is already registered"},
		})
	}

	now := time.Now()
	stubPath, err := w.gen.Generate(p, name, now)
	if err != nil {
		return w.reject(sweepID, name, raw, payload, p.Macro, rejection{
			reason: ReasonGeneration,
			issues: []string{sanitize(err.Error())},
		})
	}
	relStub := w.relPath(stubPath)

	snapshot, existed, err := w.store.Snapshot()
	if err != nil {
		_ = os.Remove(stubPath)
		return Outcome{}, err
	}

	entry, err := w.store.Update(p, relStub, now)
	if err != nil {
		_ = os.Remove(stubPath)
		if isConfigError(err) {
			return Outcome{}, err
		}
		return w.reject(sweepID, name, raw, payload, p.Macro, rejection{
			reason: ReasonRegistry,
			issues: []string{sanitize(err.Error())},
		})
	}

	results, err := w.runner.ExecuteTests(ctx, p)
	if err != nil {
		if rbErr := w.rollback(stubPath, snapshot, existed); rbErr != nil {
			return Outcome{}, rbErr
		}
		var execErr *runner.ExecError
		if !errors.As(err, &execErr) {
			return Outcome{}, err
		}
		return w.reject(sweepID, name, raw, payload, p.Macro, rejection{
			reason:     ReasonTests,
			issues:     execErr.Issues,
			command:    execErr.Command,
			stdout:     execErr.Stdout,
			stderr:     execErr.Stderr,
			durationMs: execErr.DurationMs,
		})
	}

	if err := w.updateCaches(p.Macro, relStub, now, results); err != nil {
		if rbErr := w.rollback(stubPath, snapshot, existed); rbErr != nil {
			return Outcome{}, rbErr
		}
		if isConfigError(err) {
			return Outcome{}, err
		}
		return w.reject(sweepID, name, raw, payload, p.Macro, rejection{
			reason: ReasonCache,
			issues: []string{sanitize(err.Error())},
		})
	}

	if err := w.archiveProcessed(name, payload, entry, relStub, results, raw, now); err != nil {
		return Outcome{}, err
	}
	if err := w.writeResult(resultArtifact{
		SweepID:     sweepID,
		Plan:        name,
		Identifier:  p.Macro,
		Status:      "processed",
		MacroPath:   relStub,
		TestResults: results,
		Commit:      w.commit,
	}, name, "processed", now); err != nil {
		return Outcome{}, err
	}
	if err := os.Remove(path); err != nil {
		return Outcome{}, err
	}
	return Outcome{Filename: name, Status: "processed", MacroPath: relStub}, nil
}

// rollback removes the generated stub and restores the registry to its
// pre-update snapshot, so the registry never references a macro file that
// does not exist.
func (w *Watcher) rollback(stubPath string, snapshot []byte, existed bool) error {
	if err := os.Remove(stubPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return w.store.Restore(snapshot, existed)
}

func (w *Watcher) updateCaches(identifier, relStub string, now time.Time, results []runner.Result) error {
	ts := now.UTC().Format(time.RFC3339)
	if err := w.store.UpdateMacroCache(identifier, registry.MacroCacheEntry{
		MacroPath:   relStub,
		GeneratedAt: ts,
		Status:      "generated",
	}); err != nil {
		return err
	}
	records := make([]registry.TestRecord, 0, len(results))
	for _, r := range results {
		records = append(records, registry.TestRecord{
			Type:       r.Type,
			Command:    r.Command,
			Status:     r.Status,
			DurationMs: r.DurationMs,
		})
	}
	return w.store.UpdateTestCache(identifier, registry.TestCacheEntry{
		LastRun: ts,
		Results: records,
	})
}

// relPath renders a path repo-relative with forward slashes; it falls back to
// the input when the path escapes the root.
func (w *Watcher) relPath(path string) string {
	absRoot, err := filepath.Abs(w.cfg.Root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func isConfigError(err error) bool {
	var ce *config.Error
	return errors.As(err, &ce)
}

func sanitize(msg string) string {
	s := strings.Join(strings.Fields(msg), " ")
	if s == "" {
		return "error"
	}
	return s
}
