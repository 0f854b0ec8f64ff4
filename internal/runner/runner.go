package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/codexbridge/codexbridge/internal/plan"
)

const (
	defaultCaptureMaxBytes = 262144
	termGrace              = 2 * time.Second
)

// Result records one passed test.
type Result struct {
	Status     string `json:"status"`
	Type       string `json:"type"`
	Command    string `json:"command"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	DurationMs int64  `json:"duration_ms"`
}

// ExecError is raised on the first failing test. Tests are not independently
// scored: a half-verified macro is treated as unverified, so one failure
// rejects the whole plan.
type ExecError struct {
	Command    string
	Issues     []string
	Stdout     string
	Stderr     string
	DurationMs int64
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("test command failed: %s: %s", e.Command, strings.Join(e.Issues, "; "))
}

// Runner executes declared verification commands in the repository root.
type Runner struct {
	// WorkDir is the directory commands run in.
	WorkDir string
	// DefaultCommand runs when a plan declares no tests or a test omits its
	// command.
	DefaultCommand string
	// DefaultTimeout bounds tests that declare no timeout.
	DefaultTimeout time.Duration
	// BaseEnv is merged over the process environment before any per-test env.
	BaseEnv map[string]string
	// CaptureMaxBytes bounds captured stdout/stderr; zero means the default.
	CaptureMaxBytes int
}

// ExecuteTests runs each declared test in order, stopping at the first
// failure. An empty test list runs a single default test.
func (r *Runner) ExecuteTests(ctx context.Context, p *plan.Plan) ([]Result, error) {
	tests := p.Tests
	if len(tests) == 0 {
		tests = []plan.TestSpec{{Type: "default"}}
	}
	results := make([]Result, 0, len(tests))
	for _, t := range tests {
		res, err := r.runOne(ctx, t)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, t plan.TestSpec) (Result, error) {
	command := t.Command
	if command == "" {
		command = r.DefaultCommand
	}
	timeout := r.DefaultTimeout
	if t.TimeoutSec > 0 {
		timeout = time.Duration(t.TimeoutSec * float64(time.Second))
	}

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = r.WorkDir
	cmd.Env = mergedEnv(os.Environ(), r.BaseEnv, t.Env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	maxBytes := r.CaptureMaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultCaptureMaxBytes
	}
	outBuf := &limitedBuffer{max: maxBytes}
	errBuf := &limitedBuffer{max: maxBytes}
	cmd.Stdout = outBuf
	cmd.Stderr = errBuf

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, &ExecError{
			Command:    command,
			Issues:     []string{fmt.Sprintf("could not spawn command: %v", err)},
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var runErr error
	timedOut := false
	select {
	case runErr = <-done:
	case <-ctx.Done():
		terminate(cmd)
		<-done
		return Result{}, ctx.Err()
	case <-timer.C:
		timedOut = true
		terminate(cmd)
		runErr = <-done
	}
	duration := time.Since(start).Milliseconds()

	if timedOut {
		return Result{}, &ExecError{
			Command:    command,
			Issues:     []string{fmt.Sprintf("test timed out after %s", timeout)},
			Stdout:     outBuf.String(),
			Stderr:     errBuf.String(),
			DurationMs: duration,
		}
	}
	if runErr != nil {
		issue := strings.TrimSpace(errBuf.String())
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			if issue == "" {
				issue = fmt.Sprintf("command exited with code %d", exitErr.ExitCode())
			}
		} else if issue == "" {
			issue = fmt.Sprintf("command failed: %v", runErr)
		}
		return Result{}, &ExecError{
			Command:    command,
			Issues:     []string{issue},
			Stdout:     outBuf.String(),
			Stderr:     errBuf.String(),
			DurationMs: duration,
		}
	}
	return Result{
		Status:     "passed",
		Type:       t.Type,
		Command:    command,
		Stdout:     outBuf.String(),
		Stderr:     errBuf.String(),
		DurationMs: duration,
	}, nil
}

// terminate signals the process group with SIGTERM, escalating to SIGKILL
// after a grace period.
func terminate(cmd *exec.Cmd) {
	signalGroup(cmd, syscall.SIGTERM)
	go func() {
		time.Sleep(termGrace)
		signalGroup(cmd, syscall.SIGKILL)
	}()
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if pid > 0 {
		if err := syscall.Kill(-pid, sig); err == nil {
			return
		}
	}
	_ = cmd.Process.Signal(sig)
}

// mergedEnv overlays the base env and the per-test env over the process
// environment, later maps winning.
func mergedEnv(environ []string, overlays ...map[string]string) []string {
	m := make(map[string]string, len(environ))
	order := make([]string, 0, len(environ))
	for _, kv := range environ {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		k := kv[:i]
		if _, ok := m[k]; !ok {
			order = append(order, k)
		}
		m[k] = kv[i+1:]
	}
	for _, overlay := range overlays {
		for k, v := range overlay {
			if _, ok := m[k]; !ok {
				order = append(order, k)
			}
			m[k] = v
		}
	}
	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, k+"="+m[k])
	}
	return out
}
