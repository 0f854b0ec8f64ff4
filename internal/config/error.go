package config

import "fmt"

// Error is a fatal configuration error: a broken deployment rather than a bad
// plan. It aborts the whole sweep and maps to a non-zero exit code.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode distinguishes configuration failures from ordinary errors.
func (e *Error) ExitCode() int { return 2 }
