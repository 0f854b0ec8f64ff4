package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

const defaultTimeoutMs = 200

// Policy is an optional site-local predicate evaluated against every plan
// that passed the automation gate. The predicate runs in a sandboxed Lua
// state: no io/os libraries, bounded registry, hard timeout.
type Policy struct {
	Inline    string
	TimeoutMs int
}

// Enabled reports whether a predicate is configured.
func (p *Policy) Enabled() bool { return p != nil && p.Inline != "" }

// Evaluate runs the predicate with the plan payload and source filename bound
// as globals. A false return or a timed-out predicate rejects the plan; err is
// reserved for a broken predicate (a configuration problem at the call site)
// and for caller cancellation.
func (p *Policy) Evaluate(ctx context.Context, payload map[string]any, filename string) (allowed bool, reason string, err error) {
	code := p.Inline
	if !strings.Contains(code, "return") {
		code = "return (" + code + ")"
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs:     true,
		RegistrySize:     256,
		RegistryMaxSize:  1024,
		RegistryGrowStep: 0,
	})
	defer L.Close()
	openLib := func(name string, f lua.LGFunction) {
		L.Push(L.NewFunction(f))
		L.Push(lua.LString(name))
		L.Call(1, 0)
	}
	openLib("base", lua.OpenBase)
	openLib("string", lua.OpenString)
	openLib("table", lua.OpenTable)
	openLib("math", lua.OpenMath)

	timeout := p.TimeoutMs
	if timeout <= 0 {
		timeout = defaultTimeoutMs
	}
	evalCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Millisecond)
	defer cancel()
	L.SetContext(evalCtx)

	L.SetGlobal("plan", toLValue(L, payload))
	L.SetGlobal("filename", lua.LString(filename))

	fn, err := L.LoadString(code)
	if err != nil {
		return false, "", fmt.Errorf("policy predicate does not compile: %v", err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if isTimeout(evalCtx, err) {
			return false, "policy predicate timed out", nil
		}
		return false, "", fmt.Errorf("policy predicate failed: %v", err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	b, ok := ret.(lua.LBool)
	if !ok {
		return false, "", fmt.Errorf("policy predicate must return a boolean, got %s", ret.Type())
	}
	if !bool(b) {
		return false, "plan rejected by policy predicate", nil
	}
	return true, "", nil
}

// isTimeout reports whether the predicate hit its own deadline. Cancellation
// by the caller is deliberately not a timeout: it surfaces as an error so the
// sweep stops instead of rejecting the plan.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "deadline exceeded")
}

// toLValue converts a decoded JSON value to a Lua value.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		if x {
			return lua.LTrue
		}
		return lua.LFalse
	case int:
		return lua.LNumber(float64(x))
	case int64:
		return lua.LNumber(float64(x))
	case float64:
		return lua.LNumber(x)
	case map[string]any:
		tbl := L.NewTable()
		for k, v2 := range x {
			tbl.RawSetString(k, toLValue(L, v2))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		for i, v2 := range x {
			tbl.RawSetInt(i+1, toLValue(L, v2))
		}
		return tbl
	default:
		return lua.LNil
	}
}
