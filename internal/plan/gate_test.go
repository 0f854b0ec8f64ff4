package plan

import (
	"strings"
	"testing"
)

func TestAutomationGate_UnsafeWins(t *testing.T) {
	gate := AutomationGate(&Plan{Safe: false, RequiresReview: false})
	if gate.AutoExecutable {
		t.Fatalf("unsafe plan must not be auto-executable")
	}
	if !strings.Contains(gate.Reason, "unsafe") {
		t.Fatalf("reason should cite the unsafe flag, got: %s", gate.Reason)
	}
}

func TestAutomationGate_ReviewBlocks(t *testing.T) {
	gate := AutomationGate(&Plan{Safe: true, RequiresReview: true})
	if gate.AutoExecutable {
		t.Fatalf("review-required plan must not be auto-executable")
	}
	if !strings.Contains(gate.Reason, "review") {
		t.Fatalf("reason should cite manual review, got: %s", gate.Reason)
	}
}

func TestAutomationGate_UnsafeBeatsReview(t *testing.T) {
	gate := AutomationGate(&Plan{Safe: false, RequiresReview: true})
	if !strings.Contains(gate.Reason, "unsafe") {
		t.Fatalf("explicit unsafe declaration must win, got: %s", gate.Reason)
	}
}

func TestAutomationGate_SafePasses(t *testing.T) {
	gate := AutomationGate(&Plan{Safe: true, RequiresReview: false})
	if !gate.AutoExecutable {
		t.Fatalf("safe plan should be auto-executable, reason: %s", gate.Reason)
	}
}
