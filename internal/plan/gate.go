package plan

// Gate is the automation-safety decision for one plan.
type Gate struct {
	AutoExecutable bool
	Reason         string
}

// AutomationGate decides whether a plan may be processed unattended. An
// explicit unsafe declaration always wins: safe=false blocks execution even
// when requires_review is also false.
func AutomationGate(p *Plan) Gate {
	if !p.Safe {
		return Gate{Reason: "plan is marked unsafe (safe=false); refusing to auto-execute"}
	}
	if p.RequiresReview {
		return Gate{Reason: "plan requires manual review before execution (requires_review=true)"}
	}
	return Gate{AutoExecutable: true}
}
