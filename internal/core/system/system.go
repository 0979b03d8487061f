package system

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput    Phase = iota // 0: apply the host's world deltas
	PhasePlan                  // 1: one-time regions + plan
	PhaseDispatch              // 2: cooldown gate, emit at most one command
	PhaseReport                // 3: deliver this tick's events
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePlan:
		return "plan"
	case PhaseDispatch:
		return "dispatch"
	case PhaseReport:
		return "report"
	default:
		return "custom"
	}
}

// System is the interface every tick system implements. C is the per-tick
// context the runner hands to each system in turn.
type System[C any] interface {
	Phase() Phase
	Update(tick C)
}
