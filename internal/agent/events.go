package agent

import (
	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/world"
)

// EntitiesReconciled is emitted every tick after the tracker absorbed the
// snapshot's deltas.
type EntitiesReconciled struct {
	Tick    int
	Stats   world.ReconcileStats
	Tracked int
}

// PlanCommitted is emitted once, on the planning tick, when the planner
// succeeded and its commands were queued.
type PlanCommitted struct {
	Tick     int
	Planner  string
	Commands int
	Rejected int
}

// PlanFailed is emitted instead of PlanCommitted when the planner returned
// an error. Nothing it staged reaches the queue.
type PlanFailed struct {
	Tick      int
	Planner   string
	Discarded int // commands staged before the failure
	Err       error
}

// CommandEmitted is emitted for every command handed to the host. Seq
// counts from 1 within the match.
type CommandEmitted struct {
	Tick    int
	Seq     int
	Command command.Command
}

// CooldownStall is emitted when a command could have gone out but the host
// still reports a cooldown.
type CooldownStall struct {
	Tick     int
	Cooldown int
	Pending  int
}

// PlanExhausted is emitted the first time dispatch finds the queue empty.
type PlanExhausted struct {
	Tick    int
	Emitted int
}
