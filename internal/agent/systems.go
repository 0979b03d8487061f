package agent

import (
	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/core/event"
	"github.com/vanguard/agent/internal/core/queue"
	coresys "github.com/vanguard/agent/internal/core/system"
	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/plan"
	"github.com/vanguard/agent/internal/world"
)

// Tick is the per-call context passed through the runner phases.
type Tick struct {
	Snapshot model.Snapshot

	planning bool
	out      command.Command
	emitted  bool
}

// InputSystem applies the snapshot's deltas to the tracker. Phase 0 (Input).
type InputSystem struct {
	tracker *world.Tracker
	bus     *event.Bus
}

func NewInputSystem(tracker *world.Tracker, bus *event.Bus) *InputSystem {
	return &InputSystem{tracker: tracker, bus: bus}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(t *Tick) {
	st := s.tracker.Reconcile(t.Snapshot.NewUnits, t.Snapshot.Updates, t.Snapshot.Tick)
	event.Emit(s.bus, EntitiesReconciled{Tick: t.Snapshot.Tick, Stats: st, Tracked: s.tracker.Len()})
}

// PlanSystem runs the planner exactly once per match, on the first tick it
// sees. Phase 1 (Plan).
type PlanSystem struct {
	env     plan.Env
	planner plan.Planner
	tracker *world.Tracker
	queue   *queue.Queue[command.Command]
	bus     *event.Bus
	done    bool
	log     *zap.Logger
}

func NewPlanSystem(env plan.Env, planner plan.Planner, tracker *world.Tracker, q *queue.Queue[command.Command], bus *event.Bus, log *zap.Logger) *PlanSystem {
	return &PlanSystem{env: env, planner: planner, tracker: tracker, queue: q, bus: bus, log: log}
}

func (s *PlanSystem) Phase() coresys.Phase { return coresys.PhasePlan }

func (s *PlanSystem) Update(t *Tick) {
	if s.done {
		return
	}
	s.done = true
	t.planning = true

	if s.planner == nil {
		event.Emit(s.bus, PlanCommitted{Tick: t.Snapshot.Tick})
		return
	}
	ctx := plan.NewContext(s.env, t.Snapshot.Tick, s.tracker)
	b := plan.NewBuilder(s.log)
	if err := s.planner.Plan(ctx, b); err != nil {
		discarded := b.Len()
		b.Reset()
		event.Emit(s.bus, PlanFailed{Tick: t.Snapshot.Tick, Planner: s.planner.Name(), Discarded: discarded, Err: err})
		return
	}
	rejected := b.Rejected()
	n := b.Commit(s.queue)
	event.Emit(s.bus, PlanCommitted{Tick: t.Snapshot.Tick, Planner: s.planner.Name(), Commands: n, Rejected: rejected})
}

// Planned reports whether the one-time plan has run.
func (s *PlanSystem) Planned() bool { return s.done }

// DispatchSystem hands out at most one queued command per tick, and none
// while the host reports a cooldown. Phase 2 (Dispatch).
type DispatchSystem struct {
	queue     *queue.Queue[command.Command]
	bus       *event.Bus
	seq       int
	exhausted bool
}

func NewDispatchSystem(q *queue.Queue[command.Command], bus *event.Bus) *DispatchSystem {
	return &DispatchSystem{queue: q, bus: bus}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *DispatchSystem) Update(t *Tick) {
	if t.planning {
		return
	}
	if t.Snapshot.Cooldown > 0 {
		if !s.queue.IsEmpty() {
			event.Emit(s.bus, CooldownStall{Tick: t.Snapshot.Tick, Cooldown: t.Snapshot.Cooldown, Pending: s.queue.Len()})
		}
		return
	}
	cmd, ok := s.queue.Dequeue()
	if !ok {
		if !s.exhausted {
			s.exhausted = true
			event.Emit(s.bus, PlanExhausted{Tick: t.Snapshot.Tick, Emitted: s.seq})
		}
		return
	}
	s.seq++
	t.out, t.emitted = cmd, true
	event.Emit(s.bus, CommandEmitted{Tick: t.Snapshot.Tick, Seq: s.seq, Command: cmd})
}

// ReportSystem delivers the tick's events to subscribers. Phase 3 (Report).
type ReportSystem struct {
	bus *event.Bus
}

func NewReportSystem(bus *event.Bus) *ReportSystem {
	return &ReportSystem{bus: bus}
}

func (s *ReportSystem) Phase() coresys.Phase { return coresys.PhaseReport }

func (s *ReportSystem) Update(_ *Tick) {
	s.bus.Flush()
}
