// Package agent runs one match: it owns the tracker, the command queue and
// the tick pipeline, and turns each host snapshot into at most one command.
package agent

import (
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/core/event"
	"github.com/vanguard/agent/internal/core/queue"
	coresys "github.com/vanguard/agent/internal/core/system"
	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/plan"
	"github.com/vanguard/agent/internal/world"
)

// MatchConfig is everything a match needs before its first tick.
type MatchConfig struct {
	ID      uuid.UUID
	Self    model.PlayerID
	Seed    int64
	Width   float64
	Height  float64
	Terrain model.Grid[model.TerrainType]
	Weather model.Grid[model.WeatherType]
	Policy  world.UpdatePolicy
	Planner plan.Planner
}

// ConfigFromHello builds a MatchConfig with a fresh match id.
func ConfigFromHello(h model.Hello, planner plan.Planner, policy world.UpdatePolicy) MatchConfig {
	return MatchConfig{
		ID:      uuid.New(),
		Self:    h.Self,
		Seed:    h.Seed,
		Width:   h.Width,
		Height:  h.Height,
		Terrain: h.Terrain,
		Weather: h.Weather,
		Policy:  policy,
		Planner: planner,
	}
}

// Controller is the per-match state. Not safe for concurrent use: one
// goroutine drives a match from its first tick to its last.
type Controller struct {
	id       uuid.UUID
	tracker  *world.Tracker
	queue    *queue.Queue[command.Command]
	bus      *event.Bus
	runner   *coresys.Runner[*Tick]
	planSys  *PlanSystem
	journal  *Journal
	lastTick int
	log      *zap.Logger
}

// NewMatch sets up every piece of per-match state. Nothing is initialised
// lazily afterwards.
func NewMatch(cfg MatchConfig, log *zap.Logger) *Controller {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	log = log.With(zap.String("match", cfg.ID.String()))

	terrain, weather := cfg.Terrain, cfg.Weather
	terrain.Fit(cfg.Width, cfg.Height)
	weather.Fit(cfg.Width, cfg.Height)
	env := plan.Env{
		Self:    cfg.Self,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Terrain: terrain,
		Weather: weather,
		Rand:    rand.New(rand.NewSource(cfg.Seed)),
	}

	c := &Controller{
		id:       cfg.ID,
		tracker:  world.NewTracker(cfg.Self, cfg.Policy, log),
		queue:    queue.New[command.Command](),
		bus:      event.NewBus(),
		runner:   coresys.NewRunner[*Tick](),
		journal:  NewJournal(),
		lastTick: -1,
		log:      log,
	}
	c.planSys = NewPlanSystem(env, cfg.Planner, c.tracker, c.queue, c.bus, log)

	c.runner.Register(NewInputSystem(c.tracker, c.bus))
	c.runner.Register(c.planSys)
	c.runner.Register(NewDispatchSystem(c.queue, c.bus))
	c.runner.Register(NewReportSystem(c.bus))

	event.Subscribe(c.bus, func(e CommandEmitted) { c.journal.Record(e.Command) })
	c.subscribeLogging()

	log.Info("match created",
		zap.Int64("self", int64(cfg.Self)),
		zap.Int64("seed", cfg.Seed),
		zap.Float64("width", cfg.Width),
		zap.Float64("height", cfg.Height),
		zap.String("planner", plannerName(cfg.Planner)),
		zap.String("update_policy", cfg.Policy.String()),
	)
	return c
}

func plannerName(p plan.Planner) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}

func (c *Controller) subscribeLogging() {
	event.Subscribe(c.bus, func(e EntitiesReconciled) {
		if e.Stats == (world.ReconcileStats{}) {
			return
		}
		c.log.Debug("entities reconciled",
			zap.Int("tick", e.Tick),
			zap.Int("created", e.Stats.Created),
			zap.Int("updated", e.Stats.Updated),
			zap.Int("removed", e.Stats.Removed),
			zap.Int("ignored", e.Stats.Ignored),
			zap.Int("tracked", e.Tracked),
		)
	})
	event.Subscribe(c.bus, func(e PlanCommitted) {
		c.log.Info("plan committed",
			zap.Int("tick", e.Tick),
			zap.String("planner", e.Planner),
			zap.Int("commands", e.Commands),
			zap.Int("rejected", e.Rejected),
		)
	})
	event.Subscribe(c.bus, func(e PlanFailed) {
		c.log.Error("plan failed, match will idle",
			zap.Int("tick", e.Tick),
			zap.String("planner", e.Planner),
			zap.Int("discarded", e.Discarded),
			zap.Error(e.Err),
		)
	})
	event.Subscribe(c.bus, func(e CommandEmitted) {
		c.log.Debug("command emitted", zap.Int("tick", e.Tick), zap.Int("seq", e.Seq), zap.Object("command", e.Command))
	})
	event.Subscribe(c.bus, func(e PlanExhausted) {
		c.log.Info("plan exhausted", zap.Int("tick", e.Tick), zap.Int("emitted", e.Emitted))
	})
}

// Advance runs one tick and returns the command to send, if any. It never
// returns more than one command and returns none on the planning tick or
// while the host reports a cooldown.
func (c *Controller) Advance(snap model.Snapshot) (command.Command, bool) {
	if snap.Tick <= c.lastTick {
		c.log.Warn("tick did not advance", zap.Int("tick", snap.Tick), zap.Int("last", c.lastTick))
	}
	c.lastTick = snap.Tick

	t := &Tick{Snapshot: snap}
	c.runner.Tick(t)
	return t.out, t.emitted
}

func (c *Controller) ID() uuid.UUID { return c.id }

// Planned reports whether the one-time planning step has run.
func (c *Controller) Planned() bool { return c.planSys.Planned() }

// Pending is the number of queued commands not yet emitted.
func (c *Controller) Pending() int { return c.queue.Len() }

// Emitted is the number of commands handed out so far.
func (c *Controller) Emitted() int { return c.journal.Emitted() }

// Digest identifies the exact command sequence emitted so far.
func (c *Controller) Digest() []byte { return c.journal.Digest() }

func (c *Controller) DigestHex() string { return c.journal.DigestHex() }

// Tracker exposes the match's entity store for read-only queries.
func (c *Controller) Tracker() *world.Tracker { return c.tracker }

// OnEvent subscribes fn to one of the match's event types. Handlers run on
// the match goroutine at the end of each tick.
func OnEvent[T any](c *Controller, fn func(T)) {
	event.Subscribe(c.bus, fn)
}
