package data

import (
	"math"

	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/geom"
	"github.com/vanguard/agent/internal/plan"
	"github.com/vanguard/agent/internal/world"
)

// Planner adapts d to plan.Planner.
func (d *PlanDef) Planner() plan.Planner { return declarative{def: d} }

type declarative struct {
	def *PlanDef
}

func (p declarative) Name() string { return p.def.Name }

// Plan stages the steps in order. A selection whose region turns out empty
// is skipped together with every following non-selection step, up to the
// next selection that succeeds.
func (p declarative) Plan(ctx *plan.Context, b *plan.Builder) error {
	skipping := false
	var selected geom.Region
	for i := range p.def.Steps {
		s := &p.def.Steps[i]
		switch s.kind {
		case command.KindSelectRegion, command.KindSelectCategory, command.KindAddToSelection:
			r := s.region(ctx)
			cmd, ok := s.selection(ctx, r)
			if !b.AddIf(cmd, ok, s.Priority) {
				if s.kind != command.KindAddToSelection {
					skipping = true
				}
				continue
			}
			skipping = false
			selected = r
		default:
			if skipping {
				continue
			}
			if cmd, ok := s.command(ctx, selected); ok {
				b.Add(cmd, s.Priority)
			}
		}
	}
	return nil
}

func (s *PlanStep) selection(ctx *plan.Context, r geom.Region) (command.Command, bool) {
	switch s.kind {
	case command.KindSelectRegion:
		return command.SelectRegion(r)
	case command.KindAddToSelection:
		return command.AddToSelection(r)
	}
	if r.Empty() {
		return command.Command{}, false
	}
	if s.Area == "world" {
		r = ctx.World()
	}
	return command.SelectCategory(s.category, r)
}

// region is the bounding box the step refers to, frozen for the cycle.
func (s *PlanStep) region(ctx *plan.Context) geom.Region {
	r := ctx.Region(s.owner, s.category)
	if s.half != nil {
		r = geom.SplitVertical(r, *s.half)
	}
	return r
}

func (s *PlanStep) command(ctx *plan.Context, selected geom.Region) (command.Command, bool) {
	switch s.kind {
	case command.KindAssignGroup:
		return command.AssignGroup(s.Group), true
	case command.KindSelectGroup:
		return command.SelectGroup(s.Group), true
	case command.KindMove:
		return command.Move(s.Dx+s.DxFrac*ctx.Width, s.Dy+s.DyFrac*ctx.Height), true
	case command.KindRotate:
		x, y := s.pivot(ctx, selected)
		return command.Rotate(x, y, s.Angle), true
	case command.KindScale:
		x, y := s.pivot(ctx, selected)
		return command.Scale(x, y, s.Factor), true
	case command.KindStrike:
		target := s.region(ctx)
		if target.Empty() {
			return command.Command{}, false
		}
		x, y := target.Center()
		spotter, ok := nearest(ctx.Units(world.Ally), x, y)
		if !ok {
			return command.Command{}, false
		}
		return command.Strike(spotter.ID, x, y), true
	}
	return command.Command{}, false
}

func (s *PlanStep) pivot(ctx *plan.Context, selected geom.Region) (float64, float64) {
	switch s.Pivot {
	case "point":
		return s.X, s.Y
	case "world":
		return ctx.World().Center()
	}
	if selected.Empty() {
		return ctx.World().Center()
	}
	return selected.Center()
}

func nearest(units []world.Entity, x, y float64) (world.Entity, bool) {
	best, bestD := world.Entity{}, math.Inf(1)
	for _, u := range units {
		dx, dy := u.X-x, u.Y-y
		if d := dx*dx + dy*dy; d < bestD {
			best, bestD = u, d
		}
	}
	return best, !math.IsInf(bestD, 1)
}
