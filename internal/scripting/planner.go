package scripting

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/geom"
	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/plan"
	"github.com/vanguard/agent/internal/world"
)

// scriptPlanner runs a function registered with register_plan. The function
// receives a ctx table; commands are staged through its methods:
//
//	ctx.region(owner, category)     -> region table
//	ctx.half(region, "left"|"right") -> region table
//	ctx.select_region(region), ctx.add_to_selection(region)
//	ctx.select_category(category [, region])
//	ctx.assign_group(n), ctx.select_group(n)
//	ctx.move(dx, dy), ctx.rotate(x, y, angle), ctx.scale(x, y, factor)
//	ctx.strike(spotter_id, x, y)
//	ctx.set_priority(n)
//	ctx.random(), ctx.terrain_at(x, y), ctx.weather_at(x, y)
//	ctx.preferred_targets(category), ctx.units_near(x, y, radius [, owner])
type scriptPlanner struct {
	engine *Engine
	name   string
}

func (p *scriptPlanner) Name() string { return p.name }

func (p *scriptPlanner) Plan(ctx *plan.Context, b *plan.Builder) error {
	e := p.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, ok := e.plans[p.name]
	if !ok {
		return fmt.Errorf("lua plan %q: %w", p.name, plan.ErrUnknownPlanner)
	}

	s := &session{ctx: ctx, b: b, log: e.log.With(zap.String("plan", p.name))}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, s.table(e.vm)); err != nil {
		return fmt.Errorf("lua plan %q: %w", p.name, err)
	}
	s.log.Debug("lua plan staged", zap.Int("commands", b.Len()))
	return nil
}

// session binds one planning call to the ctx table handed to Lua.
type session struct {
	ctx      *plan.Context
	b        *plan.Builder
	priority int
	log      *zap.Logger
}

func (s *session) table(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("tick", lua.LNumber(s.ctx.Tick))
	t.RawSetString("self", lua.LNumber(s.ctx.Self))
	t.RawSetString("width", lua.LNumber(s.ctx.Width))
	t.RawSetString("height", lua.LNumber(s.ctx.Height))

	fns := map[string]lua.LGFunction{
		"region":            s.region,
		"world":             s.world,
		"half":              s.half,
		"select_region":     s.selectRegion,
		"add_to_selection":  s.addToSelection,
		"select_category":   s.selectCategory,
		"assign_group":      s.assignGroup,
		"select_group":      s.selectGroup,
		"move":              s.move,
		"rotate":            s.rotate,
		"scale":             s.scale,
		"strike":            s.strike,
		"set_priority":      s.setPriority,
		"random":            s.random,
		"terrain_at":        s.terrainAt,
		"weather_at":        s.weatherAt,
		"preferred_targets": s.preferredTargets,
		"units_near":        s.unitsNear,
	}
	for name, fn := range fns {
		t.RawSetString(name, L.NewFunction(fn))
	}
	return t
}

func regionTable(L *lua.LState, r geom.Region) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("left", lua.LNumber(r.Left))
	t.RawSetString("top", lua.LNumber(r.Top))
	t.RawSetString("right", lua.LNumber(r.Right))
	t.RawSetString("bottom", lua.LNumber(r.Bottom))
	t.RawSetString("category", lua.LString(r.Category.String()))
	t.RawSetString("empty", lBool(r.Empty()))
	if !r.Empty() {
		cx, cy := r.Center()
		t.RawSetString("cx", lua.LNumber(cx))
		t.RawSetString("cy", lua.LNumber(cy))
	}
	return t
}

func checkRegion(L *lua.LState, n int) geom.Region {
	t := L.CheckTable(n)
	cat, _ := model.ParseCategory(lStr(t, "category"))
	if lua.LVAsBool(t.RawGetString("empty")) {
		return geom.None(cat)
	}
	return geom.Rect(lNum(t, "left"), lNum(t, "top"), lNum(t, "right"), lNum(t, "bottom"), cat)
}

func checkCategory(L *lua.LState, n int) model.Category {
	name := L.CheckString(n)
	if name == "any" {
		return model.CategoryUnknown
	}
	cat, err := model.ParseCategory(name)
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return cat
}

func optOwnership(L *lua.LState, n int, def world.Ownership) world.Ownership {
	if L.Get(n) == lua.LNil {
		return def
	}
	own, err := world.ParseOwnership(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return own
}

func (s *session) stage(L *lua.LState, cmd command.Command, ok bool) int {
	L.Push(lBool(s.b.AddIf(cmd, ok, s.priority)))
	return 1
}

// region(owner, category)
func (s *session) region(L *lua.LState) int {
	own := optOwnership(L, 1, world.Ally)
	cat := checkCategory(L, 2)
	L.Push(regionTable(L, s.ctx.Region(own, cat)))
	return 1
}

func (s *session) world(L *lua.LState) int {
	L.Push(regionTable(L, s.ctx.World()))
	return 1
}

// half(region, side)
func (s *session) half(L *lua.LState) int {
	r := checkRegion(L, 1)
	side, err := geom.ParseSide(L.CheckString(2))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	L.Push(regionTable(L, geom.SplitVertical(r, side)))
	return 1
}

func (s *session) selectRegion(L *lua.LState) int {
	cmd, ok := command.SelectRegion(checkRegion(L, 1))
	return s.stage(L, cmd, ok)
}

func (s *session) addToSelection(L *lua.LState) int {
	cmd, ok := command.AddToSelection(checkRegion(L, 1))
	return s.stage(L, cmd, ok)
}

// select_category(category [, region])
func (s *session) selectCategory(L *lua.LState) int {
	cat := checkCategory(L, 1)
	r := s.ctx.World()
	if L.GetTop() >= 2 {
		r = checkRegion(L, 2)
	}
	cmd, ok := command.SelectCategory(cat, r)
	return s.stage(L, cmd, ok)
}

func (s *session) assignGroup(L *lua.LState) int {
	return s.stage(L, command.AssignGroup(L.CheckInt(1)), true)
}

func (s *session) selectGroup(L *lua.LState) int {
	return s.stage(L, command.SelectGroup(L.CheckInt(1)), true)
}

func (s *session) move(L *lua.LState) int {
	dx, dy := float64(L.CheckNumber(1)), float64(L.CheckNumber(2))
	return s.stage(L, command.Move(dx, dy), true)
}

func (s *session) rotate(L *lua.LState) int {
	x, y, a := float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
	return s.stage(L, command.Rotate(x, y, a), true)
}

func (s *session) scale(L *lua.LState) int {
	x, y, f := float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
	return s.stage(L, command.Scale(x, y, f), true)
}

func (s *session) strike(L *lua.LState) int {
	id := model.EntityID(L.CheckInt64(1))
	x, y := float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
	return s.stage(L, command.Strike(id, x, y), true)
}

func (s *session) setPriority(L *lua.LState) int {
	s.priority = L.CheckInt(1)
	return 0
}

// random() -> [0, 1) from the match's seeded source
func (s *session) random(L *lua.LState) int {
	L.Push(lua.LNumber(s.ctx.Rand.Float64()))
	return 1
}

func (s *session) terrainAt(L *lua.LState) int {
	L.Push(lua.LNumber(s.ctx.TerrainAt(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))))
	return 1
}

func (s *session) weatherAt(L *lua.LState) int {
	L.Push(lua.LNumber(s.ctx.WeatherAt(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))))
	return 1
}

func (s *session) preferredTargets(L *lua.LState) int {
	cat := checkCategory(L, 1)
	t := L.NewTable()
	for i, c := range model.PreferredTargets[cat] {
		t.RawSetInt(i+1, lua.LString(c.String()))
	}
	L.Push(t)
	return 1
}

// units_near(x, y, radius [, owner]) -> array of unit tables, by id
func (s *session) unitsNear(L *lua.LState) int {
	x, y := float64(L.CheckNumber(1)), float64(L.CheckNumber(2))
	radius := float64(L.CheckNumber(3))
	if math.IsNaN(radius) {
		L.ArgError(3, "radius is NaN")
	}
	own := optOwnership(L, 4, world.Any)
	t := L.NewTable()
	for i, u := range s.ctx.Near(x, y, radius, own) {
		row := L.NewTable()
		row.RawSetString("id", lua.LNumber(u.ID))
		row.RawSetString("owner", lua.LNumber(u.Owner))
		row.RawSetString("category", lua.LString(u.Category.String()))
		row.RawSetString("x", lua.LNumber(u.X))
		row.RawSetString("y", lua.LNumber(u.Y))
		row.RawSetString("vitality", lua.LNumber(u.Vitality))
		t.RawSetInt(i+1, row)
	}
	L.Push(t)
	return 1
}
