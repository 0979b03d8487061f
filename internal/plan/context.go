// Package plan turns the tracked world into the ordered command sequence the
// controller drains one tick at a time.
package plan

import (
	"math/rand"

	"github.com/vanguard/agent/internal/geom"
	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/world"
)

// Env is the static part of a match a planner may consult.
type Env struct {
	Self    model.PlayerID
	Width   float64
	Height  float64
	Terrain model.Grid[model.TerrainType]
	Weather model.Grid[model.WeatherType]
	Rand    *rand.Rand
}

type regionKey struct {
	own world.Ownership
	cat model.Category
}

// Context is what a planner sees during one planning cycle. Regions are
// computed on first use and then frozen for the rest of the cycle.
type Context struct {
	Env
	Tick int

	tracker *world.Tracker
	regions map[regionKey]geom.Region
}

func NewContext(env Env, tick int, tracker *world.Tracker) *Context {
	if env.Rand == nil {
		env.Rand = rand.New(rand.NewSource(0))
	}
	return &Context{Env: env, Tick: tick, tracker: tracker}
}

// Region returns the bounding region of the units with the given ownership
// and category. CategoryUnknown stands for every category. The full set is
// computed on the first call of the cycle.
func (c *Context) Region(own world.Ownership, cat model.Category) geom.Region {
	if c.regions == nil {
		c.computeRegions()
	}
	r, ok := c.regions[regionKey{own: own, cat: cat}]
	if !ok {
		return geom.None(cat)
	}
	return r
}

func (c *Context) computeRegions() {
	c.regions = make(map[regionKey]geom.Region, 3*(len(model.Categories)+1))
	for _, own := range [...]world.Ownership{world.Any, world.Ally, world.Enemy} {
		units := c.tracker.Query(own)
		byCat := make(map[model.Category][]world.Entity, len(model.Categories))
		for _, u := range units {
			byCat[u.Category] = append(byCat[u.Category], u)
		}
		for _, cat := range model.Categories {
			r := geom.BoundingRegion(byCat[cat])
			r.Category = cat
			c.regions[regionKey{own: own, cat: cat}] = r
		}
		c.regions[regionKey{own: own, cat: model.CategoryUnknown}] = geom.BoundingRegion(units)
	}
}

// RegionsComputed reports whether Region has been called this cycle.
func (c *Context) RegionsComputed() bool { return c.regions != nil }

// Units returns copies of the matching tracked units, ordered by id.
func (c *Context) Units(own world.Ownership, cats ...model.Category) []world.Entity {
	return c.tracker.Query(own, cats...)
}

// Near returns copies of the matching units within radius of (x, y).
func (c *Context) Near(x, y, radius float64, own world.Ownership) []world.Entity {
	return c.tracker.Near(x, y, radius, own)
}

// World is the region covering the whole map.
func (c *Context) World() geom.Region {
	return geom.Rect(0, 0, c.Width, c.Height, model.CategoryUnknown)
}

func (c *Context) TerrainAt(x, y float64) model.TerrainType { return c.Terrain.AtPos(x, y) }
func (c *Context) WeatherAt(x, y float64) model.WeatherType { return c.Weather.AtPos(x, y) }
