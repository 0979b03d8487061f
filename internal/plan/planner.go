package plan

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownPlanner is returned by Catalog.Lookup for unregistered names.
var ErrUnknownPlanner = errors.New("unknown planner")

// Planner stages the complete command plan for a match. It runs once, on
// the first observed tick.
type Planner interface {
	Name() string
	Plan(ctx *Context, b *Builder) error
}

// PlannerFunc adapts a function to Planner.
type PlannerFunc struct {
	ID string
	Fn func(ctx *Context, b *Builder) error
}

func (p PlannerFunc) Name() string                        { return p.ID }
func (p PlannerFunc) Plan(ctx *Context, b *Builder) error { return p.Fn(ctx, b) }

// Catalog is the set of planners a server can hand to new matches.
// Populated at startup, read-only afterwards.
type Catalog struct {
	planners map[string]Planner
}

func NewCatalog() *Catalog {
	return &Catalog{planners: make(map[string]Planner)}
}

// Register adds p. Names must be unique.
func (c *Catalog) Register(p Planner) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("register planner: empty name")
	}
	if _, dup := c.planners[name]; dup {
		return fmt.Errorf("register planner %q: already registered", name)
	}
	c.planners[name] = p
	return nil
}

func (c *Catalog) Lookup(name string) (Planner, error) {
	p, ok := c.planners[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlanner, name)
	}
	return p, nil
}

// Names lists registered planners alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.planners))
	for name := range c.planners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
