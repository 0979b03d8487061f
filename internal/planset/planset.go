// Package planset assembles the planner catalog from every source the agent
// knows: compiled-in planners, YAML plan files and Lua scripts.
package planset

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/config"
	"github.com/vanguard/agent/internal/data"
	"github.com/vanguard/agent/internal/plan"
	"github.com/vanguard/agent/internal/scripting"
)

// Counts reports how many planners each source contributed.
type Counts struct {
	Builtin int
	YAML    int
	Lua     int
}

// Set is a loaded catalog plus the Lua engine backing its scripted entries.
type Set struct {
	Catalog *plan.Catalog
	Counts  Counts
	engine  *scripting.Engine
}

// Load builds the catalog. A name defined by two sources is an error.
func Load(cfg config.PlanConfig, log *zap.Logger) (*Set, error) {
	s := &Set{Catalog: plan.NewCatalog()}

	for _, p := range plan.Builtins() {
		if err := s.Catalog.Register(p); err != nil {
			return nil, err
		}
		s.Counts.Builtin++
	}

	defs, err := data.LoadPlanDir(cfg.YAMLDir)
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		if err := s.Catalog.Register(d.Planner()); err != nil {
			return nil, fmt.Errorf("yaml plans: %w", err)
		}
		s.Counts.YAML++
	}

	s.engine, err = scripting.NewEngine(cfg.ScriptDir, log.Named("lua"))
	if err != nil {
		return nil, err
	}
	for _, p := range s.engine.Planners() {
		if err := s.Catalog.Register(p); err != nil {
			s.engine.Close()
			return nil, fmt.Errorf("lua plans: %w", err)
		}
		s.Counts.Lua++
	}
	return s, nil
}

// Close releases the Lua VM.
func (s *Set) Close() {
	if s.engine != nil {
		s.engine.Close()
	}
}
