// plancheck runs a planner offline against a scenario file and prints the
// commands it would send, one per tick, followed by the match digest.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vanguard/agent/internal/agent"
	"github.com/vanguard/agent/internal/config"
	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/planset"
	"github.com/vanguard/agent/internal/world"
)

type Scenario struct {
	Planner  string         `yaml:"planner"`
	Self     model.PlayerID `yaml:"self"`
	Seed     int64          `yaml:"seed"`
	Width    float64        `yaml:"width"`
	Height   float64        `yaml:"height"`
	Cooldown int            `yaml:"cooldown"`
	Ticks    int            `yaml:"ticks"`
	Units    []ScenarioUnit `yaml:"units"`
}

type ScenarioUnit struct {
	ID       model.EntityID `yaml:"id"`
	Owner    model.PlayerID `yaml:"owner"`
	Category model.Category `yaml:"category"`
	X        float64        `yaml:"x"`
	Y        float64        `yaml:"y"`
	Vitality int            `yaml:"vitality"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: plancheck <scenario.yaml> [config.toml]")
		os.Exit(1)
	}
	cfgPath := config.Path("config/vanguard.toml")
	if len(os.Args) > 2 {
		cfgPath = os.Args[2]
	}
	if err := run(os.Args[1], cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(scenarioPath, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	raw, err := os.ReadFile(scenarioPath)
	if err != nil {
		return err
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return fmt.Errorf("parse %s: %w", scenarioPath, err)
	}
	if sc.Planner == "" {
		sc.Planner = cfg.Agent.Planner
	}
	if sc.Ticks <= 0 {
		sc.Ticks = 20
	}

	plans, err := planset.Load(cfg.Plan, zap.NewNop())
	if err != nil {
		return err
	}
	defer plans.Close()
	p, err := plans.Catalog.Lookup(sc.Planner)
	if err != nil {
		return err
	}
	policy, err := world.ParseUpdatePolicy(cfg.Agent.UpdatePolicy)
	if err != nil {
		return err
	}

	match := agent.NewMatch(agent.MatchConfig{
		Self:    sc.Self,
		Seed:    sc.Seed,
		Width:   sc.Width,
		Height:  sc.Height,
		Policy:  policy,
		Planner: p,
	}, zap.NewNop())

	created := make([]model.NewUnit, 0, len(sc.Units))
	for _, u := range sc.Units {
		if u.Vitality == 0 {
			u.Vitality = 100
		}
		created = append(created, model.NewUnit(u))
	}

	fmt.Printf("planner %s · %d units · %d ticks\n", sc.Planner, len(created), sc.Ticks)
	cooldown := 0
	for tick := 0; tick < sc.Ticks; tick++ {
		snap := model.Snapshot{Tick: tick, Cooldown: cooldown}
		if tick == 0 {
			snap.NewUnits = created
		}
		if cmd, ok := match.Advance(snap); ok {
			fmt.Printf("%5d  %s\n", tick, cmd)
			cooldown = sc.Cooldown // host restarts its cooldown after each accepted command
		} else if cooldown > 0 {
			cooldown--
		}
	}
	fmt.Printf("emitted %d, pending %d\n", match.Emitted(), match.Pending())
	fmt.Printf("digest %s\n", match.DigestHex())
	return nil
}
