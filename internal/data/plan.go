package data

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/geom"
	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/world"
)

//go:embed plan.schema.json
var planSchemaSource string

var planSchema = jsonschema.MustCompileString("plan.schema.json", planSchemaSource)

// PlanStep is one line of a declarative plan. Which fields apply depends on
// Action:
//   - select_region, add_to_selection: Owner + Category pick a bounding
//     region, optionally cut to Half
//   - select_category: Category inside the same region, or the whole map
//     when Area is "world"
//   - assign_group, select_group: Group
//   - move: Dx/Dy in world units plus DxFrac/DyFrac of the map size
//   - rotate, scale: Angle or Factor around Pivot
//   - strike: aim at the centre of the Owner (default enemy) + Category
//     region, spotted by the nearest allied unit
type PlanStep struct {
	Action   string  `yaml:"action"`
	Priority int     `yaml:"priority"`
	Category string  `yaml:"category"`
	Owner    string  `yaml:"owner"`
	Area     string  `yaml:"area"`
	Half     string  `yaml:"half"`
	Group    int     `yaml:"group"`
	Dx       float64 `yaml:"dx"`
	Dy       float64 `yaml:"dy"`
	DxFrac   float64 `yaml:"dx_frac"`
	DyFrac   float64 `yaml:"dy_frac"`
	Pivot    string  `yaml:"pivot"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Angle    float64 `yaml:"angle"`
	Factor   float64 `yaml:"factor"`

	kind     command.Kind
	category model.Category
	owner    world.Ownership
	half     *geom.Side
}

// PlanDef is a named, ordered list of steps.
type PlanDef struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Steps       []PlanStep `yaml:"steps"`
}

type planFile struct {
	Plans []PlanDef `yaml:"plans"`
}

// LoadPlans reads and validates one plan file.
func LoadPlans(path string) ([]*PlanDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plan: read %s: %w", path, err)
	}
	defs, err := ParsePlans(raw)
	if err != nil {
		return nil, fmt.Errorf("plan: %s: %w", path, err)
	}
	return defs, nil
}

// ParsePlans validates raw YAML against the plan schema and resolves every
// step's enumerations.
func ParsePlans(raw []byte) ([]*PlanDef, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	// The schema validator wants JSON-shaped values.
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	var generic any
	if err := json.Unmarshal(js, &generic); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if err := planSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var f planFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defs := make([]*PlanDef, 0, len(f.Plans))
	for i := range f.Plans {
		d := &f.Plans[i]
		for j := range d.Steps {
			if err := d.Steps[j].resolve(); err != nil {
				return nil, fmt.Errorf("plan %q step %d: %w", d.Name, j+1, err)
			}
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func (s *PlanStep) resolve() error {
	var err error
	if s.kind, err = command.ParseKind(s.Action); err != nil {
		return err
	}
	if s.Category != "" && s.Category != "any" {
		if s.category, err = model.ParseCategory(s.Category); err != nil {
			return err
		}
	}
	if s.kind == command.KindSelectCategory && !s.category.Valid() {
		return fmt.Errorf("select_category needs a concrete category")
	}
	owner := s.Owner
	if owner == "" {
		owner = "ally"
		if s.kind == command.KindStrike {
			owner = "enemy"
		}
	}
	if s.owner, err = world.ParseOwnership(owner); err != nil {
		return err
	}
	if s.Half != "" {
		side, err := geom.ParseSide(s.Half)
		if err != nil {
			return err
		}
		s.half = &side
	}
	return nil
}

// LoadPlanDir loads every *.yaml file in dir, in name order. A missing
// directory yields no plans.
func LoadPlanDir(dir string) ([]*PlanDef, error) {
	if dir == "" {
		return nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("plan: glob %s: %w", dir, err)
	}
	sort.Strings(paths)
	var all []*PlanDef
	seen := make(map[string]string)
	for _, p := range paths {
		defs, err := LoadPlans(p)
		if err != nil {
			return nil, err
		}
		for _, d := range defs {
			if prev, dup := seen[d.Name]; dup {
				return nil, fmt.Errorf("plan: %q defined in both %s and %s", d.Name, prev, p)
			}
			seen[d.Name] = p
			all = append(all, d)
		}
	}
	return all, nil
}
