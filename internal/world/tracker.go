package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/core/ecs"
	"github.com/vanguard/agent/internal/model"
)

// Ownership filters tracked units relative to the acting player.
type Ownership uint8

const (
	Any   Ownership = iota
	Ally            // owned by the acting player
	Enemy           // owned by anyone else
)

func (o Ownership) String() string {
	switch o {
	case Ally:
		return "ally"
	case Enemy:
		return "enemy"
	default:
		return "any"
	}
}

// ParseOwnership accepts "any", "ally" or "enemy".
func ParseOwnership(s string) (Ownership, error) {
	switch s {
	case "any", "":
		return Any, nil
	case "ally":
		return Ally, nil
	case "enemy":
		return Enemy, nil
	}
	return Any, fmt.Errorf("unknown ownership %q", s)
}

// UpdatePolicy decides what happens to an update for a unit the tracker has
// never seen created.
type UpdatePolicy uint8

const (
	// CreateIfAbsent records the unit with unknown owner and category.
	CreateIfAbsent UpdatePolicy = iota
	// DropUnknown ignores the update.
	DropUnknown
)

func (p UpdatePolicy) String() string {
	if p == DropUnknown {
		return "drop"
	}
	return "create"
}

// ParseUpdatePolicy accepts "create" or "drop".
func ParseUpdatePolicy(s string) (UpdatePolicy, error) {
	switch s {
	case "create", "":
		return CreateIfAbsent, nil
	case "drop":
		return DropUnknown, nil
	}
	return CreateIfAbsent, fmt.Errorf("unknown update policy %q", s)
}

// Entity is a read-only copy of a tracked unit.
type Entity struct {
	ID        model.EntityID
	Owner     model.PlayerID
	Category  model.Category
	X         float64
	Y         float64
	Vitality  int
	UpdatedAt int // tick of the last creation or update
}

func (e Entity) Position() (float64, float64) { return e.X, e.Y }
func (e Entity) Kind() model.Category         { return e.Category }

// unit and stamp are the two component stores behind the tracker.
type unit struct {
	Owner    model.PlayerID
	Category model.Category
	X        float64
	Y        float64
	Vitality int
}

type stamp struct {
	Tick int
}

// ReconcileStats counts what a Reconcile call changed.
type ReconcileStats struct {
	Created int
	Updated int
	Removed int
	Ignored int // updates for unknown units dropped by policy or already absent on removal
}

// Tracker is the entity store: the only owner of unit state for one match.
// Accessed only from the match goroutine, no locks.
type Tracker struct {
	self     model.PlayerID
	policy   UpdatePolicy
	units    *ecs.PtrComponentStore[model.EntityID, unit]
	stamps   *ecs.PtrComponentStore[model.EntityID, stamp]
	registry *ecs.Registry[model.EntityID]
	cells    *CellIndex
	log      *zap.Logger
}

func NewTracker(self model.PlayerID, policy UpdatePolicy, log *zap.Logger) *Tracker {
	t := &Tracker{
		self:     self,
		policy:   policy,
		units:    ecs.NewPtrComponentStore[model.EntityID, unit](),
		stamps:   ecs.NewPtrComponentStore[model.EntityID, stamp](),
		registry: ecs.NewRegistry[model.EntityID](),
		cells:    NewCellIndex(),
		log:      log,
	}
	t.registry.Register(t.units)
	t.registry.Register(t.stamps)
	return t
}

// Self is the acting player's id.
func (t *Tracker) Self() model.PlayerID { return t.self }

// Reconcile applies one tick of creation and update deltas.
func (t *Tracker) Reconcile(created []model.NewUnit, updates []model.UnitUpdate, tick int) ReconcileStats {
	var st ReconcileStats

	for _, nu := range created {
		if old, ok := t.units.Get(nu.ID); ok {
			t.cells.Remove(nu.ID, old.X, old.Y)
		}
		t.units.Set(nu.ID, &unit{
			Owner:    nu.Owner,
			Category: nu.Category,
			X:        nu.X,
			Y:        nu.Y,
			Vitality: nu.Vitality,
		})
		t.stamps.Set(nu.ID, &stamp{Tick: tick})
		t.cells.Add(nu.ID, nu.X, nu.Y)
		st.Created++
	}

	for _, up := range updates {
		u, known := t.units.Get(up.ID)

		if up.Vitality == 0 {
			if !known {
				t.log.Debug("removal for untracked unit", zap.Int64("unit", int64(up.ID)), zap.Int("tick", tick))
				st.Ignored++
				continue
			}
			t.cells.Remove(up.ID, u.X, u.Y)
			t.registry.RemoveAll(up.ID)
			st.Removed++
			continue
		}

		if !known {
			if t.policy == DropUnknown {
				t.log.Debug("update for untracked unit dropped", zap.Int64("unit", int64(up.ID)), zap.Int("tick", tick))
				st.Ignored++
				continue
			}
			u = &unit{Owner: model.OwnerUnknown, Category: model.CategoryUnknown, X: up.X, Y: up.Y}
			t.units.Set(up.ID, u)
			t.cells.Add(up.ID, up.X, up.Y)
			st.Created++
		} else {
			t.cells.Move(up.ID, u.X, u.Y, up.X, up.Y)
			st.Updated++
		}
		u.X = up.X
		u.Y = up.Y
		u.Vitality = up.Vitality
		t.stamps.Set(up.ID, &stamp{Tick: tick})
	}

	return st
}

func (t *Tracker) matches(u *unit, own Ownership) bool {
	switch own {
	case Ally:
		return u.Owner == t.self
	case Enemy:
		// implicit units have no known owner and are never counted as hostile
		return u.Owner != t.self && u.Owner != model.OwnerUnknown
	default:
		return true
	}
}

// Query returns copies of the units matching the ownership filter and, when
// any categories are given, one of those categories. Results are ordered by
// id, so calls between two Reconciles return identical slices.
func (t *Tracker) Query(own Ownership, cats ...model.Category) []Entity {
	var out []Entity
	ecs.Sorted2(t.units, t.stamps, func(id model.EntityID, u *unit, s *stamp) {
		if !t.matches(u, own) {
			return
		}
		if len(cats) > 0 && !containsCategory(cats, u.Category) {
			return
		}
		out = append(out, toEntity(id, u, s))
	})
	return out
}

// Near returns the matching units within radius of (x, y), ordered by id.
func (t *Tracker) Near(x, y, radius float64, own Ownership) []Entity {
	var out []Entity
	for _, id := range t.cells.Nearby(x, y, radius) {
		u, ok := t.units.Get(id)
		if !ok || !t.matches(u, own) {
			continue
		}
		dx, dy := u.X-x, u.Y-y
		if !(dx*dx+dy*dy <= radius*radius) { // also rejects NaN positions
			continue
		}
		s, _ := t.stamps.Get(id)
		out = append(out, toEntity(id, u, s))
	}
	return out
}

// Get returns a copy of a single unit.
func (t *Tracker) Get(id model.EntityID) (Entity, bool) {
	u, ok := t.units.Get(id)
	if !ok {
		return Entity{}, false
	}
	s, _ := t.stamps.Get(id)
	return toEntity(id, u, s), true
}

// Len is the number of tracked units.
func (t *Tracker) Len() int { return t.units.Len() }

func toEntity(id model.EntityID, u *unit, s *stamp) Entity {
	e := Entity{
		ID:       id,
		Owner:    u.Owner,
		Category: u.Category,
		X:        u.X,
		Y:        u.Y,
		Vitality: u.Vitality,
	}
	if s != nil {
		e.UpdatedAt = s.Tick
	}
	return e
}

func containsCategory(cats []model.Category, c model.Category) bool {
	for _, want := range cats {
		if want == c {
			return true
		}
	}
	return false
}
