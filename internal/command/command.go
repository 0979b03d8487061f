// Package command defines the closed vocabulary of orders the agent can send
// to the host, one per tick.
package command

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap/zapcore"

	"github.com/vanguard/agent/internal/geom"
	"github.com/vanguard/agent/internal/model"
)

// Kind discriminates the command variants.
type Kind uint8

const (
	KindNone Kind = iota
	KindSelectRegion
	KindSelectCategory
	KindAddToSelection
	KindAssignGroup
	KindSelectGroup
	KindMove
	KindRotate
	KindScale
	KindStrike
)

// MaxGroup is the highest control group number the host accepts.
const MaxGroup = 100

var kindNames = [...]string{
	KindNone:           "none",
	KindSelectRegion:   "select_region",
	KindSelectCategory: "select_category",
	KindAddToSelection: "add_to_selection",
	KindAssignGroup:    "assign_group",
	KindSelectGroup:    "select_group",
	KindMove:           "move",
	KindRotate:         "rotate",
	KindScale:          "scale",
	KindStrike:         "strike",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind resolves the snake_case name used in plan files.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s && Kind(i) != KindNone {
			return Kind(i), nil
		}
	}
	return KindNone, fmt.Errorf("unknown command kind %q", s)
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid command")

// Command is one order. Only the fields relevant to Kind are meaningful:
//
//	select_region, add_to_selection: Bounds (Category optional filter)
//	select_category:                 Bounds, Category
//	assign_group, select_group:      Group
//	move:                            X, Y as offset
//	rotate:                          X, Y as pivot, Angle in radians
//	scale:                           X, Y as pivot, Factor
//	strike:                          Target (spotting unit), X, Y as aim point
type Command struct {
	Kind     Kind
	Bounds   geom.Region
	Category model.Category
	Group    int
	X        float64
	Y        float64
	Angle    float64
	Factor   float64
	Target   model.EntityID
}

// SelectRegion clears the selection and selects every own unit inside r.
// ok is false when r is empty, so a sentinel region never becomes an order.
func SelectRegion(r geom.Region) (cmd Command, ok bool) {
	if r.Empty() {
		return Command{}, false
	}
	return Command{Kind: KindSelectRegion, Bounds: r, Category: r.Category}, true
}

// SelectCategory clears the selection and selects own units of cat inside r.
func SelectCategory(cat model.Category, r geom.Region) (cmd Command, ok bool) {
	if r.Empty() || !cat.Valid() {
		return Command{}, false
	}
	r.Category = cat
	return Command{Kind: KindSelectCategory, Bounds: r, Category: cat}, true
}

// AddToSelection extends the current selection with own units inside r.
func AddToSelection(r geom.Region) (cmd Command, ok bool) {
	if r.Empty() {
		return Command{}, false
	}
	return Command{Kind: KindAddToSelection, Bounds: r, Category: r.Category}, true
}

func AssignGroup(group int) Command {
	return Command{Kind: KindAssignGroup, Group: group}
}

func SelectGroup(group int) Command {
	return Command{Kind: KindSelectGroup, Group: group}
}

// Move shifts the selection by (dx, dy).
func Move(dx, dy float64) Command {
	return Command{Kind: KindMove, X: dx, Y: dy}
}

// Rotate turns the selection by angle radians around (x, y).
func Rotate(x, y, angle float64) Command {
	return Command{Kind: KindRotate, X: x, Y: y, Angle: angle}
}

// Scale spreads (factor > 1) or gathers (factor < 1) the selection around (x, y).
func Scale(x, y, factor float64) Command {
	return Command{Kind: KindScale, X: x, Y: y, Factor: factor}
}

// Strike calls a strike on (x, y) spotted by the given unit.
func Strike(spotter model.EntityID, x, y float64) Command {
	return Command{Kind: KindStrike, Target: spotter, X: x, Y: y}
}

// Validate reports whether the host would accept the command as built.
func (c Command) Validate() error {
	switch c.Kind {
	case KindSelectRegion, KindAddToSelection:
		return c.validateBounds()
	case KindSelectCategory:
		if !c.Category.Valid() {
			return fmt.Errorf("%w: %s needs a category", ErrInvalid, c.Kind)
		}
		return c.validateBounds()
	case KindAssignGroup, KindSelectGroup:
		if c.Group < 1 || c.Group > MaxGroup {
			return fmt.Errorf("%w: group %d out of range 1..%d", ErrInvalid, c.Group, MaxGroup)
		}
	case KindMove:
		return finite(c.Kind, c.X, c.Y)
	case KindRotate:
		return finite(c.Kind, c.X, c.Y, c.Angle)
	case KindScale:
		if err := finite(c.Kind, c.X, c.Y, c.Factor); err != nil {
			return err
		}
		if c.Factor <= 0 {
			return fmt.Errorf("%w: scale factor %v must be positive", ErrInvalid, c.Factor)
		}
	case KindStrike:
		if c.Target <= 0 {
			return fmt.Errorf("%w: strike needs a spotting unit", ErrInvalid)
		}
		return finite(c.Kind, c.X, c.Y)
	default:
		return fmt.Errorf("%w: kind %s", ErrInvalid, c.Kind)
	}
	return nil
}

func (c Command) validateBounds() error {
	if c.Bounds.Empty() {
		return fmt.Errorf("%w: %s over an empty region", ErrInvalid, c.Kind)
	}
	if !c.Bounds.Finite() {
		return fmt.Errorf("%w: %s region is not finite", ErrInvalid, c.Kind)
	}
	return nil
}

func finite(k Kind, vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s parameter %v", ErrInvalid, k, v)
		}
	}
	return nil
}

func (c Command) String() string {
	switch c.Kind {
	case KindSelectRegion, KindAddToSelection, KindSelectCategory:
		return fmt.Sprintf("%s %s", c.Kind, c.Bounds)
	case KindAssignGroup, KindSelectGroup:
		return fmt.Sprintf("%s %d", c.Kind, c.Group)
	case KindMove:
		return fmt.Sprintf("move %+.1f,%+.1f", c.X, c.Y)
	case KindRotate:
		return fmt.Sprintf("rotate %.3frad @%.1f,%.1f", c.Angle, c.X, c.Y)
	case KindScale:
		return fmt.Sprintf("scale x%.2f @%.1f,%.1f", c.Factor, c.X, c.Y)
	case KindStrike:
		return fmt.Sprintf("strike @%.1f,%.1f by %d", c.X, c.Y, c.Target)
	}
	return c.Kind.String()
}

// MarshalLogObject lets commands be logged with zap.Object.
func (c Command) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("kind", c.Kind.String())
	switch c.Kind {
	case KindSelectRegion, KindAddToSelection, KindSelectCategory:
		enc.AddString("category", c.Category.String())
		enc.AddFloat64("left", c.Bounds.Left)
		enc.AddFloat64("top", c.Bounds.Top)
		enc.AddFloat64("right", c.Bounds.Right)
		enc.AddFloat64("bottom", c.Bounds.Bottom)
	case KindAssignGroup, KindSelectGroup:
		enc.AddInt("group", c.Group)
	case KindMove:
		enc.AddFloat64("dx", c.X)
		enc.AddFloat64("dy", c.Y)
	case KindRotate:
		enc.AddFloat64("x", c.X)
		enc.AddFloat64("y", c.Y)
		enc.AddFloat64("angle", c.Angle)
	case KindScale:
		enc.AddFloat64("x", c.X)
		enc.AddFloat64("y", c.Y)
		enc.AddFloat64("factor", c.Factor)
	case KindStrike:
		enc.AddInt64("spotter", int64(c.Target))
		enc.AddFloat64("x", c.X)
		enc.AddFloat64("y", c.Y)
	}
	return nil
}
