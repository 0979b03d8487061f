// Package geom computes axis-aligned bounding regions over unit positions.
package geom

import (
	"fmt"
	"math"

	"github.com/vanguard/agent/internal/model"
)

// Located is anything with a position and a category.
type Located interface {
	Position() (x, y float64)
	Kind() model.Category
}

// Region is an axis-aligned box. Top is the smaller y (screen coordinates).
type Region struct {
	Left     float64
	Top      float64
	Right    float64
	Bottom   float64
	Category model.Category
}

// None is the region of an empty set: extents are inverted so it contains
// nothing and Empty reports true.
func None(cat model.Category) Region {
	return Region{
		Left:     math.Inf(1),
		Top:      math.Inf(1),
		Right:    math.Inf(-1),
		Bottom:   math.Inf(-1),
		Category: cat,
	}
}

// Rect builds a region from explicit extents.
func Rect(left, top, right, bottom float64, cat model.Category) Region {
	return Region{Left: left, Top: top, Right: right, Bottom: bottom, Category: cat}
}

// BoundingRegion returns the smallest region containing every item. The
// region is tagged with the items' common category, or CategoryUnknown when
// they mix categories. An empty input yields None(CategoryUnknown).
func BoundingRegion[T Located](items []T) Region {
	if len(items) == 0 {
		return None(model.CategoryUnknown)
	}
	r := None(items[0].Kind())
	for _, it := range items {
		x, y := it.Position()
		r.Left = math.Min(r.Left, x)
		r.Top = math.Min(r.Top, y)
		r.Right = math.Max(r.Right, x)
		r.Bottom = math.Max(r.Bottom, y)
		if it.Kind() != r.Category {
			r.Category = model.CategoryUnknown
		}
	}
	return r
}

// Empty reports whether r is the sentinel of an empty set (or otherwise
// inverted or not a number).
func (r Region) Empty() bool {
	return !(r.Left <= r.Right && r.Top <= r.Bottom)
}

// Finite reports whether every extent is a finite number.
func (r Region) Finite() bool {
	for _, v := range [...]float64{r.Left, r.Top, r.Right, r.Bottom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (r Region) Width() float64  { return r.Right - r.Left }
func (r Region) Height() float64 { return r.Bottom - r.Top }

// Center returns the midpoint. Meaningless for an empty region.
func (r Region) Center() (x, y float64) {
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

// Contains reports whether (x, y) lies within r, edges included.
func (r Region) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

func (r Region) String() string {
	if r.Empty() {
		return fmt.Sprintf("%s[empty]", r.Category)
	}
	return fmt.Sprintf("%s[%.1f,%.1f %.1f,%.1f]", r.Category, r.Left, r.Top, r.Right, r.Bottom)
}
