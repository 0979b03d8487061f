package geom

import "fmt"

// Side selects one half of a region.
type Side uint8

const (
	LeftHalf Side = iota
	RightHalf
)

func (s Side) String() string {
	if s == RightHalf {
		return "right"
	}
	return "left"
}

// ParseSide accepts "left" or "right".
func ParseSide(s string) (Side, error) {
	switch s {
	case "left":
		return LeftHalf, nil
	case "right":
		return RightHalf, nil
	}
	return LeftHalf, fmt.Errorf("unknown side %q", s)
}

// SplitVertical cuts r at its horizontal midpoint and returns the requested
// half. The vertical extent and category are kept. Both halves share the
// midpoint edge. An empty region splits into itself.
func SplitVertical(r Region, side Side) Region {
	if r.Empty() {
		return r
	}
	mid := r.Left + (r.Right-r.Left)/2
	if side == LeftHalf {
		r.Right = mid
	} else {
		r.Left = mid
	}
	return r
}
