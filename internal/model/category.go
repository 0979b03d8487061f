package model

import (
	"fmt"

	"golang.org/x/text/cases"
)

// EntityID is the host-assigned identity of a unit. Stable for the whole match.
type EntityID int64

// PlayerID identifies the owner of a unit.
type PlayerID int64

// OwnerUnknown marks records created from an update that arrived before
// the unit's creation event.
const OwnerUnknown PlayerID = -1

// Category is the closed set of unit kinds the host reports.
type Category uint8

const (
	CategoryUnknown Category = iota
	ARRV
	Fighter
	Helicopter
	IFV
	Tank
)

// Categories lists every concrete category in wire order.
var Categories = []Category{ARRV, Fighter, Helicopter, IFV, Tank}

var categoryNames = [...]string{
	CategoryUnknown: "unknown",
	ARRV:            "arrv",
	Fighter:         "fighter",
	Helicopter:      "helicopter",
	IFV:             "ifv",
	Tank:            "tank",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// Valid reports whether c is one of the concrete categories.
func (c Category) Valid() bool {
	return c >= ARRV && c <= Tank
}

// ParseCategory resolves a category name case-insensitively ("Tank", "TANK", "tank").
func ParseCategory(s string) (Category, error) {
	key := cases.Fold().String(s)
	for i, name := range categoryNames {
		if name == key && Category(i).Valid() {
			return Category(i), nil
		}
	}
	return CategoryUnknown, fmt.Errorf("unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so categories can be
// written by name in plan files.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
