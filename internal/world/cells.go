package world

import (
	"math"
	"slices"

	"github.com/vanguard/agent/internal/model"
)

// cellSize matches the host's terrain cell so one cell is one grid square.
const cellSize = 32.0

type cellKey struct {
	cx int32
	cy int32
}

func toCell(v float64) int32 {
	c := math.Floor(v / cellSize)
	switch {
	case math.IsNaN(c):
		return 0
	case c < math.MinInt32:
		return math.MinInt32
	case c > math.MaxInt32:
		return math.MaxInt32
	}
	return int32(c)
}

// CellIndex buckets tracked units by grid cell for neighbourhood lookups.
// Accessed only from the match goroutine, no locks.
type CellIndex struct {
	cells map[cellKey]map[model.EntityID]struct{}
}

func NewCellIndex() *CellIndex {
	return &CellIndex{
		cells: make(map[cellKey]map[model.EntityID]struct{}),
	}
}

func key(x, y float64) cellKey {
	return cellKey{cx: toCell(x), cy: toCell(y)}
}

// Add places a unit into the index.
func (g *CellIndex) Add(id model.EntityID, x, y float64) {
	k := key(x, y)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[model.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes a unit out of the index.
func (g *CellIndex) Remove(id model.EntityID, x, y float64) {
	k := key(x, y)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates a unit's cell when its position changes.
func (g *CellIndex) Move(id model.EntityID, oldX, oldY, newX, newY float64) {
	if key(oldX, oldY) == key(newX, newY) {
		return
	}
	g.Remove(id, oldX, oldY)
	g.Add(id, newX, newY)
}

// Nearby returns the ids in every cell overlapping the square of the given
// radius around (x, y), ascending. Caller does fine-grained distance filtering.
func (g *CellIndex) Nearby(x, y, radius float64) []model.EntityID {
	if radius < 0 {
		return nil
	}
	minX, maxX := toCell(x-radius), toCell(x+radius)
	minY, maxY := toCell(y-radius), toCell(y+radius)
	var result []model.EntityID
	span := (int64(maxX) - int64(minX) + 1) * (int64(maxY) - int64(minY) + 1)
	if span > int64(len(g.cells)) {
		// Fewer occupied cells than cells in range: scan the occupied ones.
		for k, cell := range g.cells {
			if k.cx < minX || k.cx > maxX || k.cy < minY || k.cy > maxY {
				continue
			}
			for id := range cell {
				result = append(result, id)
			}
		}
		slices.Sort(result)
		return result
	}
	for cx := int64(minX); cx <= int64(maxX); cx++ {
		for cy := int64(minY); cy <= int64(maxY); cy++ {
			for id := range g.cells[cellKey{cx: int32(cx), cy: int32(cy)}] {
				result = append(result, id)
			}
		}
	}
	slices.Sort(result)
	return result
}
