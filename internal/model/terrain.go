package model

// TerrainType classifies a ground cell.
type TerrainType uint8

const (
	Plain  TerrainType = 0
	Swamp  TerrainType = 1
	Forest TerrainType = 2
)

// WeatherType classifies an air cell.
type WeatherType uint8

const (
	Clear WeatherType = 0
	Cloud WeatherType = 1
	Rain  WeatherType = 2
)

// Grid is a row-major cell grid covering the whole world.
// Each cell spans CellW x CellH world units.
type Grid[T ~uint8] struct {
	Cols  int
	Rows  int
	CellW float64
	CellH float64
	Cells []T // Cells[row*Cols + col]
}

// At returns the cell at grid coordinates (col, row).
// Returns the zero value for out-of-bounds coordinates.
func (g Grid[T]) At(col, row int) T {
	var zero T
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return zero
	}
	i := row*g.Cols + col
	if i >= len(g.Cells) {
		return zero
	}
	return g.Cells[i]
}

// AtPos converts world coordinates to grid coordinates and returns the cell.
// Returns the zero value for zero-sized cells.
func (g Grid[T]) AtPos(x, y float64) T {
	if g.CellW <= 0 || g.CellH <= 0 {
		var zero T
		return zero
	}
	return g.At(int(x/g.CellW), int(y/g.CellH))
}

// Fit sets the cell size so the grid spans a world of the given size.
func (g *Grid[T]) Fit(width, height float64) {
	if g.Cols > 0 {
		g.CellW = width / float64(g.Cols)
	}
	if g.Rows > 0 {
		g.CellH = height / float64(g.Rows)
	}
}
