package model

// NewUnit is a creation delta: the first observation of a unit.
type NewUnit struct {
	ID       EntityID
	Owner    PlayerID
	Category Category
	X        float64
	Y        float64
	Vitality int
}

// UnitUpdate is a change delta. Vitality 0 means the unit was destroyed.
type UnitUpdate struct {
	ID       EntityID
	X        float64
	Y        float64
	Vitality int
}

// Snapshot is everything the host reports for one tick.
type Snapshot struct {
	Tick     int
	Cooldown int // ticks until the host accepts another command
	NewUnits []NewUnit
	Updates  []UnitUpdate
}

// Hello carries the static match parameters sent once before the first tick.
type Hello struct {
	Self    PlayerID
	Seed    int64
	Width   float64
	Height  float64
	Terrain Grid[TerrainType]
	Weather Grid[WeatherType]
}
