package handler

import (
	"fmt"

	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/net/packet"
)

// readHello decodes C_HELLO:
// [Q self][Q seed][F width][F height][grid terrain][grid weather]
// where grid is [H cols][H rows][cols*rows bytes].
func readHello(r *packet.Reader) (model.Hello, error) {
	h := model.Hello{
		Self:   model.PlayerID(r.ReadQ()),
		Seed:   r.ReadQ(),
		Width:  r.ReadF(),
		Height: r.ReadF(),
	}
	h.Terrain = readGrid[model.TerrainType](r)
	h.Weather = readGrid[model.WeatherType](r)
	if err := r.Err(); err != nil {
		return model.Hello{}, fmt.Errorf("decode hello: %w", err)
	}
	if !(h.Width > 0 && h.Height > 0) {
		return model.Hello{}, fmt.Errorf("decode hello: world size %vx%v", h.Width, h.Height)
	}
	return h, nil
}

func readGrid[T ~uint8](r *packet.Reader) model.Grid[T] {
	cols, rows := int(r.ReadH()), int(r.ReadH())
	raw := r.ReadBytes(cols * rows)
	g := model.Grid[T]{Cols: cols, Rows: rows, Cells: make([]T, len(raw))}
	for i, b := range raw {
		g.Cells[i] = T(b)
	}
	return g
}

// readTick decodes C_TICK:
// [D tick][D cooldown]
// [H n] n x [Q id][Q owner][C category][F x][F y][D vitality]
// [H m] m x [Q id][F x][F y][D vitality]
func readTick(r *packet.Reader) (model.Snapshot, error) {
	snap := model.Snapshot{
		Tick:     int(r.ReadD()),
		Cooldown: int(r.ReadD()),
	}
	if n := int(r.ReadH()); n > 0 {
		snap.NewUnits = make([]model.NewUnit, 0, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			nu := model.NewUnit{
				ID:       model.EntityID(r.ReadQ()),
				Owner:    model.PlayerID(r.ReadQ()),
				Category: model.Category(r.ReadC()),
				X:        r.ReadF(),
				Y:        r.ReadF(),
				Vitality: int(r.ReadD()),
			}
			if !nu.Category.Valid() {
				nu.Category = model.CategoryUnknown
			}
			snap.NewUnits = append(snap.NewUnits, nu)
		}
	}
	if m := int(r.ReadH()); m > 0 {
		snap.Updates = make([]model.UnitUpdate, 0, m)
		for i := 0; i < m && r.Err() == nil; i++ {
			snap.Updates = append(snap.Updates, model.UnitUpdate{
				ID:       model.EntityID(r.ReadQ()),
				X:        r.ReadF(),
				Y:        r.ReadF(),
				Vitality: int(r.ReadD()),
			})
		}
	}
	if err := r.Err(); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode tick: %w", err)
	}
	if snap.Tick < 0 || snap.Cooldown < 0 {
		return model.Snapshot{}, fmt.Errorf("decode tick: tick %d cooldown %d", snap.Tick, snap.Cooldown)
	}
	return snap, nil
}
