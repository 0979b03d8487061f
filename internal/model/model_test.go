package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseCategoryFoldsCase(t *testing.T) {
	for _, in := range []string{"tank", "Tank", "TANK"} {
		c, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, Tank, c)
	}

	_, err := ParseCategory("unknown")
	assert.Error(t, err, "unknown is not a concrete category")
	_, err = ParseCategory("zeppelin")
	assert.Error(t, err)
}

func TestCategoryYAML(t *testing.T) {
	var v struct {
		Category Category `yaml:"category"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("category: Helicopter\n"), &v))
	assert.Equal(t, Helicopter, v.Category)

	err := yaml.Unmarshal([]byte("category: boat\n"), &v)
	assert.Error(t, err)
}

func TestGridAt(t *testing.T) {
	g := Grid[TerrainType]{
		Cols: 2,
		Rows: 2,
		Cells: []TerrainType{
			Plain, Swamp,
			Forest, Plain,
		},
	}
	g.Fit(64, 64)

	assert.Equal(t, Swamp, g.At(1, 0))
	assert.Equal(t, Forest, g.At(0, 1))
	assert.Equal(t, Plain, g.At(5, 0), "out of bounds is the zero value")
	assert.Equal(t, Forest, g.AtPos(10, 40))
	assert.Equal(t, Swamp, g.AtPos(63, 0))
}

func TestGridAtPosZeroCells(t *testing.T) {
	g := Grid[WeatherType]{Cols: 1, Rows: 1, Cells: []WeatherType{Rain}}
	assert.Equal(t, Clear, g.AtPos(1, 1))
}
