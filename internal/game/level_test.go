package game

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLevelLayout(t *testing.T) {
	cfg := DefaultConfig().Level
	for seed := int64(1); seed <= 20; seed++ {
		g, err := GenerateLevel(NewRand(seed), cfg)
		require.NoError(t, err, "seed %d", seed)
		require.Equal(t, cfg.Width, g.Width)
		require.Equal(t, cfg.Height, g.Height)

		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				pos := Position{X: x, Y: y}
				if g.onBorder(pos) {
					assert.Equal(t, Concrete, g.Wall(pos), "seed %d border %v", seed, pos)
				}
			}
		}
		assert.Equal(t, Empty, g.Wall(Spawn), "seed %d", seed)
		assert.Empty(t, g.Unreachable(Spawn), "seed %d leaves cells cut off", seed)
	}
}

func TestGenerateLevelIsDeterministic(t *testing.T) {
	cfg := DefaultConfig().Level
	a, err := GenerateLevel(NewRand(42), cfg)
	require.NoError(t, err)
	b, err := GenerateLevel(NewRand(42), cfg)
	require.NoError(t, err)
	assert.Equal(t, EncodeLevel(a), EncodeLevel(b))
}

func TestGenerateLevelGateways(t *testing.T) {
	cfg := DefaultConfig().Level
	cfg.Gateways = 2
	g, err := GenerateLevel(NewRand(7), cfg)
	require.NoError(t, err)

	entrances, exits := g.Gateways()
	require.Len(t, entrances, 2)
	require.Len(t, exits, 2)
	for i, in := range entrances {
		assert.True(t, g.onBorder(in))
		assert.True(t, g.onBorder(exits[i]))
		out, ok := g.GatewayExitFor(in)
		require.True(t, ok)
		assert.Equal(t, exits[i], out)
	}
	assert.Empty(t, g.Unreachable(Spawn))
}

func TestDeblockOpensTheFirstPocket(t *testing.T) {
	g := openArena(7, 7)
	for y := 1; y <= 5; y++ {
		g.SetWall(Position{X: 2, Y: y}, Concrete)
	}
	require.Len(t, g.Unreachable(Spawn), 15)

	require.NoError(t, deblock(g))
	assert.Equal(t, Brick, g.Wall(Position{X: 2, Y: 1}), "odd rows open to the left")
	for y := 2; y <= 5; y++ {
		assert.Equal(t, Concrete, g.Wall(Position{X: 2, Y: y}))
	}
	assert.Empty(t, g.Unreachable(Spawn))
}

func TestDeblockFailsWithoutConvertibleNeighbour(t *testing.T) {
	g := openArena(5, 5)
	g.SetWall(Position{X: 1, Y: 2}, GatewayExit)
	g.SetWall(Position{X: 2, Y: 3}, Concrete)

	err := deblock(g)
	require.Error(t, err)
	var inv *InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "deblock", inv.Op)
}

func TestLevelCodecRoundTrip(t *testing.T) {
	g, err := GenerateLevel(NewRand(3), DefaultConfig().Level)
	require.NoError(t, err)
	g.SetItem(Position{X: 1, Y: 1}, ItemTrigger)
	g.SetWall(Position{X: 3, Y: 3}, DeathWarning)

	var buf bytes.Buffer
	require.NoError(t, WriteLevel(&buf, g))
	assert.True(t, strings.HasPrefix(buf.String(), "17 13\n"))

	back, err := ReadLevel(&buf)
	require.NoError(t, err)
	assert.Equal(t, EncodeLevel(g), EncodeLevel(back))
	assert.Equal(t, ItemTrigger, back.Item(Position{X: 1, Y: 1}))
	assert.Equal(t, DeathWarning, back.Wall(Position{X: 3, Y: 3}))
}

func TestReadLevelRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing height": "3",
		"zero width":     "0 3",
		"short":          "2 1 E-",
		"bad token":      "2 1 E- Eb-",
		"unknown wall":   "2 1 E- Z-",
		"unknown item":   "2 1 E- Ez",
		"trailing":       "2 1 E- E- E-",
		"huge":           "4294967296 4294967296 E-",
		"too wide":       "256 1 E-",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeLevel(input)
			assert.Error(t, err)
		})
	}

	g, err := DecodeLevel("2 1\nCb Xd\n")
	require.NoError(t, err)
	assert.Equal(t, Concrete, g.Wall(Position{X: 0, Y: 0}))
	assert.Equal(t, ItemBomb, g.Item(Position{X: 0, Y: 0}))
	assert.Equal(t, GatewayExit, g.Wall(Position{X: 1, Y: 0}))
	assert.Equal(t, ItemDisease, g.Item(Position{X: 1, Y: 0}))
}
