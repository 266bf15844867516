package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplosionCoversRangeInEveryDirection(t *testing.T) {
	w, _ := newArena(t, testConfig(), Position{X: 1, Y: 1})
	centre := Position{X: 5, Y: 5}
	b := placeAt(w, centre, 0, 3)
	b.AboutToDetonate = true

	require.NoError(t, w.Step(nil))

	assert.True(t, b.Detonated)
	assert.Len(t, w.Fires, 13, "crossing fire plus three cells per ray")
	assert.Equal(t, 1, firesAt(w, centre))
	for _, d := range Directions {
		for r := 1; r <= 3; r++ {
			assert.Equal(t, 1, firesAt(w, centre.Add(d, r)), "ray %s at %d", d, r)
		}
		assert.Equal(t, 0, firesAt(w, centre.Add(d, 4)), "ray %s beyond range", d)
	}

	shapes := map[Position]FireShape{}
	for _, f := range w.Fires {
		shapes[f.Pos] = f.Shape
	}
	assert.Equal(t, FireCrossing, shapes[centre])
	assert.Equal(t, FireHorizontal, shapes[centre.Add(DirLeft, 2)])
	assert.Equal(t, FireVertical, shapes[centre.Add(DirUp, 1)])
}

func TestBombFuse(t *testing.T) {
	cfg := testConfig()
	w, _ := newArena(t, cfg, Position{X: 1, Y: 1})
	b := placeAt(w, Position{X: 5, Y: 5}, 0, 1)

	fuse := cfg.Bomb.fuse()
	steps(t, w, fuse-1)
	assert.False(t, b.Detonated, "bomb should still tick after %d ticks", fuse-1)
	assert.Equal(t, fuse-1, b.Ticking)

	steps(t, w, 1)
	assert.True(t, b.Detonated)
	assert.Equal(t, 0, b.Triggerer, "a bomb running out of time is credited to its owner")
}

func TestChainReactionPassesTriggerer(t *testing.T) {
	w, _ := newArena(t, testConfig(), Position{X: 1, Y: 9}, Position{X: 9, Y: 9})
	first := placeAt(w, Position{X: 3, Y: 5}, 0, 2)
	second := placeAt(w, Position{X: 5, Y: 5}, 1, 2)
	first.AboutToDetonate = true

	require.NoError(t, w.Step(nil))

	assert.True(t, first.Detonated)
	assert.True(t, second.Detonated, "the ray reaching the second bomb sets it off in the same tick")
	assert.Equal(t, 0, second.Triggerer)
	assert.True(t, second.Excluded.Has(DirLeft), "no fire travels back toward the first bomb")

	assert.Equal(t, 1, firesAt(w, Position{X: 4, Y: 5}))
	assert.Equal(t, 1, firesAt(w, Position{X: 5, Y: 5}), "the first ray stops before the second bomb")
	assert.Equal(t, 1, firesAt(w, Position{X: 7, Y: 5}))
	assert.Equal(t, 1, firesAt(w, Position{X: 5, Y: 3}))
	assert.Len(t, w.Fires, 15)

	for _, f := range w.Fires {
		assert.Equal(t, 0, f.Triggerer, "fire at %v", f.Pos)
	}
}

func TestFireStopsAtBricksItemsAndConcrete(t *testing.T) {
	w, _ := newArena(t, testConfig(), Position{X: 1, Y: 1})
	centre := Position{X: 5, Y: 5}
	w.SetWall(Position{X: 7, Y: 5}, Brick)
	w.Grid.SetItem(Position{X: 5, Y: 4}, ItemBoots)
	w.SetWall(Position{X: 4, Y: 5}, Concrete)
	b := placeAt(w, centre, 0, 4)
	b.AboutToDetonate = true

	require.NoError(t, w.Step(nil))

	assert.Equal(t, 1, firesAt(w, Position{X: 7, Y: 5}), "the brick itself burns")
	assert.Equal(t, 0, firesAt(w, Position{X: 8, Y: 5}))
	assert.Equal(t, 1, firesAt(w, Position{X: 5, Y: 4}))
	assert.Equal(t, 0, firesAt(w, Position{X: 5, Y: 3}))
	assert.Equal(t, 0, firesAt(w, Position{X: 4, Y: 5}), "concrete is never entered")
	assert.Equal(t, 4, firesAt(w, Position{X: 5, Y: 9})+firesAt(w, Position{X: 5, Y: 8})+
		firesAt(w, Position{X: 5, Y: 7})+firesAt(w, Position{X: 5, Y: 6}))
}

func TestBombStandingInFireDetonates(t *testing.T) {
	w, _ := newArena(t, testConfig(), Position{X: 1, Y: 1}, Position{X: 9, Y: 9})
	b := placeAt(w, Position{X: 5, Y: 5}, 1, 1)
	w.addFire(Position{X: 5, Y: 5}, FireHorizontal, 0, 0, false)

	require.NoError(t, w.Step(nil))

	assert.True(t, b.Detonated)
	assert.Equal(t, 0, b.Triggerer, "credited to whoever lit the fire")
}

func TestDetonatedBombsLeaveOnTheNextTick(t *testing.T) {
	w, _ := newArena(t, testConfig(), Position{X: 1, Y: 1})
	b := placeAt(w, Position{X: 5, Y: 5}, 0, 1)
	b.AboutToDetonate = true

	require.NoError(t, w.Step(nil))
	require.Len(t, w.Bombs, 1, "a detonated bomb stays for the tick it exploded in")
	assert.Nil(t, w.BombAt(Position{X: 5, Y: 5}))

	require.NoError(t, w.Step(nil))
	assert.Empty(t, w.Bombs)
}

func TestBrickBurnsWhenItsLastFireExpires(t *testing.T) {
	cfg := testConfig()
	w, _ := newArena(t, cfg, Position{X: 1, Y: 1})
	brick := Position{X: 7, Y: 5}
	w.SetWall(brick, Brick)

	first := placeAt(w, Position{X: 5, Y: 5}, 0, 3)
	first.AboutToDetonate = true
	require.NoError(t, w.Step(nil))

	steps(t, w, 5)
	second := placeAt(w, Position{X: 7, Y: 8}, 0, 3)
	second.AboutToDetonate = true
	require.NoError(t, w.Step(nil))
	require.Equal(t, 2, firesAt(w, brick))

	steps(t, w, cfg.Bomb.FireIterations-6)
	assert.Equal(t, 1, firesAt(w, brick), "the first fire has expired")
	assert.Equal(t, Brick, w.Grid.Wall(brick), "the brick survives while another fire burns it")

	steps(t, w, 6)
	assert.Equal(t, 0, firesAt(w, brick))
	assert.Equal(t, Empty, w.Grid.Wall(brick))
}

func TestBurningItemIsDestroyed(t *testing.T) {
	cfg := testConfig()
	w, _ := newArena(t, cfg, Position{X: 1, Y: 1})
	pos := Position{X: 5, Y: 3}
	w.Grid.SetItem(pos, ItemGloves)
	b := placeAt(w, Position{X: 5, Y: 5}, 0, 3)
	b.AboutToDetonate = true

	steps(t, w, cfg.Bomb.FireIterations)
	assert.Equal(t, ItemGloves, w.Grid.Item(pos), "items stay until the fire expires")

	steps(t, w, 1)
	assert.Equal(t, ItemNone, w.Grid.Item(pos))
}

func TestBurningItemRelocates(t *testing.T) {
	cfg := testConfig()
	cfg.Player.ItemsRelocateOnBurn = true
	w, _ := newArena(t, cfg, Position{X: 1, Y: 1})
	pos := Position{X: 5, Y: 3}
	w.Grid.SetItem(pos, ItemGloves)
	b := placeAt(w, Position{X: 5, Y: 5}, 0, 3)
	b.AboutToDetonate = true

	steps(t, w, cfg.Bomb.FireIterations+1)

	found := 0
	for y := 0; y < w.Grid.Height; y++ {
		for x := 0; x < w.Grid.Width; x++ {
			if w.Grid.Item(Position{X: x, Y: y}) == ItemGloves {
				found++
			}
		}
	}
	assert.Equal(t, 1, found, "the item moves instead of vanishing")
}
