package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shrinkArena is an arena whose strategy acts from the first tick.
func shrinkArena(t *testing.T, kind ShrinkKind, tune func(*ShrinkConfig), cells ...Position) *World {
	t.Helper()
	cfg := testConfig()
	cfg.Shrink.StartAfterTicks = 0
	if tune != nil {
		tune(&cfg.Shrink)
	}
	w, _ := newArena(t, cfg, cells...)
	w.Shrink = NewShrinkPerformer(kind)
	w.Shrink.InitRound(w)
	return w
}

func TestSpiralOrder(t *testing.T) {
	order := spiralOrder(openArena(11, 11))
	require.Len(t, order, 81, "every inner cell exactly once")
	assert.Equal(t, Position{X: 1, Y: 1}, order[0])
	assert.Equal(t, Position{X: 9, Y: 1}, order[8])
	assert.Equal(t, Position{X: 9, Y: 2}, order[9])
	assert.Equal(t, Position{X: 1, Y: 9}, order[24])
	assert.Equal(t, Position{X: 1, Y: 2}, order[31])
	assert.Equal(t, Position{X: 2, Y: 2}, order[32])
	assert.Equal(t, Position{X: 5, Y: 5}, order[80])
}

func TestSpiralWarnsBeforeKilling(t *testing.T) {
	w := shrinkArena(t, ShrinkSpiral, func(c *ShrinkConfig) {
		c.SpiralFrequency = 1
		c.WarningTicks = 2
	}, Position{X: 1, Y: 1}, Position{X: 5, Y: 5})
	victim := w.Players[0]

	require.NoError(t, w.Step(nil))
	assert.Equal(t, DeathWarning, w.Grid.Wall(Position{X: 1, Y: 1}))
	assert.Equal(t, []Position{{X: 1, Y: 1}}, w.Warnings)
	assert.True(t, victim.Alive(), "a warning does not hurt")

	require.NoError(t, w.Step(nil))
	assert.Contains(t, w.Warnings, Position{X: 1, Y: 1}, "pending warnings are republished every tick")
	assert.Equal(t, Empty, w.Grid.Wall(Position{X: 2, Y: 1}))

	require.NoError(t, w.Step(nil))
	assert.Equal(t, Death, w.Grid.Wall(Position{X: 1, Y: 1}))
	assert.Equal(t, DeathWarning, w.Grid.Wall(Position{X: 2, Y: 1}))
	assert.False(t, victim.Alive())
	assert.Equal(t, StatusRoundEnding, w.Status)
}

func TestSetDeathClearsTheCell(t *testing.T) {
	w, _ := newArena(t, testConfig(), Position{X: 4, Y: 4}, Position{X: 8, Y: 8})
	pos := Position{X: 4, Y: 4}
	w.Grid.SetItem(pos, ItemBoots)
	b := placeAt(w, pos, 1, 2)

	w.SetDeath(pos)
	assert.Equal(t, Death, w.Grid.Wall(pos))
	assert.Equal(t, ItemNone, w.Grid.Item(pos))
	assert.True(t, b.Dead)
	assert.False(t, b.Detonated, "bombs swallowed by death walls never explode")
	assert.Nil(t, w.BombAt(pos))
	assert.False(t, w.Players[0].Alive())
	assert.True(t, w.Players[1].Alive())
}

func TestChooseShrink(t *testing.T) {
	w, _ := newArena(t, testConfig(), Position{X: 1, Y: 1})
	assert.Equal(t, ShrinkNone, w.Shrink.Kind(), "no weights, no pressure")

	w.Config.Shrink.Weights = map[string]int{ShrinkDeathLines.String(): 3}
	for i := 0; i < 10; i++ {
		assert.Equal(t, ShrinkDeathLines, w.chooseShrink())
	}
}

func TestParseShrinkKind(t *testing.T) {
	k, err := ParseShrinkKind("single_survivor")
	require.NoError(t, err)
	assert.Equal(t, ShrinkSingleSurvivor, k)

	_, err = ParseShrinkKind("tornado")
	assert.Error(t, err)
}

func TestMassKillCountdown(t *testing.T) {
	w := shrinkArena(t, ShrinkMassKill, func(c *ShrinkConfig) {
		c.CountdownTicks = 5
	}, Position{X: 1, Y: 1}, Position{X: 9, Y: 9})

	steps(t, w, 5)
	assert.Equal(t, 1, w.Countdown)
	assert.Equal(t, 2, w.AliveCount())

	steps(t, w, 1)
	assert.Zero(t, w.Countdown)
	assert.Zero(t, w.AliveCount())
}

func TestSingleSurvivorSparesTheHealthiest(t *testing.T) {
	w := shrinkArena(t, ShrinkSingleSurvivor, func(c *ShrinkConfig) {
		c.CountdownTicks = 3
	}, Position{X: 1, Y: 1}, Position{X: 5, Y: 5}, Position{X: 9, Y: 9})
	w.Players[0].Vitality = 40
	w.Players[2].Vitality = 60

	steps(t, w, 3)
	assert.Equal(t, 3, w.AliveCount())
	steps(t, w, 1)
	assert.False(t, w.Players[0].Alive())
	assert.True(t, w.Players[1].Alive())
	assert.False(t, w.Players[2].Alive())
}

func TestDiseaseSeeding(t *testing.T) {
	w := shrinkArena(t, ShrinkDiseaseSeeding, func(c *ShrinkConfig) {
		c.DiseaseFrequency = 100
	}, Position{X: 1, Y: 1})

	countDiseases := func() int {
		n := 0
		for y := 0; y < w.Grid.Height; y++ {
			for x := 0; x < w.Grid.Width; x++ {
				if w.Grid.Item(Position{X: x, Y: y}) == ItemDisease {
					n++
				}
			}
		}
		return n
	}

	require.NoError(t, w.Step(nil))
	assert.Equal(t, 1, countDiseases())
	steps(t, w, 10)
	assert.Equal(t, 1, countDiseases(), "the next seed waits for the frequency")
}

func TestDeathLinesCutThroughTheMiddle(t *testing.T) {
	w := shrinkArena(t, ShrinkDeathLines, func(c *ShrinkConfig) {
		c.DeathLinesFrequency = 1
	}, Position{X: 1, Y: 1}, Position{X: 9, Y: 9})

	require.NoError(t, w.Step(nil))
	assert.Equal(t, Death, w.Grid.Wall(Position{X: 5, Y: 1}))
	assert.Equal(t, Empty, w.Grid.Wall(Position{X: 5, Y: 2}))

	require.NoError(t, w.Step(nil))
	assert.Contains(t, w.Warnings, Position{X: 5, Y: 2})
	require.NoError(t, w.Step(nil))
	assert.Equal(t, Death, w.Grid.Wall(Position{X: 5, Y: 2}))
}

func TestFallingBombsAreWarnedAndUnowned(t *testing.T) {
	w := shrinkArena(t, ShrinkFallingBombs, func(c *ShrinkConfig) {
		c.FallingBombsFrequency = 1000
		c.WarningTicks = 2
	}, Position{X: 5, Y: 5})

	steps(t, w, 2)
	assert.Empty(t, w.Bombs)
	require.Len(t, w.Warnings, 1)
	warned := w.Warnings[0]
	assert.False(t, w.Grid.onBorder(warned), "the landing cell is inside the arena")

	steps(t, w, 1)
	require.Len(t, w.Bombs, 1)
	b := w.Bombs[0]
	assert.Equal(t, -1, b.Owner)
	assert.Equal(t, -1, b.Triggerer)
	assert.Equal(t, PhaseFlying, b.Phase)
	assert.True(t, w.Grid.onBorder(b.Cell()), "thrown in from the border")

	for i := 0; i < 60 && b.Phase == PhaseFlying; i++ {
		steps(t, w, 1)
	}
	require.Equal(t, PhaseStanding, b.Phase)
	if warned != w.Players[0].Cell() {
		assert.Equal(t, warned, b.Cell(), "lands on the warned cell")
	}
}
