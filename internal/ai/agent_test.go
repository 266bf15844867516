package ai

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalg/blastgrid/internal/game"
)

func arenaConfig() game.GameConfig {
	cfg := game.DefaultConfig()
	cfg.Level.Width = 11
	cfg.Level.Height = 11
	cfg.Level.ItemDropPercent = 0
	cfg.Shrink.Weights = nil
	return cfg
}

// botArena starts a round on an open 11x11 arena with a single computer
// player standing in the centre of at.
func botArena(t *testing.T, at game.Position) (*game.World, *game.Player, *Agent) {
	t.Helper()
	cfg := arenaConfig()
	logger, _ := test.NewNullLogger()
	w := game.NewWorld(cfg, 1, logger)
	slot, err := w.AddPlayer("bot", 0, true)
	require.NoError(t, err)
	agent := New(cfg.AI, logger)
	require.NoError(t, w.SetAgent(slot, agent))

	g := game.NewGrid(cfg.Level.Width, cfg.Level.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if x == 0 || y == 0 || x == g.Width-1 || y == g.Height-1 {
				g.SetWall(game.Position{X: x, Y: y}, game.Concrete)
			}
		}
	}
	w.BeginRound(g)
	p := w.Players[slot]
	p.X, p.Y = at.Centre()
	return w, p, agent
}

func openCostGrid(width, height int) *costGrid {
	return &costGrid{
		width:   width,
		height:  height,
		cost:    make([]int, width*height),
		blocked: make([]bool, width*height),
	}
}

func TestAstarGoesAroundWalls(t *testing.T) {
	c := openCostGrid(5, 5)
	for y := 0; y < 4; y++ {
		c.blocked[c.index(game.Position{X: 2, Y: y})] = true
	}

	path, cost, ok := c.astar(game.Position{X: 0, Y: 0}, game.Position{X: 4, Y: 0})
	require.True(t, ok)
	assert.Equal(t, 12, cost)
	require.Len(t, path, 13)
	assert.Equal(t, game.Position{X: 0, Y: 0}, path[0])
	assert.Equal(t, game.Position{X: 4, Y: 0}, path[len(path)-1])
	assert.Contains(t, path, game.Position{X: 2, Y: 4})
	for i := 1; i < len(path); i++ {
		assert.Equal(t, 1, manhattan(path[i-1], path[i]), "step %d", i)
		assert.True(t, c.passable(path[i]))
	}

	c.blocked[c.index(game.Position{X: 2, Y: 4})] = true
	_, _, ok = c.astar(game.Position{X: 0, Y: 0}, game.Position{X: 4, Y: 0})
	assert.False(t, ok)
}

func TestAstarAvoidsDanger(t *testing.T) {
	c := openCostGrid(3, 3)
	c.add(game.Position{X: 1, Y: 1}, 100)

	path, cost, ok := c.astar(game.Position{X: 0, Y: 1}, game.Position{X: 2, Y: 1})
	require.True(t, ok)
	assert.Equal(t, 4, cost)
	assert.NotContains(t, path, game.Position{X: 1, Y: 1})
}

func TestBlastCellsStopAtBricks(t *testing.T) {
	w, _, _ := botArena(t, game.Position{X: 1, Y: 1})
	w.SetWall(game.Position{X: 6, Y: 5}, game.Brick)

	cells := blastCells(w, game.Position{X: 5, Y: 5}, 3)
	assert.Contains(t, cells, game.Position{X: 6, Y: 5})
	assert.NotContains(t, cells, game.Position{X: 7, Y: 5})
	assert.Contains(t, cells, game.Position{X: 5, Y: 2})
	assert.Len(t, cells, 11)
}

func TestCostGridMarksDanger(t *testing.T) {
	w, p, agent := botArena(t, game.Position{X: 1, Y: 1})
	w.SetWall(game.Position{X: 3, Y: 1}, game.Brick)
	w.AddBomb(&game.Bomb{Phase: game.PhaseStanding, Range: 1, Owner: -1, Triggerer: -1, HeldBy: -1,
		X: 750, Y: 750})

	c := buildCostGrid(w, p, agent.cfg)
	assert.False(t, c.passable(game.Position{X: 3, Y: 1}))
	assert.False(t, c.passable(game.Position{X: 0, Y: 4}))
	assert.False(t, c.passable(game.Position{X: 7, Y: 7}), "bombs block")
	assert.Equal(t, agent.cfg.BlastCost, c.at(game.Position{X: 7, Y: 6}))
	assert.True(t, c.safe(game.Position{X: 1, Y: 1}))
}

func TestBotBombsNextToBrick(t *testing.T) {
	w, p, agent := botArena(t, game.Position{X: 3, Y: 3})
	w.SetWall(game.Position{X: 4, Y: 3}, game.Brick)

	events := agent.Decide(w, p)
	assert.Contains(t, events, game.KeyEvent{Player: p.Index, Key: game.KeyFunction1, Pressed: true})

	moves := 0
	for _, ev := range events {
		if _, ok := ev.Key.Direction(); ok && ev.Pressed {
			moves++
		}
	}
	assert.Equal(t, 1, moves, "heads for cover at once")
}

func TestBotEscapesItsOwnBomb(t *testing.T) {
	w, p, _ := botArena(t, game.Position{X: 5, Y: 5})
	cx, cy := game.Position{X: 5, Y: 5}.Centre()
	w.AddBomb(&game.Bomb{X: cx, Y: cy, Phase: game.PhaseStanding, Range: 2, Owner: p.Index, Triggerer: p.Index, HeldBy: -1})

	for i := 0; i < 90; i++ {
		require.NoError(t, w.Step(nil))
	}
	assert.True(t, p.Alive())
	assert.Equal(t, w.Config.Player.MaxVitality, p.Vitality, "never touched the fire")
	assert.Empty(t, w.Bombs)
}

func TestBotRetreatsWhenNoCellIsSafe(t *testing.T) {
	w, p, agent := botArena(t, game.Position{X: 1, Y: 1})
	for _, pos := range []game.Position{{X: 1, Y: 2}, {X: 2, Y: 2}, {X: 3, Y: 2}, {X: 4, Y: 2}, {X: 5, Y: 1}} {
		w.SetWall(pos, game.Concrete)
	}
	bx, by := game.Position{X: 4, Y: 1}.Centre()
	w.AddBomb(&game.Bomb{X: bx, Y: by, Phase: game.PhaseStanding, Range: 3, Owner: -1, Triggerer: -1, HeldBy: -1})
	w.Warnings = append(w.Warnings, game.Position{X: 1, Y: 1})

	c := buildCostGrid(w, p, agent.cfg)
	for x := 1; x <= 3; x++ {
		require.False(t, c.safe(game.Position{X: x, Y: 1}), "cell %d is in the blast", x)
	}

	events := agent.Decide(w, p)
	assert.Contains(t, events, game.KeyEvent{Player: p.Index, Key: game.KeyRight, Pressed: true},
		"leaves the warned cell for a less dangerous one")
	assert.True(t, agent.hasTarget)
	assert.Equal(t, game.Position{X: 2, Y: 1}, agent.target)
}

func TestBotStaysPutWhenSafe(t *testing.T) {
	w, p, agent := botArena(t, game.Position{X: 5, Y: 5})
	assert.Empty(t, agent.Decide(w, p))
}

func botMatch(t *testing.T, seed int64, ticks int) string {
	t.Helper()
	cfg := game.DefaultConfig()
	logger, _ := test.NewNullLogger()
	e := game.NewEngine(cfg, seed, logger)
	for i := 0; i < 4; i++ {
		slot, err := e.AddPlayer(fmt.Sprintf("Bot %d", i+1), 0, true)
		require.NoError(t, err)
		require.NoError(t, e.SetAgent(slot, New(cfg.AI, logger)))
	}
	require.NoError(t, e.StartGame())
	for i := 0; i < ticks && e.Status() != game.StatusOver; i++ {
		_ = e.AdvanceTick(nil)
	}
	s := e.Snapshot()
	sum, err := s.Checksum()
	require.NoError(t, err)
	return sum
}

func TestBotMatchIsDeterministic(t *testing.T) {
	assert.Equal(t, botMatch(t, 21, 1500), botMatch(t, 21, 1500))
}
