package game

import (
	"fmt"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// testConfig is the default configuration without arena pressure or random
// item drops.
func testConfig() GameConfig {
	cfg := DefaultConfig()
	cfg.Level.Width = 11
	cfg.Level.Height = 11
	cfg.Level.ItemDropPercent = 0
	cfg.Shrink.Weights = nil
	return cfg
}

// openArena returns a grid with a concrete border and nothing inside.
func openArena(width, height int) *Grid {
	g := NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if pos := (Position{X: x, Y: y}); g.onBorder(pos) {
				g.SetWall(pos, Concrete)
			}
		}
	}
	return g
}

// newArena starts a round on an open arena with one player per given cell,
// each standing on its cell centre.
func newArena(t *testing.T, cfg GameConfig, cells ...Position) (*World, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	w := NewWorld(cfg, 1, logger)
	for i := range cells {
		_, err := w.AddPlayer(fmt.Sprintf("p%d", i+1), 0, false)
		require.NoError(t, err)
	}
	w.BeginRound(openArena(cfg.Level.Width, cfg.Level.Height))
	for i, pos := range cells {
		w.Players[i].X, w.Players[i].Y = pos.Centre()
	}
	w.DrainEvents()
	return w, hook
}

// placeAt drops a standing bomb owned by owner in the centre of pos.
func placeAt(w *World, pos Position, owner, reach int) *Bomb {
	x, y := pos.Centre()
	return w.AddBomb(&Bomb{
		X:         x,
		Y:         y,
		Phase:     PhaseStanding,
		Range:     reach,
		Owner:     owner,
		Triggerer: owner,
		HeldBy:    -1,
	})
}

func press(player int, keys ...Key) InputBatch {
	batch := InputBatch{}
	for _, k := range keys {
		batch[0] = append(batch[0], KeyEvent{Player: player, Key: k, Pressed: true})
	}
	return batch
}

func release(player int, keys ...Key) InputBatch {
	batch := InputBatch{}
	for _, k := range keys {
		batch[0] = append(batch[0], KeyEvent{Player: player, Key: k, Pressed: false})
	}
	return batch
}

func steps(t *testing.T, w *World, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, w.Step(nil))
	}
}

func firesAt(w *World, pos Position) int {
	if c := w.Grid.Cell(pos); c != nil {
		return len(c.Fires)
	}
	return 0
}
