package game

import (
	"errors"

	log "github.com/sirupsen/logrus"
)

// Step advances the world by one tick with the given input batch. An
// InvariantError aborts the running round; a new one starts after
// RoundRestartDelay ticks.
func (w *World) Step(batch InputBatch) error {
	w.Tick++
	w.Warnings = w.Warnings[:0]

	switch w.Status {
	case StatusLobby, StatusOver:
		return nil
	case StatusRoundOver, StatusAborted:
		if w.Tick >= w.phaseUntil {
			return w.StartRound()
		}
		return nil
	}

	w.RoundTick++
	w.applyInput(batch)
	w.indexBombs()
	w.stepPlayers()
	w.stepFires()
	w.stepBombs()
	if err := w.resolveDetonations(); err != nil {
		return w.abort(err)
	}
	w.removeEndedBombs()
	if w.Shrink != nil {
		w.Shrink.Tick(w)
	}
	w.applyDamage()
	if err := w.checkBounds(); err != nil {
		return w.abort(err)
	}
	w.checkRound()
	return nil
}

// StartRound generates a new level from the match generator and starts a
// round on it.
func (w *World) StartRound() error {
	if len(w.Players) == 0 {
		return ErrNoPlayers
	}
	grid, err := GenerateLevel(w.rng, w.Config.Level)
	if err != nil {
		return w.abort(err)
	}
	w.BeginRound(grid)
	return nil
}

// BeginRound starts a round on grid, which may be generated or imported.
func (w *World) BeginRound(grid *Grid) {
	w.Round++
	w.Grid = grid
	w.Bombs = nil
	w.Fires = nil
	clear(w.fireByID)
	clear(w.bombAt)
	w.RoundTick = 0
	w.Winner = -1
	w.Countdown = 0
	w.Warnings = w.Warnings[:0]

	for _, p := range w.Players {
		p.resetForRound(w.Config.Player)
		if !p.Connected {
			p.Vitality = 0
			p.setActivity(Dying)
		}
	}
	w.placeStarts()

	w.Shrink = NewShrinkPerformer(w.chooseShrink())
	w.Shrink.InitRound(w)
	w.Status = StatusRunning

	w.log.WithFields(log.Fields{
		"round":  w.Round,
		"seed":   w.seed,
		"shrink": w.Shrink.Kind().String(),
		"level":  [2]int{grid.Width, grid.Height},
	}).Info("round started")
	w.emit(EventRoundStarted, -1)
}

// placeStarts puts every player on an empty cell as far as possible from the
// players placed before it, clearing bricks around the start. Without any
// empty cell the first free walkable cell is forced empty.
func (w *World) placeStarts() {
	var placed []Position
	for _, p := range w.Players {
		pos, ok := w.findStart(placed)
		if !ok {
			pos = w.fallbackStart(placed)
			w.log.WithFields(log.Fields{"round": w.Round, "player": p.Index, "cell": pos}).Warn("no start cell found, using degraded placement")
		}
		w.Grid.SetWall(pos, Empty)
		for _, d := range Directions {
			if n := pos.Add(d, 1); w.Grid.Wall(n) == Brick {
				w.Grid.SetWall(n, Empty)
			}
		}
		p.X, p.Y = pos.Centre()
		placed = append(placed, pos)
	}
}

func (w *World) findStart(placed []Position) (Position, bool) {
	g := w.Grid
	best, bestScore := Position{}, 0
	for i := 0; i < w.Config.Level.StartTrials; i++ {
		pos := Position{X: 1 + w.rng.Intn(g.Width-2), Y: 1 + w.rng.Intn(g.Height-2)}
		if g.Wall(pos) != Empty || g.Item(pos) != ItemNone {
			continue
		}
		if score := spread(pos, placed, g.Width+g.Height); score > bestScore {
			best, bestScore = pos, score
		}
	}
	return best, bestScore > 0
}

// spread is the Manhattan distance from pos to the nearest placed cell.
func spread(pos Position, placed []Position, limit int) int {
	score := limit
	for _, q := range placed {
		score = min(score, abs(pos.X-q.X)+abs(pos.Y-q.Y))
	}
	return score
}

func (w *World) fallbackStart(placed []Position) Position {
	g := w.Grid
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			pos := Position{X: x, Y: y}
			switch g.Wall(pos) {
			case Empty, Brick, DeathWarning:
			default:
				continue
			}
			if spread(pos, placed, 1) > 0 {
				return pos
			}
		}
	}
	return Spawn
}

func (w *World) chooseShrink() ShrinkKind {
	weights := make([]int, shrinkKindCount)
	for k := range weights {
		weights[k] = w.Config.Shrink.Weights[ShrinkKind(k).String()]
	}
	if i := w.rng.Weighted(weights); i >= 0 {
		return ShrinkKind(i)
	}
	return ShrinkNone
}

// checkBounds verifies that every entity maps to a cell on the grid.
func (w *World) checkBounds() error {
	for _, b := range w.Bombs {
		if b.Live() && !w.Grid.InBounds(b.Cell()) {
			return invariantf("bombs", "bomb %d at (%d,%d) left the grid", b.ID, b.X, b.Y)
		}
	}
	for _, p := range w.Players {
		if !w.Grid.InBounds(p.Cell()) {
			return invariantf("players", "player %d at (%d,%d) left the grid", p.Index, p.X, p.Y)
		}
	}
	return nil
}

// checkRound moves the round through its lifecycle: running until at most one
// player lives, ending while the last deaths play out, then scored.
func (w *World) checkRound() {
	switch w.Status {
	case StatusRunning:
		alive := w.AliveCount()
		if alive == 0 || (w.connectedCount() > 1 && alive == 1) {
			w.Status = StatusRoundEnding
			w.phaseUntil = w.Tick + int64(w.Config.RoundEndDelay)
		}
	case StatusRoundEnding:
		if w.Tick >= w.phaseUntil {
			w.finishRound()
		}
	}
}

func (w *World) finishRound() {
	w.Winner = -1
	if w.connectedCount() > 1 {
		for _, p := range w.Players {
			if p.Alive() {
				w.Winner = p.Index
				p.Points += w.Config.Scoring.WinPoints
			}
		}
	}
	w.emit(EventRoundEnded, w.Winner)
	w.log.WithFields(log.Fields{"round": w.Round, "winner": w.Winner, "ticks": w.RoundTick}).Info("round ended")

	if champion := w.champion(); champion >= 0 {
		w.Status = StatusOver
		w.Winner = champion
		w.emit(EventGameOver, champion)
		w.log.WithFields(log.Fields{"winner": champion, "rounds": w.Round}).Info("game over")
		return
	}
	w.Status = StatusRoundOver
	w.phaseUntil = w.Tick + int64(w.Config.RoundRestartDelay)
}

func (w *World) connectedCount() int {
	n := 0
	for _, p := range w.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// champion returns the player that reached PointsToWin with the most points,
// lowest slot first, or -1.
func (w *World) champion() int {
	best := -1
	for _, p := range w.Players {
		if p.Points < w.Config.PointsToWin {
			continue
		}
		if best < 0 || p.Points > w.Players[best].Points {
			best = p.Index
		}
	}
	return best
}

func (w *World) abort(err error) error {
	var inv *InvariantError
	if !errors.As(err, &inv) {
		return err
	}
	w.Status = StatusAborted
	w.phaseUntil = w.Tick + int64(w.Config.RoundRestartDelay)
	w.log.WithError(err).WithField("round", w.Round).Error("round aborted")
	w.emit(EventRoundAborted, -1)
	return err
}
