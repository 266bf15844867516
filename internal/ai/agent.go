// Package ai drives computer players. Each tick the agent plans on a cost
// grid of the world and turns the first step of its path into key events.
package ai

import (
	"container/heap"
	"math"

	bt "github.com/joeycumines/go-behaviortree"
	log "github.com/sirupsen/logrus"

	"github.com/amalg/blastgrid/internal/game"
)

// Agent is a game.Agent for one computer player. It keeps its previous target
// between ticks and is not safe for concurrent use.
type Agent struct {
	cfg  game.AIConfig
	tree bt.Node
	log  log.FieldLogger

	target    game.Position
	hasTarget bool

	// Per-decision state, rebuilt by prepare.
	world     *game.World
	player    *game.Player
	grid      *costGrid
	order     []game.Position
	dist      map[game.Position]int
	items     targetQueue
	open      targetQueue
	step      game.Position
	moving    bool
	placeBomb bool
}

var _ game.Agent = (*Agent)(nil)

// New returns an agent. Its preferences are tried in order: a safe item, a
// bomb next to a brick with a safe way out, the previous target, the nearest
// safe cell and finally the least dangerous cell.
func New(cfg game.AIConfig, logger log.FieldLogger) *Agent {
	if logger == nil {
		logger = log.StandardLogger()
	}
	a := &Agent{cfg: cfg, log: logger}
	a.tree = bt.New(
		bt.Selector,
		leaf(a.seekItem),
		leaf(a.bombBrick),
		leaf(a.keepTarget),
		leaf(a.seekSafety),
		leaf(a.riskyRetreat),
	)
	return a
}

func leaf(fn func() bool) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if fn() {
			return bt.Success, nil
		}
		return bt.Failure, nil
	})
}

// Decide plans one tick for p and returns the key changes to apply.
func (a *Agent) Decide(w *game.World, p *game.Player) []game.KeyEvent {
	a.prepare(w, p)
	status, err := a.tree.Tick()
	if err != nil || status != bt.Success {
		a.log.WithFields(log.Fields{"player": p.Index, "tick": w.Tick}).Debug("no plan, releasing keys")
		a.hasTarget = false
		a.moving = false
		a.placeBomb = false
	}
	return a.keys(w, p)
}

func (a *Agent) prepare(w *game.World, p *game.Player) {
	a.world, a.player = w, p
	a.grid = buildCostGrid(w, p, a.cfg)
	a.order, a.dist = a.grid.reachable(p.Cell())
	a.items = a.items[:0]
	a.open = a.open[:0]
	for i, pos := range a.order {
		t := target{pos: pos, cost: a.grid.at(pos), dist: a.dist[pos], order: i}
		a.open = append(a.open, t)
		if it := w.Grid.Item(pos); it != game.ItemNone && it != game.ItemDisease {
			a.items = append(a.items, t)
		}
	}
	heap.Init(&a.items)
	heap.Init(&a.open)
	a.moving = false
	a.placeBomb = false
}

// goTo plans the path to dest and takes its first step.
func (a *Agent) goTo(dest game.Position, maxCost int) bool {
	path, cost, ok := a.grid.astar(a.player.Cell(), dest)
	if !ok || cost >= maxCost {
		return false
	}
	a.target, a.hasTarget = dest, true
	if len(path) >= 2 {
		a.step, a.moving = path[1], true
	}
	return true
}

func (a *Agent) seekItem() bool {
	for a.items.Len() > 0 {
		t := heap.Pop(&a.items).(target)
		if t.cost != 0 {
			continue
		}
		if a.goTo(t.pos, a.cfg.FireCost) {
			return true
		}
	}
	return false
}

// bombBrick places a bomb when the player stands safely next to a brick or in
// line with an enemy and can still reach a safe cell before the fuse runs out.
func (a *Agent) bombBrick() bool {
	w, p := a.world, a.player
	own := p.Cell()
	if p.Carrying >= 0 || p.Sick(game.DiseaseNoBombs, w.Tick) || !a.grid.safe(own) || a.ownsBomb() {
		return false
	}
	if !a.worthBombing(own) {
		return false
	}
	blast := make(map[game.Position]bool)
	for _, pos := range blastCells(w, own, w.Range(p)) {
		blast[pos] = true
	}
	cfg := w.Config.Bomb
	fuse := max(1, cfg.DetonationIterations*cfg.ExplodingTimeMultiplier/100)
	speed := max(1, w.Speed(p))
	for _, pos := range a.order {
		if blast[pos] || !a.grid.safe(pos) {
			continue
		}
		if !p.Has(game.ItemTrigger) && a.dist[pos]*game.CellUnits/speed >= fuse {
			return false
		}
		if a.goTo(pos, a.cfg.BlastCost) {
			a.placeBomb = true
			return true
		}
	}
	return false
}

func (a *Agent) ownsBomb() bool {
	for _, b := range a.world.Bombs {
		if b.Owner == a.player.Index && b.Live() {
			return true
		}
	}
	return false
}

// worthBombing reports whether a bomb at pos would hit a brick or an enemy.
func (a *Agent) worthBombing(pos game.Position) bool {
	w := a.world
	for _, d := range game.Directions {
		if w.Grid.Wall(pos.Add(d, 1)) == game.Brick {
			return true
		}
	}
	for _, cell := range blastCells(w, pos, w.Range(a.player)) {
		if q := w.PlayerAt(cell); q != nil && q.Team != a.player.Team {
			return true
		}
	}
	return false
}

func (a *Agent) keepTarget() bool {
	if !a.hasTarget || a.target == a.player.Cell() || !a.grid.safe(a.target) {
		return false
	}
	if _, ok := a.dist[a.target]; !ok {
		return false
	}
	return a.goTo(a.target, a.cfg.FireCost)
}

// seekSafety leaves a dangerous cell for the nearest safe one. On a safe cell
// it heads for the nearest safe spot worth bombing, or stays.
func (a *Agent) seekSafety() bool {
	own := a.player.Cell()
	if a.grid.safe(own) {
		for _, pos := range a.order[1:] {
			if a.grid.safe(pos) && a.worthBombing(pos) && a.goTo(pos, a.cfg.BlastCost) {
				return true
			}
		}
		a.hasTarget = false
		return true
	}
	// Pop from a copy: riskyRetreat still needs every reachable cell.
	open := append(targetQueue(nil), a.open...)
	for open.Len() > 0 {
		t := heap.Pop(&open).(target)
		if t.cost == 0 && a.goTo(t.pos, a.cfg.FireCost) {
			return true
		}
	}
	return false
}

// riskyRetreat heads for the least dangerous reachable cell when no safe one
// exists.
func (a *Agent) riskyRetreat() bool {
	best := target{cost: -1}
	for _, t := range a.open {
		if best.cost < 0 || t.cost < best.cost || (t.cost == best.cost && t.dist < best.dist) {
			best = t
		}
	}
	if best.cost < 0 {
		return false
	}
	if best.pos == a.player.Cell() {
		a.hasTarget = false
		return true
	}
	return a.goTo(best.pos, math.MaxInt)
}

// keys turns the plan into press and release events relative to the keys
// the player holds now.
func (a *Agent) keys(w *game.World, p *game.Player) []game.KeyEvent {
	var want [game.KeyCount]bool
	dir, ok := a.heading(p)
	if ok {
		if p.Sick(game.DiseaseReverseKeys, w.Tick) {
			dir = dir.Opposite()
		}
		want[game.KeyFor(dir)] = true
	}
	want[game.KeyFunction1] = a.placeBomb

	var events []game.KeyEvent
	for k := game.Key(0); k < game.KeyCount; k++ {
		if want[k] != p.Keys[k] {
			events = append(events, game.KeyEvent{Player: p.Index, Key: k, Pressed: want[k]})
		}
	}
	return events
}

// heading returns the direction toward the planned step, or toward the
// centre of the current cell when the player has arrived off-centre.
func (a *Agent) heading(p *game.Player) (game.Direction, bool) {
	from := p.Cell()
	if a.moving {
		switch {
		case a.step.X > from.X:
			return game.DirRight, true
		case a.step.X < from.X:
			return game.DirLeft, true
		case a.step.Y > from.Y:
			return game.DirDown, true
		default:
			return game.DirUp, true
		}
	}
	cx, cy := from.Centre()
	dx, dy := cx-p.X, cy-p.Y
	quarter := game.CellUnits / 4
	switch {
	case dx > quarter:
		return game.DirRight, true
	case dx < -quarter:
		return game.DirLeft, true
	case dy > quarter:
		return game.DirDown, true
	case dy < -quarter:
		return game.DirUp, true
	}
	return 0, false
}
