package ai

import "github.com/amalg/blastgrid/internal/game"

// costGrid is the per-tick view the agent plans on. Blocked cells are never
// entered; every other cell costs its danger on top of the unit step.
type costGrid struct {
	width, height int
	cost          []int
	blocked       []bool
}

func (c *costGrid) index(pos game.Position) int {
	return pos.Y*c.width + pos.X
}

func (c *costGrid) inBounds(pos game.Position) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < c.width && pos.Y < c.height
}

func (c *costGrid) passable(pos game.Position) bool {
	return c.inBounds(pos) && !c.blocked[c.index(pos)]
}

func (c *costGrid) at(pos game.Position) int {
	if !c.inBounds(pos) {
		return 0
	}
	return c.cost[c.index(pos)]
}

func (c *costGrid) add(pos game.Position, v int) {
	if c.inBounds(pos) {
		c.cost[c.index(pos)] += v
	}
}

// safe reports whether standing on pos carries no danger at all.
func (c *costGrid) safe(pos game.Position) bool {
	return c.passable(pos) && c.at(pos) == 0
}

// buildCostGrid marks walls and bombs as blocked, adds the fire cost to
// burning and doomed cells and the blast cost along the lines of every bomb
// on the ground.
func buildCostGrid(w *game.World, p *game.Player, cfg game.AIConfig) *costGrid {
	g := w.Grid
	c := &costGrid{
		width:   g.Width,
		height:  g.Height,
		cost:    make([]int, g.Width*g.Height),
		blocked: make([]bool, g.Width*g.Height),
	}
	own := p.Cell()
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			pos := game.Position{X: x, Y: y}
			switch g.Wall(pos) {
			case game.Empty:
			case game.DeathWarning:
				c.add(pos, cfg.FireCost)
			case game.Brick:
				if !p.Has(game.ItemWallClimbing) {
					c.blocked[c.index(pos)] = true
				}
			default:
				c.blocked[c.index(pos)] = true
			}
			if g.Burning(pos) {
				c.add(pos, cfg.FireCost)
			}
			if pos != own && w.BombAt(pos) != nil {
				c.blocked[c.index(pos)] = true
			}
		}
	}
	for _, pos := range w.Warnings {
		c.add(pos, cfg.FireCost)
	}
	for _, b := range w.Bombs {
		if !b.Live() || b.Phase == game.PhaseFlying || b.HeldBy >= 0 {
			continue
		}
		for _, pos := range blastCells(w, b.Cell(), b.Range) {
			c.add(pos, cfg.BlastCost)
		}
	}
	return c
}

// blastCells lists the cells a bomb at origin with the given range would set
// on fire: rays stop at walls fire cannot enter, and after bricks, items and
// other bombs.
func blastCells(w *game.World, origin game.Position, reach int) []game.Position {
	g := w.Grid
	cells := []game.Position{origin}
	for _, d := range game.Directions {
		for r := 1; r <= reach; r++ {
			pos := origin.Add(d, r)
			if !g.InBounds(pos) || g.Wall(pos).StopsFire() {
				break
			}
			cells = append(cells, pos)
			if g.Wall(pos) == game.Brick || g.Item(pos) != game.ItemNone || w.BombAt(pos) != nil {
				break
			}
		}
	}
	return cells
}

// reachable returns the breadth-first distances of every cell connected to
// from, in visiting order.
func (c *costGrid) reachable(from game.Position) ([]game.Position, map[game.Position]int) {
	dist := map[game.Position]int{from: 0}
	order := []game.Position{from}
	for i := 0; i < len(order); i++ {
		cur := order[i]
		for _, d := range game.Directions {
			next := cur.Add(d, 1)
			if _, seen := dist[next]; seen || !c.passable(next) {
				continue
			}
			dist[next] = dist[cur] + 1
			order = append(order, next)
		}
	}
	return order, dist
}
