package game

import "sort"

// Spawn is the cell every generated level is guaranteed to connect to.
var Spawn = Position{X: 1, Y: 1}

const deblockIterations = 1000

// GenerateLevel builds a random level: concrete border and lattice, random
// bricks and concrete in between, optional gateway pairs on the border, then
// a deblock pass that makes every non-concrete cell reachable from Spawn.
func GenerateLevel(rng *Rand, cfg LevelConfig) (*Grid, error) {
	g := NewGrid(cfg.Width, cfg.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			pos := Position{X: x, Y: y}
			switch {
			case g.onBorder(pos), x%2 == 0 && y%2 == 0:
				g.SetWall(pos, Concrete)
			default:
				roll := rng.Intn(100)
				switch {
				case roll < cfg.BrickPercent:
					g.SetWall(pos, Brick)
				case roll < cfg.BrickPercent+cfg.ConcretePercent:
					g.SetWall(pos, Concrete)
				}
			}
		}
	}
	g.SetWall(Spawn, Empty)

	if cfg.Gateways > 0 {
		placeGateways(g, rng, cfg.Gateways)
	}
	if err := deblock(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grid) onBorder(pos Position) bool {
	return pos.X == 0 || pos.Y == 0 || pos.X == g.Width-1 || pos.Y == g.Height-1
}

// placeGateways puts entrances on the right (or bottom) border and exits on
// the opposite border, at odd coordinates so the inner neighbour is never
// part of the lattice. The inner neighbours are cleared.
func placeGateways(g *Grid, rng *Rand, pairs int) {
	horizontal := rng.Intn(2) == 0
	span := g.Height
	if !horizontal {
		span = g.Width
	}
	var slots []int
	for i := 1; i < span-1; i += 2 {
		slots = append(slots, i)
	}
	pick := func(n int) []int {
		pool := append([]int(nil), slots...)
		out := make([]int, 0, n)
		for len(out) < n && len(pool) > 0 {
			i := rng.Intn(len(pool))
			out = append(out, pool[i])
			pool = append(pool[:i], pool[i+1:]...)
		}
		sort.Ints(out)
		return out
	}
	if pairs > len(slots) {
		pairs = len(slots)
	}
	entrances, exits := pick(pairs), pick(pairs)
	for i := range entrances {
		var in, out Position
		var dir Direction
		if horizontal {
			in, out, dir = Position{X: g.Width - 1, Y: entrances[i]}, Position{X: 0, Y: exits[i]}, DirRight
		} else {
			in, out, dir = Position{X: entrances[i], Y: g.Height - 1}, Position{X: exits[i], Y: 0}, DirDown
		}
		g.SetWall(in, GatewayEntrance)
		g.SetWall(out, GatewayExit)
		if inner := in.Add(dir.Opposite(), 1); g.Wall(inner) == Concrete {
			g.SetWall(inner, Empty)
		}
		if inner := out.Add(dir, 1); g.Wall(inner) == Concrete {
			g.SetWall(inner, Empty)
		}
	}
}

// deblock converts interior concrete to brick until every non-concrete cell
// connects to Spawn. The first unconnected cell in row-major order opens its
// left or upper neighbour; odd rows prefer the left one.
func deblock(g *Grid) error {
	limit := max(deblockIterations, g.Width*g.Height)
	for i := 0; i < limit; i++ {
		unknown := g.Unreachable(Spawn)
		if len(unknown) == 0 {
			return nil
		}
		u := unknown[0]
		order := [2]Direction{DirUp, DirLeft}
		if u.Y%2 == 1 {
			order = [2]Direction{DirLeft, DirUp}
		}
		opened := false
		for _, d := range order {
			n := u.Add(d, 1)
			if !g.onBorder(n) && g.Wall(n) == Concrete {
				g.SetWall(n, Brick)
				opened = true
				break
			}
		}
		if !opened {
			return invariantf("deblock", "cell %v has no convertible neighbour", u)
		}
	}
	if unknown := g.Unreachable(Spawn); len(unknown) > 0 {
		return invariantf("deblock", "%d cells unreachable after %d iterations", len(unknown), limit)
	}
	return nil
}
