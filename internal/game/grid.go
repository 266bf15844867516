package game

import (
	"github.com/zyedidia/generic/mapset"
)

// Cell is one grid tile.
type Cell struct {
	Wall  Wall
	Item  Item
	Fires []int // fire ids in arrival order; the last one has precedence
}

// Grid is a fixed width×height array of cells. Cells are mutated in place.
type Grid struct {
	Width  int
	Height int
	cells  []Cell
}

// NewGrid returns a grid of empty cells.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		cells:  make([]Cell, width*height),
	}
}

// InBounds reports whether pos lies on the grid.
func (g *Grid) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < g.Width && pos.Y < g.Height
}

// Cell returns the cell at pos, or nil when pos is off the grid.
func (g *Grid) Cell(pos Position) *Cell {
	if !g.InBounds(pos) {
		return nil
	}
	return &g.cells[pos.Y*g.Width+pos.X]
}

// Wall returns the wall at pos. Off-grid positions read as Concrete.
func (g *Grid) Wall(pos Position) Wall {
	if c := g.Cell(pos); c != nil {
		return c.Wall
	}
	return Concrete
}

// Item returns the item at pos.
func (g *Grid) Item(pos Position) Item {
	if c := g.Cell(pos); c != nil {
		return c.Item
	}
	return ItemNone
}

// Burning reports whether any fire is active at pos.
func (g *Grid) Burning(pos Position) bool {
	c := g.Cell(pos)
	return c != nil && len(c.Fires) > 0
}

// SetWall replaces the wall at pos.
func (g *Grid) SetWall(pos Position, w Wall) {
	if c := g.Cell(pos); c != nil {
		c.Wall = w
	}
}

// SetItem replaces the item at pos.
func (g *Grid) SetItem(pos Position, it Item) {
	if c := g.Cell(pos); c != nil {
		c.Item = it
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{Width: g.Width, Height: g.Height, cells: make([]Cell, len(g.cells))}
	for i, c := range g.cells {
		out.cells[i] = Cell{Wall: c.Wall, Item: c.Item}
		if len(c.Fires) > 0 {
			out.cells[i].Fires = append([]int(nil), c.Fires...)
		}
	}
	return out
}

// Gateways returns entrances and exits in row-major order. The i-th entrance
// leads to the i-th exit.
func (g *Grid) Gateways() (entrances, exits []Position) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			switch g.cells[y*g.Width+x].Wall {
			case GatewayEntrance:
				entrances = append(entrances, Position{X: x, Y: y})
			case GatewayExit:
				exits = append(exits, Position{X: x, Y: y})
			}
		}
	}
	return entrances, exits
}

// GatewayExitFor returns the exit paired with the entrance at pos.
func (g *Grid) GatewayExitFor(pos Position) (Position, bool) {
	entrances, exits := g.Gateways()
	for i, e := range entrances {
		if e == pos && i < len(exits) {
			return exits[i], true
		}
	}
	return Position{}, false
}

// walkableForLayout is the reachability relation used by level generation:
// everything except concrete and gateways connects.
func walkableForLayout(w Wall) bool {
	return w != Concrete && !w.IsGateway()
}

// Reachable returns the set of cells connected to from through cells that
// are neither concrete nor gateways.
func (g *Grid) Reachable(from Position) mapset.Set[Position] {
	visited := mapset.New[Position]()
	if !g.InBounds(from) || !walkableForLayout(g.Wall(from)) {
		return visited
	}
	visited.Put(from)
	queue := []Position{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range Directions {
			next := cur.Add(d, 1)
			if !g.InBounds(next) || visited.Has(next) || !walkableForLayout(g.Wall(next)) {
				continue
			}
			visited.Put(next)
			queue = append(queue, next)
		}
	}
	return visited
}

// Unreachable lists the layout-walkable cells not connected to from, in
// row-major order.
func (g *Grid) Unreachable(from Position) []Position {
	reached := g.Reachable(from)
	var out []Position
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			pos := Position{X: x, Y: y}
			if walkableForLayout(g.Wall(pos)) && !reached.Has(pos) {
				out = append(out, pos)
			}
		}
	}
	return out
}
