package ai

import (
	"container/heap"

	"github.com/amalg/blastgrid/internal/game"
)

type pathNode struct {
	pos    game.Position
	g      int
	f      int
	seq    int
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

// Less orders by estimate, then by insertion so equal paths resolve the same
// way on every machine.
func (pq pathQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

func manhattan(a, b game.Position) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// astar finds the cheapest 4-connected path from start to goal. A step costs
// one plus the danger of the cell entered. The returned path starts with
// start and ends with goal.
func (c *costGrid) astar(start, goal game.Position) ([]game.Position, int, bool) {
	if !c.inBounds(start) || !c.passable(goal) {
		return nil, 0, false
	}
	open := &pathQueue{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &pathNode{pos: start, f: manhattan(start, goal)})
	gScore := map[game.Position]int{start: 0}
	closed := make(map[game.Position]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if _, seen := closed[current.pos]; seen {
			continue
		}
		closed[current.pos] = struct{}{}
		if current.pos == goal {
			return reconstructPath(current), current.g, true
		}

		for _, d := range game.Directions {
			next := current.pos.Add(d, 1)
			if !c.passable(next) {
				continue
			}
			if _, seen := closed[next]; seen {
				continue
			}
			tentativeG := current.g + 1 + c.at(next)
			if prev, ok := gScore[next]; ok && tentativeG >= prev {
				continue
			}
			gScore[next] = tentativeG
			seq++
			heap.Push(open, &pathNode{
				pos:    next,
				g:      tentativeG,
				f:      tentativeG + manhattan(next, goal),
				seq:    seq,
				parent: current,
			})
		}
	}
	return nil, 0, false
}

func reconstructPath(end *pathNode) []game.Position {
	path := make([]game.Position, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, node.pos)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// target is a candidate destination ranked by danger, then distance.
type target struct {
	pos   game.Position
	cost  int
	dist  int
	order int
}

type targetQueue []target

func (q targetQueue) Len() int { return len(q) }

func (q targetQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].order < q[j].order
}

func (q targetQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *targetQueue) Push(x any) { *q = append(*q, x.(target)) }

func (q *targetQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
