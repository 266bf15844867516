package game

import "fmt"

// ShrinkKind selects the arena pressure strategy of a round.
type ShrinkKind int

const (
	ShrinkNone ShrinkKind = iota
	ShrinkSpiral
	ShrinkFallingBombs
	ShrinkDeathLines
	ShrinkDiseaseSeeding
	ShrinkMassKill
	ShrinkSingleSurvivor
	shrinkKindCount
)

var shrinkNames = [shrinkKindCount]string{"none", "spiral", "falling_bombs", "death_lines", "disease", "mass_kill", "single_survivor"}

func (k ShrinkKind) String() string {
	if k < 0 || k >= shrinkKindCount {
		return fmt.Sprintf("shrink(%d)", int(k))
	}
	return shrinkNames[k]
}

// ParseShrinkKind parses a strategy name as used in configuration files.
func ParseShrinkKind(s string) (ShrinkKind, error) {
	for i, name := range shrinkNames {
		if name == s {
			return ShrinkKind(i), nil
		}
	}
	return ShrinkNone, fmt.Errorf("unknown shrink strategy %q", s)
}

// ShrinkPerformer forces confrontation late in a round. Implementations only
// change the world through its mutators.
type ShrinkPerformer interface {
	Kind() ShrinkKind
	InitRound(w *World)
	Tick(w *World)
}

// NewShrinkPerformer returns a fresh strategy of the given kind.
func NewShrinkPerformer(kind ShrinkKind) ShrinkPerformer {
	switch kind {
	case ShrinkSpiral:
		return &spiralShrink{}
	case ShrinkFallingBombs:
		return &fallingBombsShrink{}
	case ShrinkDeathLines:
		return &deathLinesShrink{}
	case ShrinkDiseaseSeeding:
		return &diseaseShrink{}
	case ShrinkMassKill, ShrinkSingleSurvivor:
		return &countdownShrink{kind: kind}
	default:
		return noShrink{}
	}
}

// shrinkGate holds a strategy back until StartAfterTicks have passed in the
// round and then lets one operation through per frequency ticks.
type shrinkGate struct {
	started bool
	lastOp  int64
}

func (g *shrinkGate) ready(w *World, frequency int) bool {
	if w.RoundTick < int64(w.Config.Shrink.StartAfterTicks) {
		return false
	}
	if g.started && w.RoundTick-g.lastOp <= int64(frequency) {
		return false
	}
	g.started = true
	g.lastOp = w.RoundTick
	return true
}

type pendingCell struct {
	pos Position
	due int64
}

// settle turns due warnings into death walls and republishes the others.
func settle(w *World, pending []pendingCell) []pendingCell {
	kept := pending[:0]
	for _, pc := range pending {
		if w.RoundTick >= pc.due {
			w.SetDeath(pc.pos)
			continue
		}
		w.Warnings = append(w.Warnings, pc.pos)
		kept = append(kept, pc)
	}
	return kept
}

// freeCell reports whether pos is an empty cell without item, fire, bomb or
// player.
func (w *World) freeCell(pos Position) bool {
	c := w.Grid.Cell(pos)
	return c != nil && c.Wall == Empty && c.Item == ItemNone && len(c.Fires) == 0 &&
		w.BombAt(pos) == nil && w.PlayerAt(pos) == nil
}

type noShrink struct{}

func (noShrink) Kind() ShrinkKind { return ShrinkNone }
func (noShrink) InitRound(*World) {}
func (noShrink) Tick(*World)      {}

// spiralShrink closes the arena ring by ring, clockwise from the top left.
type spiralShrink struct {
	gate    shrinkGate
	order   []Position
	next    int
	pending []pendingCell
}

func (s *spiralShrink) Kind() ShrinkKind { return ShrinkSpiral }

func (s *spiralShrink) InitRound(w *World) {
	*s = spiralShrink{order: spiralOrder(w.Grid)}
}

func (s *spiralShrink) Tick(w *World) {
	s.pending = settle(w, s.pending)
	if !s.gate.ready(w, w.Config.Shrink.SpiralFrequency) {
		return
	}
	for s.next < len(s.order) {
		pos := s.order[s.next]
		s.next++
		switch w.Grid.Wall(pos) {
		case Concrete, Death, DeathWarning, GatewayEntrance, GatewayExit:
			continue
		}
		w.SetWall(pos, DeathWarning)
		s.pending = append(s.pending, pendingCell{pos: pos, due: w.RoundTick + int64(w.Config.Shrink.WarningTicks)})
		w.Warnings = append(w.Warnings, pos)
		w.sound(SoundWarning, -1)
		return
	}
}

func spiralOrder(g *Grid) []Position {
	var out []Position
	seen := make(map[Position]bool)
	add := func(x, y int) {
		pos := Position{X: x, Y: y}
		if !seen[pos] {
			seen[pos] = true
			out = append(out, pos)
		}
	}
	for r := 1; r <= (min(g.Width, g.Height)-1)/2; r++ {
		left, top, right, bottom := r, r, g.Width-1-r, g.Height-1-r
		for x := left; x <= right; x++ {
			add(x, top)
		}
		for y := top + 1; y <= bottom; y++ {
			add(right, y)
		}
		for x := right - 1; x >= left; x-- {
			add(x, bottom)
		}
		for y := bottom - 1; y > top; y-- {
			add(left, y)
		}
	}
	return out
}

// fallingBombsShrink warns about a landing cell and then throws an unowned
// bomb onto it from the border.
type fallingBombsShrink struct {
	gate    shrinkGate
	pending []pendingDrop
}

type pendingDrop struct {
	from  Position
	dir   Direction
	cells int
	due   int64
}

func (s *fallingBombsShrink) Kind() ShrinkKind { return ShrinkFallingBombs }

func (s *fallingBombsShrink) InitRound(*World) {
	*s = fallingBombsShrink{}
}

func (s *fallingBombsShrink) Tick(w *World) {
	kept := s.pending[:0]
	for _, d := range s.pending {
		if w.RoundTick < d.due {
			w.Warnings = append(w.Warnings, d.from.Add(d.dir, d.cells))
			kept = append(kept, d)
			continue
		}
		x, y := d.from.Centre()
		w.AddBomb(&Bomb{
			X:           x,
			Y:           y,
			Phase:       PhaseFlying,
			Range:       w.Config.Player.InitialRange,
			Owner:       -1,
			Triggerer:   -1,
			Direction:   d.dir,
			FlightCells: d.cells,
			HeldBy:      -1,
		})
	}
	s.pending = kept

	if !s.gate.ready(w, w.Config.Shrink.FallingBombsFrequency) {
		return
	}
	g := w.Grid
	var drop pendingDrop
	switch side := Directions[w.rng.Intn(len(Directions))]; side {
	case DirUp:
		drop = pendingDrop{from: Position{X: 1 + w.rng.Intn(g.Width-2), Y: 0}, dir: DirDown}
	case DirDown:
		drop = pendingDrop{from: Position{X: 1 + w.rng.Intn(g.Width-2), Y: g.Height - 1}, dir: DirUp}
	case DirLeft:
		drop = pendingDrop{from: Position{X: 0, Y: 1 + w.rng.Intn(g.Height-2)}, dir: DirRight}
	default:
		drop = pendingDrop{from: Position{X: g.Width - 1, Y: 1 + w.rng.Intn(g.Height-2)}, dir: DirLeft}
	}
	span := g.Width - 2
	if !drop.dir.Horizontal() {
		span = g.Height - 2
	}
	drop.cells = 1 + w.rng.Intn(span)
	drop.due = w.RoundTick + int64(w.Config.Shrink.WarningTicks)
	s.pending = append(s.pending, drop)
	w.sound(SoundWarning, -1)
}

// deathLinesShrink partitions the arena: it walks a death line through the
// middle of the current region, then keeps the half holding more living
// players and repeats there.
type deathLinesShrink struct {
	gate   shrinkGate
	region rect
	halves [2]rect
	line   []Position
	next   int
	done   bool
}

type rect struct{ x0, y0, x1, y1 int }

func (r rect) contains(p Position) bool {
	return p.X >= r.x0 && p.X <= r.x1 && p.Y >= r.y0 && p.Y <= r.y1
}

func (s *deathLinesShrink) Kind() ShrinkKind { return ShrinkDeathLines }

func (s *deathLinesShrink) InitRound(w *World) {
	*s = deathLinesShrink{region: rect{1, 1, w.Grid.Width - 2, w.Grid.Height - 2}}
	s.split()
}

func (s *deathLinesShrink) split() {
	r := s.region
	width, height := r.x1-r.x0+1, r.y1-r.y0+1
	s.line, s.next = nil, 0
	switch {
	case width < 3 && height < 3:
		s.done = true
	case width >= height:
		mid := (r.x0 + r.x1) / 2
		for y := r.y0; y <= r.y1; y++ {
			s.line = append(s.line, Position{X: mid, Y: y})
		}
		s.halves = [2]rect{{r.x0, r.y0, mid - 1, r.y1}, {mid + 1, r.y0, r.x1, r.y1}}
	default:
		mid := (r.y0 + r.y1) / 2
		for x := r.x0; x <= r.x1; x++ {
			s.line = append(s.line, Position{X: x, Y: mid})
		}
		s.halves = [2]rect{{r.x0, r.y0, r.x1, mid - 1}, {r.x0, mid + 1, r.x1, r.y1}}
	}
}

func (s *deathLinesShrink) Tick(w *World) {
	if s.done {
		return
	}
	if s.next < len(s.line) {
		w.Warnings = append(w.Warnings, s.line[s.next])
	}
	if !s.gate.ready(w, w.Config.Shrink.DeathLinesFrequency) {
		return
	}
	for s.next < len(s.line) {
		pos := s.line[s.next]
		s.next++
		if wall := w.Grid.Wall(pos); wall == Concrete || wall == Death || wall.IsGateway() {
			continue
		}
		w.SetDeath(pos)
		return
	}

	var counts [2]int
	for _, p := range w.Players {
		for i, h := range s.halves {
			if p.Alive() && h.contains(p.Cell()) {
				counts[i]++
			}
		}
	}
	keep := 0
	switch {
	case counts[1] > counts[0]:
		keep = 1
	case counts[1] == counts[0]:
		keep = w.rng.Intn(2)
	}
	s.region = s.halves[keep]
	s.split()
}

// diseaseShrink seeds disease items on free cells.
type diseaseShrink struct {
	gate shrinkGate
}

const diseaseSeedTrials = 20

func (s *diseaseShrink) Kind() ShrinkKind { return ShrinkDiseaseSeeding }

func (s *diseaseShrink) InitRound(*World) {
	*s = diseaseShrink{}
}

func (s *diseaseShrink) Tick(w *World) {
	if !s.gate.ready(w, w.Config.Shrink.DiseaseFrequency) {
		return
	}
	g := w.Grid
	for i := 0; i < diseaseSeedTrials; i++ {
		pos := Position{X: 1 + w.rng.Intn(g.Width-2), Y: 1 + w.rng.Intn(g.Height-2)}
		if w.freeCell(pos) && w.AddItem(pos, ItemDisease) {
			return
		}
	}
}

// countdownShrink arms a countdown once the round is old enough. When it runs
// out, every living player dies, or everyone but the healthiest player for
// the single survivor variant.
type countdownShrink struct {
	kind     ShrinkKind
	gate     shrinkGate
	armed    bool
	fired    bool
	deadline int64
}

func (s *countdownShrink) Kind() ShrinkKind { return s.kind }

func (s *countdownShrink) InitRound(*World) {
	*s = countdownShrink{kind: s.kind}
}

func (s *countdownShrink) Tick(w *World) {
	if s.fired {
		return
	}
	if !s.armed {
		if !s.gate.ready(w, 0) {
			return
		}
		s.armed = true
		s.deadline = w.RoundTick + int64(w.Config.Shrink.CountdownTicks)
		w.sound(SoundWarning, -1)
	}
	w.Countdown = int(s.deadline - w.RoundTick)
	if w.Countdown > 0 {
		return
	}
	s.fired = true
	w.Countdown = 0

	survivor := -1
	if s.kind == ShrinkSingleSurvivor {
		survivor = s.healthiest(w)
	}
	for _, p := range w.Players {
		if p.Alive() && p.Index != survivor {
			w.killPlayer(p, -1)
		}
	}
}

// healthiest returns the living player with the most vitality; ties are
// broken at random.
func (s *countdownShrink) healthiest(w *World) int {
	var best []int
	top := 0
	for _, p := range w.Players {
		switch {
		case !p.Alive():
		case p.Vitality > top:
			top, best = p.Vitality, []int{p.Index}
		case p.Vitality == top:
			best = append(best, p.Index)
		}
	}
	if len(best) == 0 {
		return -1
	}
	return best[w.rng.Intn(len(best))]
}
