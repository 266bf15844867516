package game

// fuse returns the number of ticking iterations before a bomb goes off.
func (c BombConfig) fuse() int {
	return max(1, c.DetonationIterations*c.ExplodingTimeMultiplier/100)
}

// Range returns the explosion range of bombs the player places now.
func (w *World) Range(p *Player) int {
	cfg := w.Config.Player
	if p.Sick(DiseaseShortFire, w.Tick) {
		return 1
	}
	if p.Has(ItemSuperFire) {
		return cfg.MaxRange
	}
	return min(cfg.InitialRange+p.Items[ItemFire], cfg.MaxRange)
}

// stepBombs advances every live bomb in insertion order.
func (w *World) stepBombs() {
	fuse := w.Config.Bomb.fuse()
	for _, b := range w.Bombs {
		if !b.Live() {
			continue
		}
		if b.HeldBy >= 0 {
			if holder := w.Player(b.HeldBy); holder != nil {
				b.X, b.Y = holder.X, holder.Y
			}
			continue
		}
		switch b.Phase {
		case PhaseFlying:
			w.stepFlying(b)
		case PhaseRolling:
			w.stepRolling(b)
		}
		if !b.Live() || b.Phase == PhaseFlying || b.Type == BombTriggered || b.AboutToDetonate {
			continue
		}
		b.Ticking++
		if b.Ticking >= fuse {
			b.AboutToDetonate = true
			b.Triggerer = b.Owner
		}
	}
}

func atCentre(x, y int) bool {
	return floorMod(x-cellHalf, CellUnits) == 0 && floorMod(y-cellHalf, CellUnits) == 0
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// towardCentre moves the axis coordinate a by at most speed in the direction
// of sign, never past the next cell centre. It reports whether the centre was
// reached.
func towardCentre(a, sign, speed int) (int, bool) {
	rel := a - cellHalf
	var next int
	if sign > 0 {
		next = (floorDiv(rel, CellUnits) + 1) * CellUnits
	} else {
		next = (-floorDiv(-rel, CellUnits) - 1) * CellUnits
	}
	dist := next - rel
	if dist < 0 {
		dist = -dist
	}
	if speed >= dist {
		return next + cellHalf, true
	}
	return a + sign*speed, false
}

// advanceBomb moves b toward the next centre in its direction and keeps the
// cell index current.
func (w *World) advanceBomb(b *Bomb, speed int) bool {
	dx, dy := b.Direction.Delta()
	from := b.Cell()
	var reached bool
	if dx != 0 {
		b.X, reached = towardCentre(b.X, dx, speed)
	} else {
		b.Y, reached = towardCentre(b.Y, dy, speed)
	}
	if to := b.Cell(); to != from && b.grounded() {
		if w.bombAt[from] == b {
			delete(w.bombAt, from)
		}
		if _, taken := w.bombAt[to]; !taken {
			w.bombAt[to] = b
		}
	}
	return reached
}

// bombBlocked reports whether a rolling bomb cannot enter pos.
func (w *World) bombBlocked(pos Position, self *Bomb) bool {
	c := w.Grid.Cell(pos)
	if c == nil || c.Wall != Empty || c.Item != ItemNone {
		return true
	}
	if other := w.BombAt(pos); other != nil && other != self {
		return true
	}
	return w.PlayerAt(pos) != nil
}

func (w *World) stepFlying(b *Bomb) {
	cfg := w.Config.Bomb
	if atCentre(b.X, b.Y) {
		if b.FlightCells <= 0 {
			if w.tryLand(b) {
				return
			}
			b.FlightCells = 1
			if b.Type == BombJelly {
				b.Direction = Directions[w.rng.Intn(len(Directions))]
			}
		}
		if !w.Grid.InBounds(b.Cell().Add(b.Direction, 1)) {
			if cfg.FlyingBombsDieOffGrid {
				w.killBomb(b)
				return
			}
			b.Direction = b.Direction.Opposite()
		}
	}
	if w.advanceBomb(b, cfg.FlyingSpeed) {
		b.FlightCells--
		if b.FlightCells <= 0 {
			w.tryLand(b)
		}
	}
}

// tryLand settles a flying bomb on a free cell.
func (w *World) tryLand(b *Bomb) bool {
	pos := b.Cell()
	c := w.Grid.Cell(pos)
	if c == nil || c.Wall != Empty || c.Item != ItemNone || w.BombAt(pos) != nil || w.PlayerAt(pos) != nil {
		return false
	}
	b.Phase = PhaseStanding
	b.FlightCells = 0
	w.bombAt[pos] = b
	return true
}

func (w *World) stepRolling(b *Bomb) {
	cfg := w.Config.Bomb
	if atCentre(b.X, b.Y) {
		cell := b.Cell()
		if w.rng.Percent(cfg.CrazyPercent) {
			if d := Directions[w.rng.Intn(len(Directions))]; !w.bombBlocked(cell.Add(d, 1), b) {
				b.Direction = d
			}
		}
		if w.bombBlocked(cell.Add(b.Direction, 1), b) {
			switch {
			case b.DetonatingOnHit:
				b.AboutToDetonate = true
				b.Phase = PhaseStanding
			case b.Type == BombJelly && !w.bombBlocked(cell.Add(b.Direction.Opposite(), 1), b):
				b.Direction = b.Direction.Opposite()
			default:
				b.Phase = PhaseStanding
			}
			if b.Phase == PhaseStanding {
				return
			}
		}
	}
	w.advanceBomb(b, cfg.RollingSpeed)
}

// launch sends a grounded or held bomb flying from the centre of its cell.
func (w *World) launch(b *Bomb, dir Direction, cells int) {
	pos := b.Cell()
	if w.bombAt[pos] == b {
		delete(w.bombAt, pos)
	}
	b.X, b.Y = pos.Centre()
	b.HeldBy = -1
	b.Phase = PhaseFlying
	b.Direction = dir
	b.FlightCells = cells
}
