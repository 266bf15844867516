package game

// playerSpan is the closest two living players may get along a line.
const playerSpan = CellUnits * 3 / 4

// Speed returns the sub-cell distance p may walk this tick.
func (w *World) Speed(p *Player) int {
	cfg := w.Config.Player
	switch {
	case p.Sick(DiseaseSlow, w.Tick):
		return cfg.MinSpeed
	case p.Sick(DiseaseFast, w.Tick):
		return cfg.MaxSpeed
	}
	return min(cfg.BaseSpeed+p.Items[ItemRollerSkates]*cfg.SkateBonus, cfg.MaxSpeed)
}

// passable reports whether p may walk into pos.
func (w *World) passable(p *Player, pos Position) bool {
	c := w.Grid.Cell(pos)
	if c == nil {
		return false
	}
	switch c.Wall {
	case Empty, DeathWarning:
	case Brick:
		if !p.Has(ItemWallClimbing) {
			return false
		}
	default:
		return false
	}
	return w.BombAt(pos) == nil
}

// move walks p toward dir for one tick. When p cannot move at all it tries
// the gateway or the bomb ahead.
func (w *World) move(p *Player, dir Direction) {
	step, speed := w.steer(p, dir, w.Speed(p))
	speed = w.clampPlayers(p, step, speed)
	if speed > 0 {
		dx, dy := step.Delta()
		p.X += dx * speed
		p.Y += dy * speed
		return
	}

	ahead := p.Cell().Add(dir, 1)
	if w.Grid.Wall(ahead) == GatewayEntrance {
		w.teleport(p, ahead, dir)
		return
	}
	if b := w.BombAt(ahead); b != nil && b.Phase == PhaseStanding && p.Has(ItemBoots) {
		b.Phase = PhaseRolling
		b.Direction = dir
		b.DetonatingOnHit = w.Config.Bomb.KickedBombsDetonateOnHit
		p.setActivity(Kicking)
		w.sound(SoundKick, p.Index)
	}
}

// steer resolves the requested direction into the direction actually walked
// and its speed.
//
// Off the line of travel, the first kind of correction walks back onto the
// line when the cell ahead is free. Failing that, a player within the
// correction sensitivity of the cell boundary takes the second kind: it slides
// onto the neighbouring line when both the side cell and the cell diagonally
// ahead are free. Both corrections stop exactly on the target line.
func (w *World) steer(p *Player, dir Direction, speed int) (Direction, int) {
	cell := p.Cell()
	cx, cy := cell.Centre()
	dx, dy := dir.Delta()
	var along, across int
	var toLine Direction
	if dir.Horizontal() {
		along, across = (p.X-cx)*dx, p.Y-cy
		toLine = DirDown
		if across > 0 {
			toLine = DirUp
		}
	} else {
		along, across = (p.Y-cy)*dy, p.X-cx
		toLine = DirRight
		if across > 0 {
			toLine = DirLeft
		}
	}
	ahead := cell.Add(dir, 1)

	if across != 0 {
		if w.passable(p, ahead) {
			return toLine, min(speed, abs(across))
		}
		sensitivity := w.Config.Player.CorrectionSensitivity
		if abs(across) >= cellHalf-sensitivity {
			away := toLine.Opposite()
			side := cell.Add(away, 1)
			if w.passable(p, side) && w.passable(p, side.Add(dir, 1)) {
				return away, min(speed, CellUnits-abs(across))
			}
		}
	} else if w.passable(p, ahead) {
		return dir, speed
	}
	if along < 0 {
		return dir, min(speed, -along)
	}
	return dir, 0
}

// clampPlayers shortens a step so p keeps its distance to living players
// ahead on the same line.
func (w *World) clampPlayers(p *Player, dir Direction, speed int) int {
	dx, dy := dir.Delta()
	for _, q := range w.Players {
		if q == p || !q.Alive() {
			continue
		}
		var gap, side int
		if dx != 0 {
			gap, side = (q.X-p.X)*dx, q.Y-p.Y
		} else {
			gap, side = (q.Y-p.Y)*dy, q.X-p.X
		}
		if gap <= 0 || abs(side) >= playerSpan {
			continue
		}
		speed = min(speed, max(0, gap-playerSpan))
	}
	return speed
}

// teleport moves p through the gateway entrance at entrance to the cell
// beyond the paired exit, if that cell is free.
func (w *World) teleport(p *Player, entrance Position, dir Direction) {
	exit, ok := w.Grid.GatewayExitFor(entrance)
	if !ok {
		return
	}
	dest := exit.Add(dir, 1)
	if !w.passable(p, dest) || w.PlayerAt(dest) != nil {
		return
	}
	p.X, p.Y = dest.Centre()
	w.sound(SoundTeleport, p.Index)
}
