package game

// resolveDetonations seeds bombs standing in fire, then explodes waves of
// flagged bombs until no new bomb is flagged. Rays that reach another bomb
// flag it for the next wave and credit it to the same triggerer.
func (w *World) resolveDetonations() error {
	for _, b := range w.Bombs {
		if !b.grounded() || b.AboutToDetonate {
			continue
		}
		if f := w.LastFire(b.Cell()); f != nil {
			b.AboutToDetonate = true
			b.Triggerer = f.Triggerer
		}
	}

	for pass := 0; ; pass++ {
		var wave []*Bomb
		for _, b := range w.Bombs {
			if b.AboutToDetonate && !b.Detonated && !b.Dead {
				wave = append(wave, b)
			}
		}
		if len(wave) == 0 {
			return nil
		}
		if pass > len(w.Bombs) {
			return invariantf("detonation", "chain did not settle after %d passes", pass)
		}
		for _, b := range wave {
			if err := w.explode(b); err != nil {
				return err
			}
		}
		for _, b := range wave {
			b.Detonated = true
			b.EndedAt = w.Tick
			if b.HeldBy >= 0 {
				if holder := w.Player(b.HeldBy); holder != nil {
					holder.Carrying = -1
				}
				b.HeldBy = -1
			}
			if w.bombAt[b.Cell()] == b {
				delete(w.bombAt, b.Cell())
			}
			w.sound(SoundExplosion, b.Owner)
		}
	}
}

func (w *World) explode(b *Bomb) error {
	origin := b.Cell()
	if !w.Grid.InBounds(origin) {
		return invariantf("detonation", "bomb %d at (%d,%d) is outside the grid", b.ID, b.X, b.Y)
	}
	c := w.Grid.Cell(origin)
	w.addFire(origin, FireCrossing, b.Owner, b.Triggerer, c.Wall == Brick || c.Item != ItemNone)

	for _, d := range Directions {
		if b.Excluded.Has(d) {
			continue
		}
		shape := FireVertical
		if d.Horizontal() {
			shape = FireHorizontal
		}
		for r := 1; r <= b.Range; r++ {
			pos := origin.Add(d, r)
			c := w.Grid.Cell(pos)
			if c == nil || c.Wall.StopsFire() {
				break
			}
			if other := w.BombAt(pos); other != nil && other != b && other.Live() {
				if !other.AboutToDetonate {
					other.AboutToDetonate = true
					other.Triggerer = b.Triggerer
					other.Excluded = other.Excluded.With(d.Opposite())
				}
				break
			}
			destroys := c.Wall == Brick || c.Item != ItemNone
			w.addFire(pos, shape, b.Owner, b.Triggerer, destroys)
			if destroys {
				break
			}
		}
	}
	return nil
}
