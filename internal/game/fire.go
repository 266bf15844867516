package game

import log "github.com/sirupsen/logrus"

// stepFires counts fires down and removes expired ones. The last fire to
// leave a cell it was meant to destroy burns the brick (maybe leaving an
// item) or the item lying there.
func (w *World) stepFires() {
	kept := w.Fires[:0]
	var expired []*Fire
	for _, f := range w.Fires {
		f.Iterations--
		if f.Iterations > 0 {
			kept = append(kept, f)
			continue
		}
		expired = append(expired, f)
	}
	for i := len(kept); i < len(w.Fires); i++ {
		w.Fires[i] = nil
	}
	w.Fires = kept

	for _, f := range expired {
		delete(w.fireByID, f.ID)
		c := w.Grid.Cell(f.Pos)
		c.Fires = removeID(c.Fires, f.ID)
		if f.Destroys && len(c.Fires) == 0 {
			w.burnCell(f.Pos)
		}
	}
}

func removeID(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func (w *World) burnCell(pos Position) {
	c := w.Grid.Cell(pos)
	switch {
	case c.Wall == Brick:
		c.Wall = Empty
		if c.Item == ItemNone && w.rng.Percent(w.Config.Level.ItemDropPercent) {
			c.Item = w.randomItem()
		}
	case c.Item != ItemNone:
		it := c.Item
		c.Item = ItemNone
		if w.Config.Player.ItemsRelocateOnBurn {
			w.relocateItem(it)
		}
	}
}

func (w *World) randomItem() Item {
	weights := make([]int, ItemCount)
	for i, info := range itemTable {
		weights[i] = info.dropWeight
	}
	if i := w.rng.Weighted(weights); i > 0 {
		return Item(i)
	}
	return ItemBomb
}

// relocateItem moves a burnt item to a random free cell. The item vanishes
// when no cell is free.
func (w *World) relocateItem(it Item) {
	var free []Position
	for y := 0; y < w.Grid.Height; y++ {
		for x := 0; x < w.Grid.Width; x++ {
			pos := Position{X: x, Y: y}
			c := w.Grid.Cell(pos)
			if c.Wall == Empty && c.Item == ItemNone && len(c.Fires) == 0 && w.BombAt(pos) == nil && w.PlayerAt(pos) == nil {
				free = append(free, pos)
			}
		}
	}
	if len(free) == 0 {
		return
	}
	w.Grid.SetItem(free[w.rng.Intn(len(free))], it)
}

// fireDamage is the vitality lost per tick spent in fire. A player standing
// in fire for its whole lifetime loses BombFireDamagePercent of MaxVitality.
func (w *World) fireDamage() int {
	cfg := w.Config
	total := cfg.Player.MaxVitality * cfg.Player.BombFireDamagePercent
	per := 100 * cfg.Bomb.FireIterations
	return (total + per - 1) / per
}

// creditOf returns the player credited for damage from f.
func (w *World) creditOf(f *Fire) int {
	if w.Config.Scoring.CreditTo == CreditOwner {
		return f.Owner
	}
	return f.Triggerer
}

// applyDamage hurts players in fire and kills players inside death walls.
func (w *World) applyDamage() {
	damage := w.fireDamage()
	for _, p := range w.Players {
		if !p.Alive() {
			continue
		}
		pos := p.Cell()
		if w.Grid.Wall(pos) == Death {
			w.killPlayer(p, -1)
			continue
		}
		f := w.LastFire(pos)
		if f == nil {
			continue
		}
		p.LastHitBy = w.creditOf(f)
		p.Vitality -= damage
		if p.Vitality <= 0 {
			w.killPlayer(p, p.LastHitBy)
		}
	}
}

// killPlayer puts p into the dying activity and awards points for the kill.
// killer is -1 when nobody is credited.
func (w *World) killPlayer(p *Player, killer int) {
	p.Vitality = 0
	p.setActivity(Dying)
	for i := range p.Keys {
		p.Keys[i] = false
	}
	if p.Carrying >= 0 {
		if b := w.bombByID(p.Carrying); b != nil {
			pos := p.Cell()
			b.HeldBy = -1
			b.X, b.Y = pos.Centre()
			b.Phase = PhaseStanding
			if _, taken := w.bombAt[pos]; !taken {
				w.bombAt[pos] = b
			}
		}
		p.Carrying = -1
	}

	scoring := w.Config.Scoring
	if k := w.Player(killer); k != nil {
		switch {
		case k == p:
			k.Points += scoring.SelfKillPoints
		case k.Team == p.Team:
			k.Points += scoring.TeamKillPoints
		default:
			k.Points += scoring.KillPoints
			k.Kills++
		}
	}
	w.sound(SoundDeath, p.Index)
	w.emit(EventPlayerDied, p.Index)
	w.log.WithFields(log.Fields{"round": w.Round, "player": p.Index, "killer": killer}).Debug("player died")
}
