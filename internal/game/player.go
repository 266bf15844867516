package game

// stepPlayers advances every player in slot order and latches the key state
// for edge detection on the next tick.
func (w *World) stepPlayers() {
	for _, p := range w.Players {
		w.stepPlayer(p)
		p.PrevKeys = p.Keys
	}
}

func (w *World) stepPlayer(p *Player) {
	for d, until := range p.Diseases {
		if until != 0 && until <= w.Tick {
			p.Diseases[d] = 0
		}
	}

	info := activityTable[p.Activity]
	p.Iteration++
	if p.Iteration >= info.iterations {
		switch {
		case info.repeatable:
			p.Iteration = 0
		case p.Activity == Dying:
			p.Iteration = info.iterations
		default:
			p.setActivity(idleActivity(p))
		}
	}
	if !p.Alive() || p.Activity.busy() {
		return
	}

	if p.pressed(KeyFunction1) || p.Sick(DiseaseDiarrhea, w.Tick) {
		w.placeBombs(p)
	}
	if p.pressed(KeyFunction2) {
		w.function2(p)
	}
	if p.Activity.busy() {
		return
	}

	if dir, ok := w.requestedDirection(p); ok {
		p.Facing = dir
		if p.Carrying >= 0 {
			p.setActivity(WalkingWithBomb)
		} else {
			p.setActivity(Walking)
		}
		w.move(p, dir)
	} else {
		p.setActivity(idleActivity(p))
	}
	w.pickup(p)
}

func idleActivity(p *Player) Activity {
	if p.Carrying >= 0 {
		return StandingWithBomb
	}
	return Standing
}

// requestedDirection picks the direction to walk: a key pressed this tick
// wins, then the held key matching the current facing, then the first held
// key.
func (w *World) requestedDirection(p *Player) (Direction, bool) {
	reverse := p.Sick(DiseaseReverseKeys, w.Tick)
	facing := p.Facing
	if reverse {
		facing = facing.Opposite()
	}
	var dir Direction
	found := false
	for _, d := range Directions {
		k := KeyFor(d)
		if !p.Keys[k] {
			continue
		}
		if p.pressed(k) {
			dir, found = d, true
			break
		}
		if !found || d == facing {
			dir, found = d, true
		}
	}
	if found && reverse {
		dir = dir.Opposite()
	}
	return dir, found
}

// pickupReach is how far from a cell centre a player still collects its
// item.
const pickupReach = CellUnits / 4

// pickup collects the item of the player's cell once the player is within
// pickupReach of its centre and the cell is not burning.
func (w *World) pickup(p *Player) {
	pos := p.Cell()
	cx, cy := pos.Centre()
	if abs(p.X-cx) > pickupReach || abs(p.Y-cy) > pickupReach {
		return
	}
	c := w.Grid.Cell(pos)
	if c.Item == ItemNone || len(c.Fires) > 0 {
		return
	}
	it := c.Item
	c.Item = ItemNone
	w.grantItem(p, it)
	w.sound(SoundPickup, p.Index)
}

func (w *World) grantItem(p *Player, it Item) {
	switch {
	case it == ItemDisease:
		d := Disease(w.rng.Intn(int(DiseaseCount)))
		p.Diseases[d] = w.Tick + int64(w.Config.Player.DiseaseDuration)
	case it.Accumulable():
		p.Items[it]++
	default:
		p.Items[it] = 1
		if anti := itemTable[it].antagonist; anti != ItemNone {
			p.Items[anti] = 0
		}
		w.convertBombs(p, it)
	}
}

// convertBombs switches the player's live bombs after a trigger or jelly
// pick-up.
func (w *World) convertBombs(p *Player, it Item) {
	for _, b := range w.Bombs {
		if b.Owner != p.Index || !b.Live() {
			continue
		}
		switch {
		case it == ItemTrigger:
			b.Type = BombTriggered
		case it == ItemJelly && b.Type == BombTriggered:
			b.Type = BombJelly
		}
	}
}

func (w *World) bombTypeFor(p *Player) BombType {
	switch {
	case p.Has(ItemTrigger):
		return BombTriggered
	case p.Has(ItemJelly):
		return BombJelly
	}
	return BombNormal
}

// placeBombs drops a bomb in the player's cell, or with sprinkle a line of
// bombs along the facing direction until the capacity is used up.
func (w *World) placeBombs(p *Player) {
	if p.Sick(DiseaseNoBombs, w.Tick) || p.Carrying >= 0 {
		return
	}
	free := w.Config.Player.InitialBombs + p.Items[ItemBomb] - w.ownedLiveBombs(p.Index)
	if free <= 0 {
		return
	}
	pos := p.Cell()
	if w.canPlaceBomb(pos) {
		w.placeBomb(p, pos)
		free--
	}
	if !p.Has(ItemSprinkle) {
		return
	}
	for n := 1; free > 0; n++ {
		cell := pos.Add(p.Facing, n)
		if !w.canPlaceBomb(cell) || w.Grid.Item(cell) != ItemNone || w.PlayerAt(cell) != nil {
			return
		}
		w.placeBomb(p, cell)
		free--
	}
}

func (w *World) canPlaceBomb(pos Position) bool {
	return w.Grid.Wall(pos) == Empty && w.BombAt(pos) == nil
}

func (w *World) placeBomb(p *Player, pos Position) {
	x, y := pos.Centre()
	w.AddBomb(&Bomb{
		X:         x,
		Y:         y,
		Phase:     PhaseStanding,
		Type:      w.bombTypeFor(p),
		Range:     w.Range(p),
		Owner:     p.Index,
		Triggerer: p.Index,
		HeldBy:    -1,
	})
	w.sound(SoundPlaceBomb, p.Index)
}

// function2 applies the first capability that has an effect: gloves, then
// trigger, then wall building.
func (w *World) function2(p *Player) {
	if p.Has(ItemGloves) && w.useGloves(p) {
		return
	}
	if p.Has(ItemTrigger) && w.triggerOldest(p) {
		return
	}
	if p.Items[ItemWallBuilding] > 0 {
		w.buildWall(p)
	}
}

// useGloves throws the carried bomb, picks up a bomb from the player's cell
// or punches the bomb ahead.
func (w *World) useGloves(p *Player) bool {
	cfg := w.Config.Bomb
	if p.Carrying >= 0 {
		if b := w.bombByID(p.Carrying); b != nil {
			b.X, b.Y = p.X, p.Y
			w.launch(b, p.Facing, cfg.ThrowDistance)
		}
		p.Carrying = -1
		p.setActivity(Punching)
		w.sound(SoundPunch, p.Index)
		return true
	}
	pos := p.Cell()
	if b := w.BombAt(pos); b != nil && b.Phase == PhaseStanding {
		delete(w.bombAt, pos)
		b.HeldBy = p.Index
		p.Carrying = b.ID
		p.setActivity(PickingUp)
		return true
	}
	if b := w.BombAt(pos.Add(p.Facing, 1)); b != nil {
		w.launch(b, p.Facing, cfg.PunchDistance)
		p.setActivity(Punching)
		w.sound(SoundPunch, p.Index)
		return true
	}
	return false
}

// triggerOldest detonates the player's oldest triggered bomb on the ground.
func (w *World) triggerOldest(p *Player) bool {
	for _, b := range w.Bombs {
		if b.Owner == p.Index && b.Type == BombTriggered && b.grounded() && !b.AboutToDetonate {
			b.AboutToDetonate = true
			b.Triggerer = p.Index
			return true
		}
	}
	return false
}

func (w *World) buildWall(p *Player) {
	ahead := p.Cell().Add(p.Facing, 1)
	c := w.Grid.Cell(ahead)
	if c == nil || c.Wall != Empty || c.Item != ItemNone || len(c.Fires) > 0 ||
		w.BombAt(ahead) != nil || w.PlayerAt(ahead) != nil {
		return
	}
	w.SetWall(ahead, Brick)
	p.Items[ItemWallBuilding]--
	w.sound(SoundBuild, p.Index)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
