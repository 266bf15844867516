package game

// Player is a participant with a stable slot index across rounds.
type Player struct {
	Index    int
	Name     string
	Team     int
	Client   int // client that may send input for this player
	Computer bool

	X, Y      int // sub-cell position
	Facing    Direction
	Activity  Activity
	Iteration int
	Vitality  int

	Items    [ItemCount]int      // counts for accumulable items, 0/1 flags otherwise
	Diseases [DiseaseCount]int64 // expiry tick per disease, 0 when healthy

	Keys     [KeyCount]bool
	PrevKeys [KeyCount]bool

	Points    int
	Kills     int
	Carrying  int // id of the bomb held with gloves, -1 when empty-handed
	LastHitBy int
	Connected bool
}

// Cell returns the cell the player stands in.
func (p *Player) Cell() Position {
	return CellOf(p.X, p.Y)
}

// Alive reports whether the player still has vitality.
func (p *Player) Alive() bool {
	return p.Vitality > 0
}

// Has reports whether the player holds at least one of it.
func (p *Player) Has(it Item) bool {
	return p.Items[it] > 0
}

// Sick reports whether disease d is active at tick.
func (p *Player) Sick(d Disease, tick int64) bool {
	return p.Diseases[d] > tick
}

// pressed reports a key edge: down now, up on the previous tick.
func (p *Player) pressed(k Key) bool {
	return p.Keys[k] && !p.PrevKeys[k]
}

func (p *Player) setActivity(a Activity) {
	if p.Activity == a {
		return
	}
	p.Activity = a
	p.Iteration = 0
}

// resetForRound restores the per-round state. Identity, points and kills survive.
func (p *Player) resetForRound(cfg PlayerConfig) {
	p.Facing = DirDown
	p.Activity = Standing
	p.Iteration = 0
	p.Vitality = cfg.MaxVitality
	p.Items = [ItemCount]int{}
	p.Diseases = [DiseaseCount]int64{}
	p.Keys = [KeyCount]bool{}
	p.PrevKeys = [KeyCount]bool{}
	p.Carrying = -1
	p.LastHitBy = -1
}

// Bomb is a placed, thrown, kicked or spawned bomb.
type Bomb struct {
	ID    int
	X, Y  int // sub-cell position
	Phase BombPhase
	Type  BombType
	Range int

	Owner     int // -1 for unowned bombs
	Triggerer int // credited player, -1 when nobody
	Ticking   int

	AboutToDetonate bool
	Detonated       bool
	Dead            bool
	EndedAt         int64 // tick the bomb detonated or died

	Excluded        DirectionSet // directions the explosion does not propagate to
	Direction       Direction    // rolling or flying direction
	FlightCells     int          // cells still to fly before trying to land
	HeldBy          int          // player carrying the bomb, -1 when on the ground
	DetonatingOnHit bool
}

// Cell returns the cell the bomb is in.
func (b *Bomb) Cell() Position {
	return CellOf(b.X, b.Y)
}

// Live reports whether the bomb has neither detonated nor died.
func (b *Bomb) Live() bool {
	return !b.Detonated && !b.Dead
}

// grounded bombs occupy their cell: they block movement and fire rays.
func (b *Bomb) grounded() bool {
	return b.Live() && b.Phase != PhaseFlying && b.HeldBy < 0
}

// Fire is a transient explosion effect on one cell.
type Fire struct {
	ID         int
	Pos        Position
	Shape      FireShape
	Owner      int
	Triggerer  int
	Iterations int  // ticks left
	Destroys   bool // placed on a brick or item cell
}
