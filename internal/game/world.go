package game

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Agent synthesizes key events for a computer player. It runs inside the
// tick and must draw any randomness from w.Rand().
type Agent interface {
	Decide(w *World, p *Player) []KeyEvent
}

// World is the complete mutable state of a match. It is owned by a single
// goroutine; collaborators read it only through snapshots.
type World struct {
	Config  GameConfig
	Grid    *Grid
	Players []*Player // slot order
	Bombs   []*Bomb   // insertion order
	Fires   []*Fire   // insertion order

	Tick      int64
	RoundTick int64
	Round     int
	Status    GameStatus
	Winner    int // round or match winner, -1 for a draw

	Shrink    ShrinkPerformer
	Warnings  []Position // cells flagged by the shrink strategy this tick
	Countdown int        // ticks left on a shrink countdown, 0 when none

	seed       int64
	rng        *Rand
	nextBomb   int
	nextFire   int
	fireByID   map[int]*Fire
	bombAt     map[Position]*Bomb
	agents     map[int]Agent
	events     []Event
	phaseUntil int64 // end of the current round-ending or between-rounds phase
	log        log.FieldLogger
}

// NewWorld creates an empty match. Every random decision derives from seed.
func NewWorld(cfg GameConfig, seed int64, logger log.FieldLogger) *World {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &World{
		Config:   cfg,
		Grid:     NewGrid(cfg.Level.Width, cfg.Level.Height),
		Status:   StatusLobby,
		Winner:   -1,
		seed:     seed,
		rng:      NewRand(DeriveSeed(seed, "world")),
		fireByID: make(map[int]*Fire),
		bombAt:   make(map[Position]*Bomb),
		agents:   make(map[int]Agent),
		log:      logger,
	}
}

// Rand returns the match generator.
func (w *World) Rand() *Rand { return w.rng }

// Seed returns the root seed of the match.
func (w *World) Seed() int64 { return w.seed }

// AddPlayer registers a player in the next free slot. Players can only join
// in the lobby.
func (w *World) AddPlayer(name string, client int, computer bool) (int, error) {
	if w.Status != StatusLobby {
		return -1, ErrRoundRunning
	}
	if len(w.Players) >= w.Config.MaxPlayers {
		return -1, fmt.Errorf("%w (%d/%d players)", ErrGameFull, len(w.Players), w.Config.MaxPlayers)
	}
	p := &Player{
		Index:     len(w.Players),
		Name:      name,
		Team:      len(w.Players),
		Client:    client,
		Computer:  computer,
		Carrying:  -1,
		LastHitBy: -1,
		Connected: true,
	}
	w.Players = append(w.Players, p)
	return p.Index, nil
}

// SetAgent attaches an agent to a computer player.
func (w *World) SetAgent(index int, a Agent) error {
	if index < 0 || index >= len(w.Players) {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, index)
	}
	w.agents[index] = a
	return nil
}

// Player returns the player in slot index, or nil.
func (w *World) Player(index int) *Player {
	if index < 0 || index >= len(w.Players) {
		return nil
	}
	return w.Players[index]
}

// LastFire returns the fire with precedence on pos, or nil.
func (w *World) LastFire(pos Position) *Fire {
	c := w.Grid.Cell(pos)
	if c == nil || len(c.Fires) == 0 {
		return nil
	}
	return w.fireByID[c.Fires[len(c.Fires)-1]]
}

// BombAt returns the grounded bomb occupying pos, or nil.
func (w *World) BombAt(pos Position) *Bomb {
	return w.bombAt[pos]
}

// PlayerAt returns the first living player standing in pos, or nil.
func (w *World) PlayerAt(pos Position) *Player {
	for _, p := range w.Players {
		if p.Alive() && p.Cell() == pos {
			return p
		}
	}
	return nil
}

// AliveCount returns the number of living players.
func (w *World) AliveCount() int {
	n := 0
	for _, p := range w.Players {
		if p.Alive() {
			n++
		}
	}
	return n
}

// indexBombs rebuilds the cell index of grounded bombs. On shared cells the
// oldest bomb wins.
func (w *World) indexBombs() {
	clear(w.bombAt)
	for _, b := range w.Bombs {
		if !b.grounded() {
			continue
		}
		if _, taken := w.bombAt[b.Cell()]; !taken {
			w.bombAt[b.Cell()] = b
		}
	}
}

// SetWall replaces the wall of pos.
func (w *World) SetWall(pos Position, wall Wall) {
	w.Grid.SetWall(pos, wall)
}

// AddItem drops an item on pos if the cell can hold one.
func (w *World) AddItem(pos Position, it Item) bool {
	c := w.Grid.Cell(pos)
	if c == nil || c.Wall != Empty || c.Item != ItemNone {
		return false
	}
	c.Item = it
	return true
}

// AddBomb assigns an id to b and appends it to the bomb list.
func (w *World) AddBomb(b *Bomb) *Bomb {
	b.ID = w.nextBomb
	w.nextBomb++
	w.Bombs = append(w.Bombs, b)
	if b.grounded() {
		if _, taken := w.bombAt[b.Cell()]; !taken {
			w.bombAt[b.Cell()] = b
		}
	}
	return b
}

func (w *World) addFire(pos Position, shape FireShape, owner, triggerer int, destroys bool) *Fire {
	f := &Fire{
		ID:         w.nextFire,
		Pos:        pos,
		Shape:      shape,
		Owner:      owner,
		Triggerer:  triggerer,
		Iterations: w.Config.Bomb.FireIterations,
		Destroys:   destroys,
	}
	w.nextFire++
	w.Fires = append(w.Fires, f)
	w.fireByID[f.ID] = f
	c := w.Grid.Cell(pos)
	c.Fires = append(c.Fires, f.ID)
	return f
}

// SetDeath turns pos into a death wall. The item is cleared and every bomb
// and player in the cell dies.
func (w *World) SetDeath(pos Position) {
	c := w.Grid.Cell(pos)
	if c == nil {
		return
	}
	c.Item = ItemNone
	c.Wall = Death
	for _, b := range w.Bombs {
		if b.grounded() && b.Cell() == pos {
			w.killBomb(b)
		}
	}
	for _, p := range w.Players {
		if p.Alive() && p.Cell() == pos {
			w.killPlayer(p, -1)
		}
	}
}

func (w *World) killBomb(b *Bomb) {
	b.Dead = true
	b.AboutToDetonate = false
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
}

// removeEndedBombs drops bombs that detonated or died before this tick.
func (w *World) removeEndedBombs() {
	kept := w.Bombs[:0]
	for _, b := range w.Bombs {
		if !b.Live() && b.EndedAt < w.Tick {
			continue
		}
		kept = append(kept, b)
	}
	for i := len(kept); i < len(w.Bombs); i++ {
		w.Bombs[i] = nil
	}
	w.Bombs = kept
}

// ownedLiveBombs counts the bombs of player that have not gone off yet.
func (w *World) ownedLiveBombs(player int) int {
	n := 0
	for _, b := range w.Bombs {
		if b.Owner == player && b.Live() {
			n++
		}
	}
	return n
}

// bombByID returns the bomb with the given id, or nil.
func (w *World) bombByID(id int) *Bomb {
	for _, b := range w.Bombs {
		if b.ID == id {
			return b
		}
	}
	return nil
}
