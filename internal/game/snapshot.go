package game

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is an immutable copy of the world handed to collaborators after
// each tick. Cells are row-major.
type Snapshot struct {
	Tick      int64        `json:"tick" msgpack:"tick"`
	RoundTick int64        `json:"round_tick" msgpack:"round_tick"`
	Round     int          `json:"round" msgpack:"round"`
	Status    GameStatus   `json:"status" msgpack:"status"`
	Winner    int          `json:"winner" msgpack:"winner"`
	Width     int          `json:"width" msgpack:"width"`
	Height    int          `json:"height" msgpack:"height"`
	Walls     []Wall       `json:"walls" msgpack:"walls"`
	Items     []Item       `json:"items" msgpack:"items"`
	Players   []PlayerView `json:"players" msgpack:"players"`
	Bombs     []BombView   `json:"bombs" msgpack:"bombs"`
	Fires     []FireView   `json:"fires" msgpack:"fires"`
	Shrink    ShrinkKind   `json:"shrink" msgpack:"shrink"`
	Warnings  []Position   `json:"warnings,omitempty" msgpack:"warnings,omitempty"`
	Countdown int          `json:"countdown,omitempty" msgpack:"countdown,omitempty"`
}

// PlayerView is the public state of a player.
type PlayerView struct {
	Index    int                 `json:"index" msgpack:"index"`
	Name     string              `json:"name" msgpack:"name"`
	Computer bool                `json:"computer" msgpack:"computer"`
	X        int                 `json:"x" msgpack:"x"`
	Y        int                 `json:"y" msgpack:"y"`
	Facing   Direction           `json:"facing" msgpack:"facing"`
	Activity Activity            `json:"activity" msgpack:"activity"`
	Vitality int                 `json:"vitality" msgpack:"vitality"`
	Items    [ItemCount]int      `json:"items" msgpack:"items"`
	Diseases [DiseaseCount]int64 `json:"diseases" msgpack:"diseases"`
	Points   int                 `json:"points" msgpack:"points"`
	Kills    int                 `json:"kills" msgpack:"kills"`
}

// BombView is the public state of a bomb.
type BombView struct {
	ID        int       `json:"id" msgpack:"id"`
	X         int       `json:"x" msgpack:"x"`
	Y         int       `json:"y" msgpack:"y"`
	Phase     BombPhase `json:"phase" msgpack:"phase"`
	Type      BombType  `json:"type" msgpack:"type"`
	Range     int       `json:"range" msgpack:"range"`
	Owner     int       `json:"owner" msgpack:"owner"`
	Triggerer int       `json:"triggerer" msgpack:"triggerer"`
	Ticking   int       `json:"ticking" msgpack:"ticking"`
	Detonated bool      `json:"detonated" msgpack:"detonated"`
	Dead      bool      `json:"dead" msgpack:"dead"`
}

// FireView is the public state of a fire.
type FireView struct {
	X          int       `json:"x" msgpack:"x"`
	Y          int       `json:"y" msgpack:"y"`
	Shape      FireShape `json:"shape" msgpack:"shape"`
	Owner      int       `json:"owner" msgpack:"owner"`
	Iterations int       `json:"iterations" msgpack:"iterations"`
}

// Snapshot copies the current world state.
func (w *World) Snapshot() Snapshot {
	g := w.Grid
	s := Snapshot{
		Tick:      w.Tick,
		RoundTick: w.RoundTick,
		Round:     w.Round,
		Status:    w.Status,
		Winner:    w.Winner,
		Width:     g.Width,
		Height:    g.Height,
		Walls:     make([]Wall, len(g.cells)),
		Items:     make([]Item, len(g.cells)),
		Players:   make([]PlayerView, 0, len(w.Players)),
		Bombs:     make([]BombView, 0, len(w.Bombs)),
		Fires:     make([]FireView, 0, len(w.Fires)),
		Countdown: w.Countdown,
	}
	for i, c := range g.cells {
		s.Walls[i] = c.Wall
		s.Items[i] = c.Item
	}
	for _, p := range w.Players {
		s.Players = append(s.Players, PlayerView{
			Index:    p.Index,
			Name:     p.Name,
			Computer: p.Computer,
			X:        p.X,
			Y:        p.Y,
			Facing:   p.Facing,
			Activity: p.Activity,
			Vitality: p.Vitality,
			Items:    p.Items,
			Diseases: p.Diseases,
			Points:   p.Points,
			Kills:    p.Kills,
		})
	}
	for _, b := range w.Bombs {
		s.Bombs = append(s.Bombs, BombView{
			ID:        b.ID,
			X:         b.X,
			Y:         b.Y,
			Phase:     b.Phase,
			Type:      b.Type,
			Range:     b.Range,
			Owner:     b.Owner,
			Triggerer: b.Triggerer,
			Ticking:   b.Ticking,
			Detonated: b.Detonated,
			Dead:      b.Dead,
		})
	}
	for _, f := range w.Fires {
		s.Fires = append(s.Fires, FireView{X: f.Pos.X, Y: f.Pos.Y, Shape: f.Shape, Owner: f.Owner, Iterations: f.Iterations})
	}
	if w.Shrink != nil {
		s.Shrink = w.Shrink.Kind()
	}
	if len(w.Warnings) > 0 {
		s.Warnings = append([]Position(nil), w.Warnings...)
	}
	return s
}

// Wall returns the wall at pos, Concrete when off the grid.
func (s *Snapshot) Wall(pos Position) Wall {
	if pos.X < 0 || pos.Y < 0 || pos.X >= s.Width || pos.Y >= s.Height {
		return Concrete
	}
	return s.Walls[pos.Y*s.Width+pos.X]
}

// Item returns the item at pos.
func (s *Snapshot) Item(pos Position) Item {
	if pos.X < 0 || pos.Y < 0 || pos.X >= s.Width || pos.Y >= s.Height {
		return ItemNone
	}
	return s.Items[pos.Y*s.Width+pos.X]
}

// Alive returns the number of living players.
func (s *Snapshot) Alive() int {
	n := 0
	for _, p := range s.Players {
		if p.Vitality > 0 {
			n++
		}
	}
	return n
}

// Encode serializes the snapshot with msgpack.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot produced by Encode.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Checksum returns the hex sha256 of the encoded snapshot. Equal worlds give
// equal checksums.
func (s *Snapshot) Checksum() (string, error) {
	data, err := s.Encode()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
