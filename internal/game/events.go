package game

import "fmt"

// EventKind classifies notifications emitted by the simulation.
type EventKind int

const (
	EventSound EventKind = iota
	EventRoundStarted
	EventRoundEnded
	EventRoundAborted
	EventGameOver
	EventPlayerDied
)

var eventNames = []string{"sound", "round_started", "round_ended", "round_aborted", "game_over", "player_died"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventNames[k]
}

// Sound identifies a sound effect for the audio collaborator.
type Sound int

const (
	SoundNone Sound = iota
	SoundPlaceBomb
	SoundExplosion
	SoundPickup
	SoundKick
	SoundPunch
	SoundTeleport
	SoundDeath
	SoundWarning
	SoundBuild
)

var soundNames = []string{"none", "place_bomb", "explosion", "pickup", "kick", "punch", "teleport", "death", "warning", "build"}

func (s Sound) String() string {
	if s < 0 || int(s) >= len(soundNames) {
		return fmt.Sprintf("sound(%d)", int(s))
	}
	return soundNames[s]
}

// Event is a fire-and-forget notification. Player is -1 when not applicable;
// for round and game results it holds the winner.
type Event struct {
	Kind   EventKind `json:"kind" msgpack:"kind"`
	Sound  Sound     `json:"sound,omitempty" msgpack:"sound,omitempty"`
	Player int       `json:"player" msgpack:"player"`
	Round  int       `json:"round" msgpack:"round"`
	Tick   int64     `json:"tick" msgpack:"tick"`
}

func (w *World) emit(kind EventKind, player int) {
	w.events = append(w.events, Event{Kind: kind, Player: player, Round: w.Round, Tick: w.Tick})
}

func (w *World) sound(s Sound, player int) {
	w.events = append(w.events, Event{Kind: EventSound, Sound: s, Player: player, Round: w.Round, Tick: w.Tick})
}

// DrainEvents returns and clears the events collected since the last call.
func (w *World) DrainEvents() []Event {
	out := w.events
	w.events = nil
	return out
}
