package game

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type clientInput struct {
	client int
	event  KeyEvent
}

// Engine is the authoritative game loop. It owns the world and advances it at
// the configured tick rate; collaborators enqueue input and receive snapshots.
type Engine struct {
	Config  GameConfig
	world   *World
	inputs  chan clientInput
	done    chan struct{}
	mu      sync.Mutex
	onTick  func(Snapshot) // Callback after each tick with a copy of the world
	onEvent func(Event)
	log     log.FieldLogger
}

// NewEngine creates a new game engine with the given config and match seed.
func NewEngine(config GameConfig, seed int64, logger log.FieldLogger) *Engine {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Engine{
		Config: config,
		world:  NewWorld(config, seed, logger),
		inputs: make(chan clientInput, 256),
		done:   make(chan struct{}),
		log:    logger,
	}
}

// OnTick sets a callback that is invoked after every game tick with a snapshot.
// Used by the network server to broadcast state to clients.
func (e *Engine) OnTick(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// OnEvent sets a callback for sound and round notifications.
func (e *Engine) OnEvent(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEvent = fn
}

// Run starts the game loop at the configured tick rate.
// This blocks until Stop() is called.
func (e *Engine) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(e.Config.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			if err := e.AdvanceTick(e.drainInputs()); err != nil {
				e.log.WithError(err).Warn("tick failed")
			}
		}
	}
}

// Stop halts the game loop.
func (e *Engine) Stop() {
	close(e.done)
}

// EnqueueInput queues a key event from a client for the next tick.
func (e *Engine) EnqueueInput(client int, ev KeyEvent) {
	select {
	case e.inputs <- clientInput{client: client, event: ev}:
	default:
		// Drop input if buffer is full (prevents blocking)
	}
}

// drainInputs collects all queued input into a batch, preserving arrival
// order per client.
func (e *Engine) drainInputs() InputBatch {
	batch := make(InputBatch)
	for {
		select {
		case in := <-e.inputs:
			batch[in.client] = append(batch[in.client], in.event)
		default:
			return batch
		}
	}
}

// AddPlayer adds a player controlled by client to the lobby and returns its
// slot index.
func (e *Engine) AddPlayer(name string, client int, computer bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.AddPlayer(name, client, computer)
}

// SetAgent attaches an AI agent to a computer player.
func (e *Engine) SetAgent(index int, a Agent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.SetAgent(index, a)
}

// DisconnectPlayer marks a player as gone. The slot keeps its index; the
// player dies now and sits out later rounds.
func (e *Engine) DisconnectPlayer(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.world.Player(index)
	if p == nil {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, index)
	}
	p.Connected = false
	if p.Alive() {
		e.world.killPlayer(p, -1)
	}
	return nil
}

// StartGame transitions the game from lobby to the first round.
func (e *Engine) StartGame() error {
	e.mu.Lock()
	if e.world.Status != StatusLobby {
		e.mu.Unlock()
		return ErrRoundRunning
	}
	err := e.world.StartRound()
	events := e.world.DrainEvents()
	onEvent := e.onEvent
	e.mu.Unlock()

	dispatch(onEvent, events)
	return err
}

// StartGameOn starts the first round on a prepared level, e.g. one read with
// ReadLevel.
func (e *Engine) StartGameOn(grid *Grid) error {
	e.mu.Lock()
	if e.world.Status != StatusLobby {
		e.mu.Unlock()
		return ErrRoundRunning
	}
	if len(e.world.Players) == 0 {
		e.mu.Unlock()
		return ErrNoPlayers
	}
	e.world.BeginRound(grid)
	events := e.world.DrainEvents()
	onEvent := e.onEvent
	e.mu.Unlock()

	dispatch(onEvent, events)
	return nil
}

// AdvanceTick runs exactly one simulation step with the given input.
// IMPORTANT: We copy the state while holding the lock, then release the lock
// BEFORE calling the callbacks to avoid deadlock (they may call back into the engine).
func (e *Engine) AdvanceTick(batch InputBatch) error {
	e.mu.Lock()
	err := e.world.Step(batch)
	snapshot := e.world.Snapshot()
	events := e.world.DrainEvents()
	onTick, onEvent := e.onTick, e.onEvent
	e.mu.Unlock()

	dispatch(onEvent, events)
	if onTick != nil {
		onTick(snapshot)
	}
	return err
}

func dispatch(fn func(Event), events []Event) {
	if fn == nil {
		return
	}
	for _, ev := range events {
		fn(ev)
	}
}

// Snapshot returns a copy of the current world safe for serialization.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Snapshot()
}

// Level returns a copy of the current grid.
func (e *Engine) Level() *Grid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Grid.Clone()
}

// Status returns the current match phase.
func (e *Engine) Status() GameStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Status
}

// PlayerCount returns the number of occupied slots.
func (e *Engine) PlayerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.world.Players)
}
