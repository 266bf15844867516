package ui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/blastgrid/internal/game"
)

// HoldTimeout is how long a key counts as held after the terminal last
// reported it. Terminals only send presses and auto-repeats, so a release is
// inferred when the repeats stop.
const HoldTimeout = 150 * time.Millisecond

// Controller is the game connection driven by the TUI.
type Controller interface {
	Players() []int
	StateChan() <-chan game.Snapshot
	SendKey(player int, key game.Key, pressed bool) error
	SendStart() error
}

// stateUpdateMsg carries a new snapshot from the controller.
type stateUpdateMsg game.Snapshot

// releaseMsg releases a key unless it was pressed again since.
type releaseMsg struct {
	held heldKey
	seq  int
}

// errMsg carries an error.
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type heldKey struct {
	player int
	key    game.Key
}

// binding maps a terminal key to the key of a local player slot.
type binding struct {
	slot int
	key  game.Key
}

// bindings cover two local players. With a single local player both sets
// drive it.
var bindings = map[string]binding{
	"up":    {0, game.KeyUp},
	"down":  {0, game.KeyDown},
	"left":  {0, game.KeyLeft},
	"right": {0, game.KeyRight},
	" ":     {0, game.KeyFunction1},
	"/":     {0, game.KeyFunction2},
	"w":     {1, game.KeyUp},
	"s":     {1, game.KeyDown},
	"a":     {1, game.KeyLeft},
	"d":     {1, game.KeyRight},
	"f":     {1, game.KeyFunction1},
	"g":     {1, game.KeyFunction2},
}

// Model is the Bubbletea model for the game client.
type Model struct {
	ctrl     Controller
	players  []int
	state    *game.Snapshot
	held     map[heldKey]int
	seq      int
	err      error
	quitting bool
}

// NewModel creates a new TUI model driving the given controller.
func NewModel(ctrl Controller) Model {
	return Model{
		ctrl:    ctrl,
		players: ctrl.Players(),
		held:    make(map[heldKey]int),
	}
}

// Init starts listening for snapshots.
func (m Model) Init() tea.Cmd {
	return waitForState(m.ctrl)
}

// Update handles incoming messages (key presses, releases, snapshots).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case releaseMsg:
		if m.held[msg.held] == msg.seq {
			delete(m.held, msg.held)
			m.ctrl.SendKey(msg.held.player, msg.held.key, false)
		}
		return m, nil

	case stateUpdateMsg:
		s := game.Snapshot(msg)
		m.state = &s
		return m, waitForState(m.ctrl)

	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the current snapshot.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye! 👋\n"
	}

	if m.err != nil {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff4444")).
			Render("Error: "+m.err.Error()) + "\n"
	}

	board := RenderBoard(m.state, m.players)
	hud := RenderHUD(m.state, m.players)

	// Layout: board on the left, HUD on the right
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		board,
		"  ",
		hud,
	) + "\n"
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		m.ctrl.SendStart()
		return m, nil
	}

	b, ok := bindings[msg.String()]
	if !ok || len(m.players) == 0 {
		return m, nil
	}
	if b.slot >= len(m.players) {
		b.slot = 0
	}
	return m, m.hold(heldKey{player: m.players[b.slot], key: b.key})
}

// hold presses k, or extends the hold when it is already down. A new
// direction releases the other directions of the same player.
func (m *Model) hold(k heldKey) tea.Cmd {
	if _, down := m.held[k]; !down {
		if _, isDir := k.key.Direction(); isDir {
			for other := range m.held {
				if _, otherDir := other.key.Direction(); otherDir && other.player == k.player {
					delete(m.held, other)
					m.ctrl.SendKey(other.player, other.key, false)
				}
			}
		}
		m.ctrl.SendKey(k.player, k.key, true)
	}
	m.seq++
	m.held[k] = m.seq
	seq := m.seq
	return tea.Tick(HoldTimeout, func(time.Time) tea.Msg {
		return releaseMsg{held: k, seq: seq}
	})
}

// waitForState returns a Cmd that waits for the next snapshot.
func waitForState(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ctrl.StateChan()
		if !ok {
			return errMsg{err: errors.New("server connection closed")}
		}
		return stateUpdateMsg(s)
	}
}
