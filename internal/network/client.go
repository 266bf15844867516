package network

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/amalg/blastgrid/internal/game"
)

// Client connects to a game server and provides methods to send key events
// and receive snapshots.
type Client struct {
	conn    net.Conn
	welcome WelcomeMsg
	stateCh chan game.Snapshot
	eventCh chan game.Event
	errCh   chan string
	done    chan struct{}
	mu      sync.Mutex
}

// NewClient connects to the server and joins with the given number of local
// players.
func NewClient(addr, name string, players int) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	c := &Client{
		conn:    conn,
		stateCh: make(chan game.Snapshot, 10),
		eventCh: make(chan game.Event, 32),
		errCh:   make(chan string, 4),
		done:    make(chan struct{}),
	}

	if err := Encode(conn, MsgJoin, JoinMsg{Name: name, Players: players}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send join: %w", err)
	}

	env, err := Decode(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}

	if env.Type == MsgError {
		var errMsg ErrorMsg
		DecodePayload(env, &errMsg)
		conn.Close()
		return nil, fmt.Errorf("server error: %s", errMsg.Message)
	}

	if env.Type != MsgWelcome {
		conn.Close()
		return nil, fmt.Errorf("expected welcome, got %s", env.Type)
	}

	if err := DecodePayload(env, &c.welcome); err != nil {
		conn.Close()
		return nil, err
	}

	go c.receiveLoop()

	return c, nil
}

// Index returns the client index assigned by the server.
func (c *Client) Index() int {
	return c.welcome.Client
}

// Session returns the server-side session id of the connection.
func (c *Client) Session() string {
	return c.welcome.Session
}

// Players returns the player slots controlled by this client.
func (c *Client) Players() []int {
	return c.welcome.Players
}

// Config returns the game configuration received from the server.
func (c *Client) Config() game.GameConfig {
	return c.welcome.Config
}

// StateChan returns a channel that yields snapshots.
func (c *Client) StateChan() <-chan game.Snapshot {
	return c.stateCh
}

// EventChan returns a channel of round notifications. Events are dropped
// when nobody reads them.
func (c *Client) EventChan() <-chan game.Event {
	return c.eventCh
}

// ErrorChan returns errors reported by the server.
func (c *Client) ErrorChan() <-chan string {
	return c.errCh
}

// SendKey sends a single press or release for one of the client's players.
func (c *Client) SendKey(player int, key game.Key, pressed bool) error {
	return c.SendKeys([]game.KeyEvent{{Player: player, Key: key, Pressed: pressed}})
}

// SendKeys sends a batch of key events.
func (c *Client) SendKeys(events []game.KeyEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Encode(c.conn, MsgInput, InputMsg{Events: events})
}

// SendStart requests the server to start the game.
func (c *Client) SendStart() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Encode(c.conn, MsgStart, struct{}{})
}

// Close disconnects from the server.
func (c *Client) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.conn.Close()
}

func (c *Client) receiveLoop() {
	defer close(c.stateCh)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		env, err := Decode(c.conn)
		if err != nil {
			return
		}

		switch env.Type {
		case MsgState:
			var stateMsg StateMsg
			if err := DecodePayload(env, &stateMsg); err != nil {
				continue
			}
			select {
			case c.stateCh <- stateMsg.Snapshot:
			default:
				// Drop the oldest snapshot; the latest one matters most.
				select {
				case <-c.stateCh:
				default:
				}
				c.stateCh <- stateMsg.Snapshot
			}
		case MsgEvent:
			var eventMsg EventMsg
			if err := DecodePayload(env, &eventMsg); err != nil {
				continue
			}
			select {
			case c.eventCh <- eventMsg.Event:
			default:
			}
		case MsgError:
			var errMsg ErrorMsg
			DecodePayload(env, &errMsg)
			select {
			case c.errCh <- errMsg.Message:
			default:
			}
		}
	}
}
