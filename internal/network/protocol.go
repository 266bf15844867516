package network

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/amalg/blastgrid/internal/game"
)

// MsgType identifies the type of network message.
type MsgType string

const (
	MsgJoin    MsgType = "join"
	MsgWelcome MsgType = "welcome"
	MsgInput   MsgType = "input"
	MsgState   MsgType = "state"
	MsgEvent   MsgType = "event"
	MsgError   MsgType = "error"
	MsgStart   MsgType = "start"
)

// maxMessageSize bounds a single frame.
const maxMessageSize = 1 << 20

// Envelope wraps all messages with a type discriminator for deserialization.
type Envelope struct {
	Type    MsgType         `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// --- Client → Server Messages ---

// JoinMsg is sent by a client to join the game. Players is the number of
// local players sharing the connection.
type JoinMsg struct {
	Name    string `json:"name"`
	Players int    `json:"players"`
}

// InputMsg carries key presses and releases of the client's players.
type InputMsg struct {
	Events []game.KeyEvent `json:"events"`
}

// --- Server → Client Messages ---

// WelcomeMsg is sent to a client after joining.
type WelcomeMsg struct {
	Client  int             `json:"client"`
	Session string          `json:"session"`
	Players []int           `json:"players"`
	Config  game.GameConfig `json:"config"`
}

// StateMsg is the snapshot broadcast to all clients after each tick.
type StateMsg struct {
	Snapshot game.Snapshot `json:"snapshot"`
}

// EventMsg forwards a sound or round notification.
type EventMsg struct {
	Event game.Event `json:"event"`
}

// ErrorMsg notifies a client of an error.
type ErrorMsg struct {
	Message string `json:"message"`
}

// Encode serializes a message and writes it to the writer.
// Format: [4-byte big-endian length][JSON body]
func Encode(w io.Writer, msgType MsgType, payload any) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	env := Envelope{
		Type:    msgType,
		Payload: json.RawMessage(payloadBytes),
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if len(body) > maxMessageSize {
		return fmt.Errorf("message too large: %d bytes", len(body))
	}

	// Header and body go out in one write so concurrent frames never interleave.
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// Decode reads a length-prefixed JSON message from the reader.
func Decode(r io.Reader) (*Envelope, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}

	if length > maxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	return &env, nil
}

// DecodePayload unmarshals the payload from an envelope into the target struct.
func DecodePayload(env *Envelope, target any) error {
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}
