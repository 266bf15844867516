package game

import (
	"errors"
	"fmt"
)

var (
	ErrGameFull      = errors.New("game is full")
	ErrRoundRunning  = errors.New("game already in progress")
	ErrUnknownPlayer = errors.New("unknown player")
	ErrNoPlayers     = errors.New("need at least 1 player to start")
)

// InvariantError reports a broken simulation invariant. It indicates a bug in
// the simulation rather than bad input and aborts the running round.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Op, e.Detail)
}

func invariantf(op, format string, args ...any) error {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
