package network

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalg/blastgrid/internal/game"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Level.Width = 11
	cfg.Level.Height = 11
	logger, _ := test.NewNullLogger()
	s := NewServer("127.0.0.1:0", cfg, 1, logger)
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)
	return s
}

func dial(t *testing.T, s *Server, name string, players int) *Client {
	t.Helper()
	c, err := NewClient(s.Addr(), name, players)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// waitFor reads snapshots until ok accepts one.
func waitFor(t *testing.T, c *Client, ok func(game.Snapshot) bool) game.Snapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case s, open := <-c.StateChan():
			require.True(t, open, "connection closed")
			if ok(s) {
				return s
			}
		case <-deadline:
			t.Fatal("no matching snapshot")
			return game.Snapshot{}
		}
	}
}

func TestClientsJoinAndPlay(t *testing.T) {
	s := startServer(t)

	alice := dial(t, s, "alice", 1)
	assert.Equal(t, 1, alice.Index())
	assert.Equal(t, []int{0}, alice.Players())
	_, err := uuid.Parse(alice.Session())
	assert.NoError(t, err)
	assert.Equal(t, 11, alice.Config().Level.Width)

	pair := dial(t, s, "bob", 2)
	assert.Equal(t, 2, pair.Index())
	assert.Equal(t, []int{1, 2}, pair.Players())
	assert.NotEqual(t, alice.Session(), pair.Session())
	assert.Equal(t, 3, s.Engine().PlayerCount())

	require.NoError(t, alice.SendStart())
	running := waitFor(t, alice, func(snap game.Snapshot) bool {
		return snap.Status == game.StatusRunning
	})
	require.Len(t, running.Players, 3)
	assert.Equal(t, "bob 2", running.Players[2].Name)

	require.NoError(t, alice.SendKey(0, game.KeyRight, true))
	waitFor(t, alice, func(snap game.Snapshot) bool {
		return snap.Players[0].Facing == game.DirRight
	})
}

func TestInputForForeignPlayerIsRejected(t *testing.T) {
	s := startServer(t)
	alice := dial(t, s, "alice", 1)
	dial(t, s, "bob", 1)

	require.NoError(t, alice.SendKey(1, game.KeyUp, true))
	select {
	case msg := <-alice.ErrorChan():
		assert.True(t, strings.Contains(msg, ErrNotYourPlayer.Error()), msg)
	case <-time.After(3 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestStartTwiceReportsError(t *testing.T) {
	s := startServer(t)
	alice := dial(t, s, "alice", 1)
	require.NoError(t, s.StartGame())

	require.NoError(t, alice.SendStart())
	select {
	case msg := <-alice.ErrorChan():
		assert.Equal(t, game.ErrRoundRunning.Error(), msg)
	case <-time.After(3 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestDisconnectKillsThePlayers(t *testing.T) {
	s := startServer(t)
	alice := dial(t, s, "alice", 1)
	bob := dial(t, s, "bob", 1)
	require.NoError(t, s.StartGame())
	waitFor(t, alice, func(snap game.Snapshot) bool { return snap.Status == game.StatusRunning })

	bob.Close()
	snap := waitFor(t, alice, func(snap game.Snapshot) bool { return snap.Players[1].Vitality == 0 })
	assert.Positive(t, snap.Players[0].Vitality)
}

func TestWatchersSeeEveryTick(t *testing.T) {
	s := startServer(t)
	dial(t, s, "alice", 1)
	ticks := make(chan int64, 64)
	s.Watch(func(snap game.Snapshot) {
		select {
		case ticks <- snap.Tick:
		default:
		}
	})
	require.NoError(t, s.StartGame())

	first := <-ticks
	assert.Equal(t, first+1, <-ticks)
}

func TestJoinAfterStartFails(t *testing.T) {
	s := startServer(t)
	dial(t, s, "alice", 1)
	require.NoError(t, s.StartGame())

	_, err := NewClient(s.Addr(), "late", 1)
	assert.ErrorContains(t, err, game.ErrRoundRunning.Error())
}
