package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/amalg/blastgrid/internal/game"
)

func TestJoinable(t *testing.T) {
	m := MatchInfo{Status: game.StatusLobby.String(), PlayerCount: 3, MaxPlayers: 4}
	assert.True(t, m.Joinable())

	m.PlayerCount = 4
	assert.False(t, m.Joinable(), "full")

	m.PlayerCount = 1
	m.Status = game.StatusRunning.String()
	assert.False(t, m.Joinable(), "already playing")
}

func TestBroadcasterFollowsSnapshots(t *testing.T) {
	logger, _ := test.NewNullLogger()
	b := NewBroadcaster(MatchInfo{MatchName: "arena", GameAddr: "10.0.0.2:9999", MaxPlayers: 4}, DefaultPort, logger)

	b.Update(game.Snapshot{
		Status: game.StatusRunning,
		Round:  2,
		Players: []game.PlayerView{
			{Index: 0, Vitality: 100},
			{Index: 1},
			{Index: 2, Vitality: 7},
		},
	})

	info := b.Info()
	assert.Equal(t, "arena", info.MatchName)
	assert.Equal(t, 3, info.PlayerCount)
	assert.Equal(t, 2, info.Alive)
	assert.Equal(t, 2, info.Round)
	assert.Equal(t, game.StatusRunning.String(), info.Status)

	b.Stop()
	b.Stop()
}

func TestDirectedBroadcast(t *testing.T) {
	_, n, err := net.ParseCIDR("192.168.1.37/24")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.255", DirectedBroadcast(n).String())

	_, n, err = net.ParseCIDR("10.20.0.0/14")
	require.NoError(t, err)
	assert.Equal(t, "10.23.255.255", DirectedBroadcast(n).String())

	_, n, err = net.ParseCIDR("fd00::/64")
	require.NoError(t, err)
	assert.Nil(t, DirectedBroadcast(n))
}

func TestTargetsStartWithLoopback(t *testing.T) {
	targets := Targets(4321)
	require.GreaterOrEqual(t, len(targets), 2)
	assert.Equal(t, "127.0.0.1:4321", targets[0].String())
	assert.Equal(t, "255.255.255.255:4321", targets[1].String())

	seen := map[string]bool{}
	for _, dst := range targets {
		assert.False(t, seen[dst.String()], "duplicate %s", dst)
		seen[dst.String()] = true
		assert.Equal(t, 4321, dst.Port)
	}
}

func TestObserveAndExpire(t *testing.T) {
	l := NewListener(0)
	now := time.Now()

	for _, addr := range []string{"10.0.0.9:9999", "10.0.0.1:9999", "10.0.0.5:9999"} {
		data, err := msgpack.Marshal(MatchInfo{GameAddr: addr})
		require.NoError(t, err)
		require.True(t, l.observe(data, now))
	}
	assert.False(t, l.observe([]byte{0xc1}, now))
	empty, err := msgpack.Marshal(MatchInfo{MatchName: "nowhere"})
	require.NoError(t, err)
	assert.False(t, l.observe(empty, now), "beacons need an address")

	var got []string
	for _, m := range l.Matches() {
		got = append(got, m.GameAddr)
	}
	assert.Equal(t, []string{"10.0.0.1:9999", "10.0.0.5:9999", "10.0.0.9:9999"}, got)

	fresh, err := msgpack.Marshal(MatchInfo{GameAddr: "10.0.0.5:9999", Round: 3})
	require.NoError(t, err)
	require.True(t, l.observe(fresh, now.Add(3*time.Second)))

	l.expire(now.Add(MatchExpiry + time.Second))
	matches := l.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, 3, matches[0].Round)
}

func TestBeaconReachesListener(t *testing.T) {
	l := NewListener(0)
	require.NoError(t, l.Start())
	t.Cleanup(l.Stop)

	logger, _ := test.NewNullLogger()
	b := NewBroadcaster(MatchInfo{
		MatchName:  "arena",
		MaxPlayers: 4,
		Status:     game.StatusLobby.String(),
		GameAddr:   "127.0.0.1:9999",
	}, l.Port(), logger)
	require.NoError(t, b.Start())
	t.Cleanup(b.Stop)

	require.Eventually(t, func() bool { return len(l.Matches()) == 1 }, 3*time.Second, 20*time.Millisecond)
	m := l.Matches()[0]
	assert.Equal(t, "arena", m.MatchName)
	assert.True(t, m.Joinable())
}
