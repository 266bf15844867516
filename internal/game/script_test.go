package game

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyEvent(t *testing.T) {
	ev, err := ParseKeyEvent(" 2:left:+ ")
	require.NoError(t, err)
	assert.Equal(t, KeyEvent{Player: 2, Key: KeyLeft, Pressed: true}, ev)

	ev, err = ParseKeyEvent("0:fn1:-")
	require.NoError(t, err)
	assert.Equal(t, KeyEvent{Player: 0, Key: KeyFunction1}, ev)

	for _, bad := range []string{"", "1:left", "x:left:+", "-1:left:+", "1:jump:+", "1:left:?", "1:left:+:+"} {
		_, err := ParseKeyEvent(bad)
		assert.Error(t, err, "%q", bad)
	}
}

func TestReadInputScript(t *testing.T) {
	script, err := ReadInputScript(strings.NewReader(`# warm-up
3 0:right:+

3 1:fn1:+
10 0:right:- 0:down:+
`))
	require.NoError(t, err)
	require.Len(t, script, 2)
	assert.Equal(t, []KeyEvent{
		{Player: 0, Key: KeyRight, Pressed: true},
		{Player: 1, Key: KeyFunction1, Pressed: true},
	}, script[3])

	assert.Nil(t, script.Batch(4, 1))
	assert.Equal(t, InputBatch{7: script[10]}, script.Batch(10, 7))

	var buf bytes.Buffer
	require.NoError(t, WriteInputScript(&buf, script))
	assert.Equal(t, "3 0:right:+ 1:fn1:+\n10 0:right:- 0:down:+\n", buf.String())

	_, err = ReadInputScript(strings.NewReader("soon 0:up:+"))
	assert.ErrorContains(t, err, "line 1")
	_, err = ReadInputScript(strings.NewReader("1 0:up:+\n2 0:up"))
	assert.ErrorContains(t, err, "line 2")
}

func TestReplayedScriptReproducesTheMatch(t *testing.T) {
	recorded := InputScript{}
	for tick := 0; tick < 300; tick++ {
		recorded[int64(tick)] = script(tick)[1]
	}
	var buf bytes.Buffer
	require.NoError(t, WriteInputScript(&buf, recorded))
	replayed, err := ReadInputScript(&buf)
	require.NoError(t, err)

	play := func(s InputScript) string {
		cfg := DefaultConfig()
		cfg.Shrink.StartAfterTicks = 100
		e := newTestEngine(t, cfg, 11, 2)
		require.NoError(t, e.StartGame())
		for tick := int64(0); tick < 300; tick++ {
			_ = e.AdvanceTick(s.Batch(tick, 1))
		}
		snap := e.Snapshot()
		sum, err := snap.Checksum()
		require.NoError(t, err)
		return sum
	}
	assert.Equal(t, play(recorded), play(replayed))
}
