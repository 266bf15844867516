package network

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalg/blastgrid/internal/game"
)

func TestFramesDecodeInOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, MsgJoin, JoinMsg{Name: "alice", Players: 2}))
	require.NoError(t, Encode(&buf, MsgInput, InputMsg{Events: []game.KeyEvent{
		{Player: 3, Key: game.KeyFunction2, Pressed: true},
	}}))

	env, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, MsgJoin, env.Type)
	var join JoinMsg
	require.NoError(t, DecodePayload(env, &join))
	assert.Equal(t, JoinMsg{Name: "alice", Players: 2}, join)

	env, err = Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, MsgInput, env.Type)
	var input InputMsg
	require.NoError(t, DecodePayload(env, &input))
	require.Len(t, input.Events, 1)
	assert.Equal(t, "3:fn2:+", input.Events[0].String())

	_, err = Decode(&buf)
	assert.Error(t, err, "nothing left to read")
}

func TestOversizedFrames(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, MsgError, ErrorMsg{Message: strings.Repeat("x", maxMessageSize)})
	require.Error(t, err)
	assert.Zero(t, buf.Len(), "nothing is written")

	binary.Write(&buf, binary.BigEndian, uint32(maxMessageSize+1))
	_, err = Decode(&buf)
	assert.ErrorContains(t, err, "too large")
}

func TestTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, MsgStart, struct{}{}))
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-2])
	_, err := Decode(truncated)
	assert.Error(t, err)
}
