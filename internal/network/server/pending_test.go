package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/skat-server/internal/network/protocol"
)

func joinPayloads(t *testing.T, msgs []*protocol.Message) []protocol.PlayerJoinPayload {
	t.Helper()
	var out []protocol.PlayerJoinPayload
	for _, msg := range msgs {
		if msg.Type != protocol.MsgPlayerJoin {
			continue
		}
		payload, ok := protocol.PayloadAs[protocol.PlayerJoinPayload](msg)
		require.True(t, ok)
		out = append(out, payload)
	}
	return out
}

func TestPendingGame_RebroadcastsSeatingOnEveryJoin(t *testing.T) {
	pg := NewPendingGame()
	a := newMockPeer(1, "Alice")
	b := newMockPeer(2, "Bob")

	assert.False(t, pg.AddPeer(a))
	// 第一个人入座，只给自己播一次座次
	require.Len(t, joinPayloads(t, a.received()), 1)
	assert.Equal(t, uint32(1), joinPayloads(t, a.received())[0].PlayerID)

	assert.False(t, pg.AddPeer(b))

	// 老玩家收到完整座次重播，晚到的也拿到全部在座者
	aJoins := joinPayloads(t, a.received())
	require.Len(t, aJoins, 3)
	assert.Equal(t, uint32(1), aJoins[1].PlayerID)
	assert.Equal(t, uint32(2), aJoins[2].PlayerID)

	bJoins := joinPayloads(t, b.received())
	require.Len(t, bJoins, 2)
	assert.Equal(t, "Alice", bJoins[0].Name)
	assert.Equal(t, "Bob", bJoins[1].Name)
}

func TestPendingGame_FullOnThirdSeat(t *testing.T) {
	pg := NewPendingGame()

	assert.False(t, pg.AddPeer(newMockPeer(1, "A")))
	assert.False(t, pg.AddPeer(newMockPeer(2, "B")))
	assert.True(t, pg.AddPeer(newMockPeer(3, "C")))
	assert.Equal(t, seatCount, pg.Len())
}

func TestPendingGame_RemoveBroadcastsLeave(t *testing.T) {
	pg := NewPendingGame()
	a := newMockPeer(1, "Alice")
	b := newMockPeer(2, "Bob")
	pg.AddPeer(a)
	pg.AddPeer(b)

	removed := pg.TryRemovePlayer(1)
	require.NotNil(t, removed)
	assert.Equal(t, uint32(1), removed.ID())
	assert.Equal(t, 1, pg.Len())
	assert.False(t, pg.HasPlayer(1))
	assert.True(t, pg.HasPlayer(2))

	leave := b.lastOf(protocol.MsgPlayerLeave)
	require.NotNil(t, leave)
	payload, ok := protocol.PayloadAs[protocol.PlayerLeavePayload](leave)
	require.True(t, ok)
	assert.Equal(t, uint32(1), payload.PlayerID)
}

func TestPendingGame_RemoveUnknownStillBroadcasts(t *testing.T) {
	pg := NewPendingGame()
	a := newMockPeer(1, "Alice")
	pg.AddPeer(a)

	// 离座通知按至少一次语义发，不在座也照播
	assert.Nil(t, pg.TryRemovePlayer(42))
	assert.Equal(t, 1, pg.Len())

	leave := a.lastOf(protocol.MsgPlayerLeave)
	require.NotNil(t, leave)
	payload, ok := protocol.PayloadAs[protocol.PlayerLeavePayload](leave)
	require.True(t, ok)
	assert.Equal(t, uint32(42), payload.PlayerID)
}
