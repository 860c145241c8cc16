package server

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/skat-server/internal/game/card"
	"github.com/palemoky/skat-server/internal/network/protocol"
)

func TestNPC_NameIsMarked(t *testing.T) {
	npc := NewNPC(7)
	assert.Equal(t, uint32(7), npc.ID())
	assert.True(t, strings.HasPrefix(npc.Name(), "NPC·"))
	assert.Greater(t, len(npc.Name()), len("NPC·"))
}

func TestNPC_PassesByDefault(t *testing.T) {
	npc := NewNPC(1)

	msg, err := npc.Expect(context.Background(), protocol.MsgBid)
	require.NoError(t, err)
	payload, ok := protocol.PayloadAs[protocol.BidPayload](msg)
	require.True(t, ok)
	assert.Equal(t, int32(0), payload.Value)
}

func TestNPC_ScriptTakesPriority(t *testing.T) {
	script := []*protocol.Message{
		protocol.NewMessage(protocol.MsgTrump, protocol.TrumpPayload{Suit: card.Spades}),
		protocol.NewMessage(protocol.MsgBid, protocol.BidPayload{Value: 24}),
	}
	npc := NewScriptedNPC(1, "Scripted", script)

	// 脚本里排在前面的不匹配条目被弃掉
	msg, err := npc.Expect(context.Background(), protocol.MsgBid)
	require.NoError(t, err)
	payload, ok := protocol.PayloadAs[protocol.BidPayload](msg)
	require.True(t, ok)
	assert.Equal(t, int32(24), payload.Value)

	// 脚本耗尽后回落到自动应答
	msg, err = npc.Expect(context.Background(), protocol.MsgBid)
	require.NoError(t, err)
	payload, ok = protocol.PayloadAs[protocol.BidPayload](msg)
	require.True(t, ok)
	assert.Equal(t, int32(0), payload.Value)
}

func TestNPC_PlaysDealtCardsInOrder(t *testing.T) {
	npc := NewNPC(1)
	first := card.Card{Suit: card.Hearts, Rank: card.Ace}
	second := card.Card{Suit: card.Clubs, Rank: card.Seven}

	npc.Deliver(protocol.NewMessage(protocol.MsgDrawCard, protocol.DrawCardPayload{Card: first}))
	npc.Deliver(protocol.NewMessage(protocol.MsgDrawCard, protocol.DrawCardPayload{Card: second}))
	// 出牌以外的消息不影响手牌
	npc.Deliver(protocol.NewMessage(protocol.MsgYourTurn, nil))

	for _, want := range []card.Card{first, second} {
		msg, err := npc.Expect(context.Background(), protocol.MsgPlayCard)
		require.NoError(t, err)
		payload, ok := protocol.PayloadAs[protocol.PlayCardPayload](msg)
		require.True(t, ok)
		assert.Equal(t, want, payload.Card)
	}
}

func TestNPC_PicksMajoritySuitAsTrump(t *testing.T) {
	npc := NewNPC(1)
	for _, c := range []card.Card{
		{Suit: card.Hearts, Rank: card.Seven},
		{Suit: card.Hearts, Rank: card.Eight},
		{Suit: card.Spades, Rank: card.Ace},
	} {
		npc.Deliver(protocol.NewMessage(protocol.MsgDrawCard, protocol.DrawCardPayload{Card: c}))
	}

	msg, err := npc.Expect(context.Background(), protocol.MsgTrump)
	require.NoError(t, err)
	payload, ok := protocol.PayloadAs[protocol.TrumpPayload](msg)
	require.True(t, ok)
	assert.Equal(t, card.Hearts, payload.Suit)
}

func TestNPC_ExpectHonorsCancelledContext(t *testing.T) {
	npc := NewNPC(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := npc.Expect(ctx, protocol.MsgBid)
	assert.ErrorIs(t, err, context.Canceled)
}
