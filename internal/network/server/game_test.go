package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/skat-server/internal/config"
	"github.com/palemoky/skat-server/internal/game/card"
	"github.com/palemoky/skat-server/internal/network/protocol"
)

// recordingPeer 在 NPC 外面套一层消息记录，自动应答照旧
type recordingPeer struct {
	*NPC

	mu   sync.Mutex
	sent []*protocol.Message
}

func newRecordingPeer(npc *NPC) *recordingPeer {
	return &recordingPeer{NPC: npc}
}

func (r *recordingPeer) Deliver(msg *protocol.Message) {
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	r.NPC.Deliver(msg)
}

func (r *recordingPeer) received() []*protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*protocol.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

func countMessages(msgs []*protocol.Message, msgType protocol.MessageType) int {
	n := 0
	for _, msg := range msgs {
		if msg.Type == msgType {
			n++
		}
	}
	return n
}

func lastMessage(msgs []*protocol.Message, msgType protocol.MessageType) *protocol.Message {
	var last *protocol.Message
	for _, msg := range msgs {
		if msg.Type == msgType {
			last = msg
		}
	}
	return last
}

// waitGameOver 等引擎把结束通知交回大厅
func waitGameOver(t *testing.T, lobby *Lobby) {
	t.Helper()
	select {
	case cmd := <-lobby.cmds:
		require.Equal(t, cmdGameOver, cmd.kind)
	case <-time.After(5 * time.Second):
		t.Fatal("game did not finish in time")
	}
}

func bidScript(values ...int32) []*protocol.Message {
	var script []*protocol.Message
	for _, v := range values {
		script = append(script, protocol.NewMessage(protocol.MsgBid, protocol.BidPayload{Value: v}))
	}
	return script
}

func TestGame_FullRound(t *testing.T) {
	lobby := NewLobby(config.Default(), nil)

	// 0 号位不叫，1 号位叫到 10 后过，2 号位叫 12 拿下单打
	seat0 := newRecordingPeer(NewNPC(1))
	seat1 := newRecordingPeer(NewScriptedNPC(2, "Bieter", bidScript(10, 0)))
	seat2 := newRecordingPeer(NewScriptedNPC(3, "Solist", bidScript(12, 0)))

	NewGame(lobby, [seatCount]Peer{seat0, seat1, seat2})
	waitGameOver(t, lobby)

	// 发牌：每人 10 张，单打方多拿 2 张底牌
	assert.Equal(t, 10, countMessages(seat0.received(), protocol.MsgDrawCard))
	assert.Equal(t, 10, countMessages(seat1.received(), protocol.MsgDrawCard))
	assert.Equal(t, 12, countMessages(seat2.received(), protocol.MsgDrawCard))

	// 座次职责通报
	assert.Equal(t, 1, countMessages(seat0.received(), protocol.MsgHear))
	assert.Equal(t, 1, countMessages(seat1.received(), protocol.MsgSay))
	assert.Equal(t, 1, countMessages(seat2.received(), protocol.MsgSayFurther))

	// 有效叫分按顺序广播给所有人
	var bids []int32
	for _, msg := range seat0.received() {
		if msg.Type == protocol.MsgNewBid {
			payload, ok := protocol.PayloadAs[protocol.NewBidPayload](msg)
			require.True(t, ok)
			bids = append(bids, payload.Value)
		}
	}
	assert.Equal(t, []int32{10, 12}, bids)

	// 角色公布：最高价的 2 号位单打，其余防守
	assert.Equal(t, 1, countMessages(seat2.received(), protocol.MsgPlaySolo))
	assert.Equal(t, 1, countMessages(seat0.received(), protocol.MsgPlayDuo))
	assert.Equal(t, 1, countMessages(seat1.received(), protocol.MsgPlayDuo))

	// 主花色广播到每个座位，十墩每人都有 10 次出牌机会
	for _, seat := range []*recordingPeer{seat0, seat1, seat2} {
		assert.Equal(t, 1, countMessages(seat.received(), protocol.MsgTrump))
		assert.Equal(t, 10, countMessages(seat.received(), protocol.MsgYourTurn))
	}

	// 结算：总分恒为 120，赢家看单打方是否过 60
	won := lastMessage(seat0.received(), protocol.MsgGameWon)
	require.NotNil(t, won)
	result, ok := protocol.PayloadAs[protocol.GameWonPayload](won)
	require.True(t, ok)

	assert.Equal(t, uint32(120), result.WinnerPoints+result.LoserPoints)
	if result.HasWinner {
		if result.WinnerID == seat2.ID() {
			assert.Greater(t, result.WinnerPoints, uint32(60))
		} else {
			// 防守方赢记在单打方下家名下
			assert.Equal(t, seat0.ID(), result.WinnerID)
		}
	} else {
		assert.Equal(t, uint32(60), result.WinnerPoints)
		assert.Equal(t, uint32(60), result.LoserPoints)
	}

	// 三个座位看到的结果一致
	for _, seat := range []*recordingPeer{seat1, seat2} {
		msg := lastMessage(seat.received(), protocol.MsgGameWon)
		require.NotNil(t, msg)
		assert.Equal(t, won.Payload, msg.Payload)
	}
}

func TestGame_AllPassEndsWithoutResult(t *testing.T) {
	lobby := NewLobby(config.Default(), nil)

	seat0 := newRecordingPeer(NewNPC(1))
	seat1 := newRecordingPeer(NewNPC(2))
	seat2 := newRecordingPeer(NewNPC(3))

	NewGame(lobby, [seatCount]Peer{seat0, seat1, seat2})
	waitGameOver(t, lobby)

	for _, seat := range []*recordingPeer{seat0, seat1, seat2} {
		msgs := seat.received()
		// 流局：牌照发，但没有角色、没有出牌、没有结算
		assert.Equal(t, 10, countMessages(msgs, protocol.MsgDrawCard))
		assert.Zero(t, countMessages(msgs, protocol.MsgPlaySolo))
		assert.Zero(t, countMessages(msgs, protocol.MsgYourTurn))
		assert.Zero(t, countMessages(msgs, protocol.MsgGameWon))
	}
}

func TestGame_CloseAbortsRound(t *testing.T) {
	lobby := NewLobby(config.Default(), nil)

	// 1 号位先叫分，挂一个永远不应答的座位把引擎钉在那里
	stuck := newMockPeer(2, "Stuck")
	peers := [seatCount]Peer{NewNPC(1), stuck, NewNPC(3)}

	g := NewGame(lobby, peers)

	// 等引擎发完牌、停在叫分上
	require.Eventually(t, func() bool {
		return countMessages(stuck.received(), protocol.MsgDrawCard) == 10
	}, 2*time.Second, 10*time.Millisecond)

	returned := g.Close()
	assert.Equal(t, peers, returned)

	// 被收掉的对局不结算，也不往大厅交结束通知
	assert.Zero(t, countMessages(stuck.received(), protocol.MsgGameWon))
	select {
	case cmd := <-lobby.cmds:
		t.Fatalf("unexpected lobby command: %v", cmd.kind)
	default:
	}
}

func TestGame_HasPlayer(t *testing.T) {
	lobby := NewLobby(config.Default(), nil)
	g := NewGame(lobby, [seatCount]Peer{NewNPC(1), NewNPC(2), NewNPC(3)})
	waitGameOver(t, lobby)

	assert.True(t, g.HasPlayer(2))
	assert.False(t, g.HasPlayer(42))
}

func TestTrickWinner(t *testing.T) {
	c := func(s card.Suit, r card.Rank) card.Card { return card.Card{Suit: s, Rank: r} }

	tests := []struct {
		name   string
		cards  [seatCount]card.Card
		trump  card.Suit
		winner int
	}{
		{
			name:   "highest of led suit wins plain trick",
			cards:  [seatCount]card.Card{c(card.Hearts, card.King), c(card.Hearts, card.Ten), c(card.Hearts, card.Nine)},
			trump:  card.Clubs,
			winner: 1,
		},
		{
			name:   "off-suit card cannot win",
			cards:  [seatCount]card.Card{c(card.Hearts, card.Seven), c(card.Spades, card.Ace), c(card.Hearts, card.Eight)},
			trump:  card.Clubs,
			winner: 2,
		},
		{
			name:   "small trump beats led ace",
			cards:  [seatCount]card.Card{c(card.Hearts, card.Ace), c(card.Clubs, card.Seven), c(card.Hearts, card.Ten)},
			trump:  card.Clubs,
			winner: 1,
		},
		{
			name:   "jack beats trump ace",
			cards:  [seatCount]card.Card{c(card.Clubs, card.Ace), c(card.Diamonds, card.Jack), c(card.Clubs, card.Ten)},
			trump:  card.Clubs,
			winner: 1,
		},
		{
			name:   "clubs jack beats spades jack",
			cards:  [seatCount]card.Card{c(card.Spades, card.Jack), c(card.Clubs, card.Jack), c(card.Hearts, card.Jack)},
			trump:  card.Diamonds,
			winner: 1,
		},
		{
			name:   "jack trumps a plain trick",
			cards:  [seatCount]card.Card{c(card.Hearts, card.Ace), c(card.Hearts, card.Ten), c(card.Hearts, card.Jack)},
			trump:  card.Clubs,
			winner: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.winner, trickWinner(tt.cards, tt.trump))
		})
	}
}
