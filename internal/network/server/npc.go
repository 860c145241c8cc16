package server

import (
	"context"
	"sync"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/palemoky/skat-server/internal/game/card"
	"github.com/palemoky/skat-server/internal/network/protocol"
)

// NPC 补位机器人。不占网络连接，消息就地应答：
// 发给它的牌记进手牌，问它要消息时优先回放脚本，
// 脚本耗尽后按最保守的策略自己拿主意。
type NPC struct {
	id   uint32
	name string

	mu     sync.Mutex
	script []*protocol.Message
	hand   []card.Card
}

// NewNPC 创建一个自动应答的 NPC
func NewNPC(id uint32) *NPC {
	return &NPC{
		id:   id,
		name: "NPC·" + gofakeit.FirstName(),
	}
}

// NewScriptedNPC 创建按脚本应答的 NPC，测试和演示用
func NewScriptedNPC(id uint32, name string, script []*protocol.Message) *NPC {
	return &NPC{
		id:     id,
		name:   name,
		script: script,
	}
}

// ID 返回连接 ID
func (n *NPC) ID() uint32 { return n.id }

// Name 返回昵称
func (n *NPC) Name() string { return n.name }

// Deliver 接收消息。发牌记进手牌，其余消息直接丢弃
func (n *NPC) Deliver(msg *protocol.Message) {
	if msg.Type != protocol.MsgDrawCard {
		return
	}
	payload, ok := protocol.PayloadAs[protocol.DrawCardPayload](msg)
	if !ok {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.hand = append(n.hand, payload.Card)
}

// Expect 立即应答。脚本里有匹配类型就回放脚本（中途的
// 不匹配条目弃掉），否则按类型现编一条：叫分必不叫，
// 出牌打手牌里最旧的一张，报主报手牌里最多的花色。
func (n *NPC) Expect(ctx context.Context, msgType protocol.MessageType) (*protocol.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for len(n.script) > 0 {
		msg := n.script[0]
		n.script = n.script[1:]
		if msg.Type == msgType {
			return msg, nil
		}
	}

	switch msgType {
	case protocol.MsgBid:
		return protocol.NewMessage(protocol.MsgBid, protocol.BidPayload{Value: 0}), nil
	case protocol.MsgPlayCard:
		return protocol.NewMessage(protocol.MsgPlayCard, protocol.PlayCardPayload{Card: n.popCard()}), nil
	case protocol.MsgTrump:
		return protocol.NewMessage(protocol.MsgTrump, protocol.TrumpPayload{Suit: n.bestSuit()}), nil
	default:
		return protocol.NewMessage(msgType, nil), nil
	}
}

// Close NPC 没有要释放的资源
func (n *NPC) Close() {}

// popCard 取出手牌里最旧的一张，调用方须持有锁
func (n *NPC) popCard() card.Card {
	if len(n.hand) == 0 {
		return card.Card{}
	}
	c := n.hand[0]
	n.hand = n.hand[1:]
	return c
}

// bestSuit 返回手牌里最多的花色，调用方须持有锁
func (n *NPC) bestSuit() card.Suit {
	counts := make(map[card.Suit]int)
	best := card.Clubs
	for _, c := range n.hand {
		counts[c.Suit]++
		if counts[c.Suit] > counts[best] {
			best = c.Suit
		}
	}
	return best
}
