package server

import (
	"context"
	"fmt"

	"github.com/palemoky/skat-server/internal/network/protocol"
)

// Peer 牌局参与者。真人玩家与 NPC 都实现它，
// 牌局引擎只通过这个接口与座位交互，不关心对端是谁。
type Peer interface {
	// ID 返回全局唯一的连接 ID
	ID() uint32
	// Name 返回展示昵称
	Name() string
	// Expect 阻塞等待下一条指定类型的消息，其他类型的消息会被丢弃
	Expect(ctx context.Context, msgType protocol.MessageType) (*protocol.Message, error)
	// Deliver 投递一条消息给对端，绝不阻塞调用方
	Deliver(msg *protocol.Message)
	// Close 释放对端资源，可重复调用
	Close()
}

// ExpectPayload 等待指定类型的消息并取出其 payload
func ExpectPayload[T any](ctx context.Context, p Peer, msgType protocol.MessageType) (T, error) {
	var zero T
	msg, err := p.Expect(ctx, msgType)
	if err != nil {
		return zero, err
	}
	payload, ok := protocol.PayloadAs[T](msg)
	if !ok {
		return zero, fmt.Errorf("消息 %s 的 payload 类型不符: %T", msg.Type, msg.Payload)
	}
	return payload, nil
}
