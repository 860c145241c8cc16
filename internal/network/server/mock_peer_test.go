package server

import (
	"context"
	"sync"

	"github.com/palemoky/skat-server/internal/network/protocol"
)

// mockPeer 手动驱动的 Peer，测试用。
// Deliver 进的消息记在 sent 里，Expect 从 inbox 通道取。
type mockPeer struct {
	id   uint32
	name string

	mu   sync.Mutex
	sent []*protocol.Message

	inbox chan *protocol.Message
}

func newMockPeer(id uint32, name string) *mockPeer {
	return &mockPeer{
		id:    id,
		name:  name,
		inbox: make(chan *protocol.Message, 32),
	}
}

func (m *mockPeer) ID() uint32   { return m.id }
func (m *mockPeer) Name() string { return m.name }

func (m *mockPeer) Expect(ctx context.Context, msgType protocol.MessageType) (*protocol.Message, error) {
	for {
		select {
		case msg := <-m.inbox:
			if msg.Type == msgType {
				return msg, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (m *mockPeer) Deliver(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
}

func (m *mockPeer) Close() {}

// received 返回记录下来的全部消息
func (m *mockPeer) received() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*protocol.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// countOf 统计收到的指定类型消息条数
func (m *mockPeer) countOf(msgType protocol.MessageType) int {
	n := 0
	for _, msg := range m.received() {
		if msg.Type == msgType {
			n++
		}
	}
	return n
}

// lastOf 返回最后一条指定类型的消息，没有则返回 nil
func (m *mockPeer) lastOf(msgType protocol.MessageType) *protocol.Message {
	var last *protocol.Message
	for _, msg := range m.received() {
		if msg.Type == msgType {
			last = msg
		}
	}
	return last
}
