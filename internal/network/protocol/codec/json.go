package codec

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/palemoky/skat-server/internal/network/protocol"
)

// JSON 人类可读的编解码器，外层为 {type, payload} 信封
type JSON struct{}

// envelope JSON 线格式信封
type envelope struct {
	Type    protocol.MessageType `json:"type"`
	Payload json.RawMessage      `json:"payload,omitempty"`
}

func (JSON) Name() string { return "json" }

// Encode 将消息编码为 JSON 字节
func (JSON) Encode(msg *protocol.Message) ([]byte, error) {
	env := envelope{Type: msg.Type}

	if msg.Payload != nil {
		data, err := json.Marshal(msg.Payload)
		if err != nil {
			return nil, fmt.Errorf("编码 payload 失败: %w", err)
		}
		env.Payload = data
	}

	return json.Marshal(env)
}

// Decode 从 JSON 字节解码消息
func (JSON) Decode(data []byte) (*protocol.Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	if !env.Type.Valid() {
		return nil, fmt.Errorf("未知的消息类型: %q", env.Type)
	}

	msg := &protocol.Message{Type: env.Type}

	ptr, ok := protocol.NewPayload(env.Type)
	if !ok {
		if len(env.Payload) > 0 {
			return nil, fmt.Errorf("消息类型 %q 不携带 payload", env.Type)
		}
		return msg, nil
	}

	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("消息类型 %q 缺少 payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, ptr); err != nil {
		return nil, fmt.Errorf("解码 payload 失败: %w", err)
	}

	msg.Payload = reflect.ValueOf(ptr).Elem().Interface()
	return msg, nil
}
