// Package codec 提供消息与字节帧之间的可替换编解码方案。
// 帧以换行分隔，语义与编码方式无关：任意 Message 变体
// 经任一编解码器往返后必须结构相等。
package codec

import (
	"fmt"

	"github.com/palemoky/skat-server/internal/network/protocol"
)

// Codec 消息编解码器
type Codec interface {
	// Name 返回编码方案名，用于配置选择与日志
	Name() string
	// Encode 将消息编码为一个不含换行符的帧
	Encode(msg *protocol.Message) ([]byte, error)
	// Decode 从一个帧解码消息
	Decode(data []byte) (*protocol.Message, error)
}

// New 按配置名创建编解码器
func New(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "binary":
		return Binary{}, nil
	default:
		return nil, fmt.Errorf("未知的编码方案: %q", name)
	}
}
