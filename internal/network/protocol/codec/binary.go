package codec

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/skat-server/internal/game/card"
	"github.com/palemoky/skat-server/internal/network/protocol"
)

// Binary 紧凑编码方案：protobuf 线格式的信封（1=类型枚举, 2=payload 字节），
// payload 按消息类型用固定字段号编码。帧以换行分隔，protobuf 字节可能
// 包含 0x0A，因此整帧经 base64 保证行安全。
type Binary struct{}

func (Binary) Name() string { return "binary" }

// 消息类型的线上枚举值，0 保留为未知
const (
	pbMsgUnknown = iota
	pbMsgLogin
	pbMsgKeepAlive
	pbMsgJoinGame
	pbMsgDisconnect
	pbMsgBid
	pbMsgPlayCard
	pbMsgTrump
	pbMsgConfirmJoin
	pbMsgPlayerJoin
	pbMsgPlayerLeave
	pbMsgDrawCard
	pbMsgHear
	pbMsgSay
	pbMsgSayFurther
	pbMsgNewBid
	pbMsgYourTurn
	pbMsgPlaySolo
	pbMsgPlayDuo
	pbMsgGameWon
	pbMsgBackToLobby
)

// messageTypeToProto 字符串消息类型转线上枚举值
func messageTypeToProto(t protocol.MessageType) uint64 {
	switch t {
	case protocol.MsgLogin:
		return pbMsgLogin
	case protocol.MsgKeepAlive:
		return pbMsgKeepAlive
	case protocol.MsgJoinGame:
		return pbMsgJoinGame
	case protocol.MsgDisconnect:
		return pbMsgDisconnect
	case protocol.MsgBid:
		return pbMsgBid
	case protocol.MsgPlayCard:
		return pbMsgPlayCard
	case protocol.MsgTrump:
		return pbMsgTrump
	case protocol.MsgConfirmJoin:
		return pbMsgConfirmJoin
	case protocol.MsgPlayerJoin:
		return pbMsgPlayerJoin
	case protocol.MsgPlayerLeave:
		return pbMsgPlayerLeave
	case protocol.MsgDrawCard:
		return pbMsgDrawCard
	case protocol.MsgHear:
		return pbMsgHear
	case protocol.MsgSay:
		return pbMsgSay
	case protocol.MsgSayFurther:
		return pbMsgSayFurther
	case protocol.MsgNewBid:
		return pbMsgNewBid
	case protocol.MsgYourTurn:
		return pbMsgYourTurn
	case protocol.MsgPlaySolo:
		return pbMsgPlaySolo
	case protocol.MsgPlayDuo:
		return pbMsgPlayDuo
	case protocol.MsgGameWon:
		return pbMsgGameWon
	case protocol.MsgBackToLobby:
		return pbMsgBackToLobby
	default:
		return pbMsgUnknown
	}
}

// protoToMessageType 线上枚举值转字符串消息类型
func protoToMessageType(v uint64) (protocol.MessageType, bool) {
	switch v {
	case pbMsgLogin:
		return protocol.MsgLogin, true
	case pbMsgKeepAlive:
		return protocol.MsgKeepAlive, true
	case pbMsgJoinGame:
		return protocol.MsgJoinGame, true
	case pbMsgDisconnect:
		return protocol.MsgDisconnect, true
	case pbMsgBid:
		return protocol.MsgBid, true
	case pbMsgPlayCard:
		return protocol.MsgPlayCard, true
	case pbMsgTrump:
		return protocol.MsgTrump, true
	case pbMsgConfirmJoin:
		return protocol.MsgConfirmJoin, true
	case pbMsgPlayerJoin:
		return protocol.MsgPlayerJoin, true
	case pbMsgPlayerLeave:
		return protocol.MsgPlayerLeave, true
	case pbMsgDrawCard:
		return protocol.MsgDrawCard, true
	case pbMsgHear:
		return protocol.MsgHear, true
	case pbMsgSay:
		return protocol.MsgSay, true
	case pbMsgSayFurther:
		return protocol.MsgSayFurther, true
	case pbMsgNewBid:
		return protocol.MsgNewBid, true
	case pbMsgYourTurn:
		return protocol.MsgYourTurn, true
	case pbMsgPlaySolo:
		return protocol.MsgPlaySolo, true
	case pbMsgPlayDuo:
		return protocol.MsgPlayDuo, true
	case pbMsgGameWon:
		return protocol.MsgGameWon, true
	case pbMsgBackToLobby:
		return protocol.MsgBackToLobby, true
	default:
		return "", false
	}
}

// Encode 将消息编码为 base64 包装的 protobuf 字节
func (Binary) Encode(msg *protocol.Message) ([]byte, error) {
	enum := messageTypeToProto(msg.Type)
	if enum == pbMsgUnknown {
		return nil, fmt.Errorf("未知的消息类型: %q", msg.Type)
	}

	payload, err := encodePayload(msg)
	if err != nil {
		return nil, err
	}

	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, enum)
	if len(payload) > 0 {
		buf = protowire.AppendTag(buf, 2, protowire.BytesType)
		buf = protowire.AppendBytes(buf, payload)
	}

	out := make([]byte, base64.StdEncoding.EncodedLen(len(buf)))
	base64.StdEncoding.Encode(out, buf)
	return out, nil
}

// Decode 从 base64 包装的 protobuf 字节解码消息
func (Binary) Decode(data []byte) (*protocol.Message, error) {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(raw, data)
	if err != nil {
		return nil, fmt.Errorf("base64 解码失败: %w", err)
	}
	raw = raw[:n]

	var enum uint64
	var payloadBytes []byte
	r := &fieldReader{buf: raw}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch {
		case num == 1 && typ == protowire.VarintType:
			enum = r.varint()
		case num == 2 && typ == protowire.BytesType:
			payloadBytes = r.bytes()
		default:
			r.skip(num, typ)
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("解码信封失败: %w", r.err)
	}

	msgType, ok := protoToMessageType(enum)
	if !ok {
		return nil, fmt.Errorf("未知的消息枚举值: %d", enum)
	}

	payload, err := decodePayload(msgType, payloadBytes)
	if err != nil {
		return nil, err
	}

	return &protocol.Message{Type: msgType, Payload: payload}, nil
}

// encodePayload 按消息类型编码 payload 字段，零值字段按 proto3 规则省略
func encodePayload(msg *protocol.Message) ([]byte, error) {
	switch p := msg.Payload.(type) {
	case nil:
		if _, hasPayload := protocol.NewPayload(msg.Type); hasPayload {
			return nil, fmt.Errorf("消息 %q 缺少 payload", msg.Type)
		}
		return nil, nil
	case protocol.LoginPayload:
		return appendStringField(nil, 1, p.Name), nil
	case protocol.KeepAlivePayload:
		return appendVarintField(nil, 1, uint64(p.Timestamp)), nil
	case protocol.BidPayload:
		return appendVarintField(nil, 1, uint64(int64(p.Value))), nil
	case protocol.NewBidPayload:
		return appendVarintField(nil, 1, uint64(int64(p.Value))), nil
	case protocol.PlayCardPayload:
		return appendCardField(nil, 1, p.Card), nil
	case protocol.DrawCardPayload:
		return appendCardField(nil, 1, p.Card), nil
	case protocol.TrumpPayload:
		return appendVarintField(nil, 1, uint64(p.Suit)), nil
	case protocol.ConfirmJoinPayload:
		return appendVarintField(nil, 1, uint64(p.PlayerID)), nil
	case protocol.PlayerLeavePayload:
		return appendVarintField(nil, 1, uint64(p.PlayerID)), nil
	case protocol.PlayerJoinPayload:
		buf := appendVarintField(nil, 1, uint64(p.PlayerID))
		return appendStringField(buf, 2, p.Name), nil
	case protocol.GameWonPayload:
		buf := appendBoolField(nil, 1, p.HasWinner)
		buf = appendVarintField(buf, 2, uint64(p.WinnerID))
		buf = appendVarintField(buf, 3, uint64(p.WinnerPoints))
		return appendVarintField(buf, 4, uint64(p.LoserPoints)), nil
	default:
		return nil, fmt.Errorf("消息 %q 携带了无法编码的 payload %T", msg.Type, msg.Payload)
	}
}

// decodePayload 按消息类型解码 payload 字段，缺失字段取零值
func decodePayload(msgType protocol.MessageType, buf []byte) (any, error) {
	if _, hasPayload := protocol.NewPayload(msgType); !hasPayload {
		if len(buf) > 0 {
			return nil, fmt.Errorf("消息 %q 不携带 payload", msgType)
		}
		return nil, nil
	}

	r := &fieldReader{buf: buf}
	var payload any

	switch msgType {
	case protocol.MsgLogin:
		var p protocol.LoginPayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			if num == 1 && typ == protowire.BytesType {
				p.Name = string(r.bytes())
			} else {
				r.skip(num, typ)
			}
		}
		payload = p
	case protocol.MsgKeepAlive:
		var p protocol.KeepAlivePayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			if num == 1 && typ == protowire.VarintType {
				p.Timestamp = int64(r.varint())
			} else {
				r.skip(num, typ)
			}
		}
		payload = p
	case protocol.MsgBid:
		var p protocol.BidPayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			if num == 1 && typ == protowire.VarintType {
				p.Value = int32(r.varint())
			} else {
				r.skip(num, typ)
			}
		}
		payload = p
	case protocol.MsgNewBid:
		var p protocol.NewBidPayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			if num == 1 && typ == protowire.VarintType {
				p.Value = int32(r.varint())
			} else {
				r.skip(num, typ)
			}
		}
		payload = p
	case protocol.MsgPlayCard:
		var p protocol.PlayCardPayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			if num == 1 && typ == protowire.BytesType {
				c, err := decodeCard(r.bytes())
				if err != nil {
					return nil, err
				}
				p.Card = c
			} else {
				r.skip(num, typ)
			}
		}
		payload = p
	case protocol.MsgDrawCard:
		var p protocol.DrawCardPayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			if num == 1 && typ == protowire.BytesType {
				c, err := decodeCard(r.bytes())
				if err != nil {
					return nil, err
				}
				p.Card = c
			} else {
				r.skip(num, typ)
			}
		}
		payload = p
	case protocol.MsgTrump:
		var p protocol.TrumpPayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			if num == 1 && typ == protowire.VarintType {
				p.Suit = card.Suit(r.varint())
			} else {
				r.skip(num, typ)
			}
		}
		payload = p
	case protocol.MsgConfirmJoin:
		var p protocol.ConfirmJoinPayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			if num == 1 && typ == protowire.VarintType {
				p.PlayerID = uint32(r.varint())
			} else {
				r.skip(num, typ)
			}
		}
		payload = p
	case protocol.MsgPlayerLeave:
		var p protocol.PlayerLeavePayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			if num == 1 && typ == protowire.VarintType {
				p.PlayerID = uint32(r.varint())
			} else {
				r.skip(num, typ)
			}
		}
		payload = p
	case protocol.MsgPlayerJoin:
		var p protocol.PlayerJoinPayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			switch {
			case num == 1 && typ == protowire.VarintType:
				p.PlayerID = uint32(r.varint())
			case num == 2 && typ == protowire.BytesType:
				p.Name = string(r.bytes())
			default:
				r.skip(num, typ)
			}
		}
		payload = p
	case protocol.MsgGameWon:
		var p protocol.GameWonPayload
		for {
			num, typ, ok := r.next()
			if !ok {
				break
			}
			switch {
			case num == 1 && typ == protowire.VarintType:
				p.HasWinner = r.varint() != 0
			case num == 2 && typ == protowire.VarintType:
				p.WinnerID = uint32(r.varint())
			case num == 3 && typ == protowire.VarintType:
				p.WinnerPoints = uint32(r.varint())
			case num == 4 && typ == protowire.VarintType:
				p.LoserPoints = uint32(r.varint())
			default:
				r.skip(num, typ)
			}
		}
		payload = p
	}

	if r.err != nil {
		return nil, fmt.Errorf("解码 %q payload 失败: %w", msgType, r.err)
	}
	return payload, nil
}

// decodeCard 解码嵌套的牌消息（1=花色, 2=点数）
func decodeCard(buf []byte) (card.Card, error) {
	var c card.Card
	r := &fieldReader{buf: buf}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch {
		case num == 1 && typ == protowire.VarintType:
			c.Suit = card.Suit(r.varint())
		case num == 2 && typ == protowire.VarintType:
			c.Rank = card.Rank(r.varint())
		default:
			r.skip(num, typ)
		}
	}
	if r.err != nil {
		return card.Card{}, fmt.Errorf("解码牌失败: %w", r.err)
	}
	return c, nil
}

// --- protobuf 字段读写 ---

// fieldReader 逐个读出 protobuf 字段，未知字段按线格式规则跳过
type fieldReader struct {
	buf []byte
	err error
}

func (r *fieldReader) next() (protowire.Number, protowire.Type, bool) {
	if r.err != nil || len(r.buf) == 0 {
		return 0, 0, false
	}
	num, typ, n := protowire.ConsumeTag(r.buf)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return 0, 0, false
	}
	r.buf = r.buf[n:]
	return num, typ, true
}

func (r *fieldReader) varint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := protowire.ConsumeVarint(r.buf)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return 0
	}
	r.buf = r.buf[n:]
	return v
}

func (r *fieldReader) bytes() []byte {
	if r.err != nil {
		return nil
	}
	b, n := protowire.ConsumeBytes(r.buf)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return nil
	}
	r.buf = r.buf[n:]
	return b
}

func (r *fieldReader) skip(num protowire.Number, typ protowire.Type) {
	if r.err != nil {
		return
	}
	n := protowire.ConsumeFieldValue(num, typ, r.buf)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return
	}
	r.buf = r.buf[n:]
}

func appendVarintField(buf []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, v)
}

func appendBoolField(buf []byte, num protowire.Number, v bool) []byte {
	if !v {
		return buf
	}
	return appendVarintField(buf, num, 1)
}

func appendStringField(buf []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendString(buf, s)
}

// appendCardField 牌作为嵌套消息写入（1=花色, 2=点数），始终在线上出现
func appendCardField(buf []byte, num protowire.Number, c card.Card) []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(c.Suit))
	b = appendVarintField(b, 2, uint64(c.Rank))
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendBytes(buf, b)
}
