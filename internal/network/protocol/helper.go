package protocol

import "time"

// NewMessage 创建一个新消息
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		Type:    msgType,
		Payload: payload,
	}
}

// PayloadAs 取出消息的 Payload 并断言为指定类型
func PayloadAs[T any](msg *Message) (T, bool) {
	payload, ok := msg.Payload.(T)
	return payload, ok
}

// NewPayload 返回消息类型对应的空 payload 结构体指针。
// 无 payload 的类型返回 (nil, false)，这是整个闭合联合体的唯一登记处，
// 编解码器据此解码。
func NewPayload(msgType MessageType) (any, bool) {
	switch msgType {
	case MsgLogin:
		return &LoginPayload{}, true
	case MsgKeepAlive:
		return &KeepAlivePayload{}, true
	case MsgBid:
		return &BidPayload{}, true
	case MsgPlayCard:
		return &PlayCardPayload{}, true
	case MsgTrump:
		return &TrumpPayload{}, true
	case MsgConfirmJoin:
		return &ConfirmJoinPayload{}, true
	case MsgPlayerJoin:
		return &PlayerJoinPayload{}, true
	case MsgPlayerLeave:
		return &PlayerLeavePayload{}, true
	case MsgDrawCard:
		return &DrawCardPayload{}, true
	case MsgNewBid:
		return &NewBidPayload{}, true
	case MsgGameWon:
		return &GameWonPayload{}, true
	default:
		return nil, false
	}
}

// Valid 报告消息类型是否属于协议联合体。
// NewPayload 对无 payload 的类型和未知类型都返回 false，闭合性校验走这里。
func (t MessageType) Valid() bool {
	switch t {
	case MsgLogin, MsgKeepAlive, MsgJoinGame, MsgDisconnect, MsgBid, MsgPlayCard,
		MsgTrump, MsgConfirmJoin, MsgPlayerJoin, MsgPlayerLeave, MsgDrawCard,
		MsgHear, MsgSay, MsgSayFurther, MsgNewBid, MsgYourTurn,
		MsgPlaySolo, MsgPlayDuo, MsgGameWon, MsgBackToLobby:
		return true
	default:
		return false
	}
}

// NowMillis 返回当前毫秒时间戳，心跳与超时判定统一用它
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
