package protocol

import "github.com/palemoky/skat-server/internal/game/card"

// --- 客户端请求 Payloads ---

// LoginPayload 登录请求
type LoginPayload struct {
	Name string `json:"name"` // 展示昵称，登录完成后不可变
}

// KeepAlivePayload 心跳请求
type KeepAlivePayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// BidPayload 叫分请求，0 表示不叫
type BidPayload struct {
	Value int32 `json:"value"`
}

// PlayCardPayload 出牌请求
type PlayCardPayload struct {
	Card card.Card `json:"card"`
}

// TrumpPayload 主花色宣告（请求与广播共用）
type TrumpPayload struct {
	Suit card.Suit `json:"suit"`
}

// --- 服务端响应 Payloads ---

// ConfirmJoinPayload 连接确认响应
type ConfirmJoinPayload struct {
	PlayerID uint32 `json:"player_id"`
}

// PlayerJoinPayload 玩家入座通知
type PlayerJoinPayload struct {
	PlayerID uint32 `json:"player_id"`
	Name     string `json:"name"`
}

// PlayerLeavePayload 玩家离座通知
type PlayerLeavePayload struct {
	PlayerID uint32 `json:"player_id"`
}

// DrawCardPayload 发牌通知
type DrawCardPayload struct {
	Card card.Card `json:"card"`
}

// NewBidPayload 新的有效叫分广播
type NewBidPayload struct {
	Value int32 `json:"value"`
}

// GameWonPayload 本局结果。
// 60/60 平局时 HasWinner 为 false，双方分数都钉在 60。
type GameWonPayload struct {
	HasWinner    bool   `json:"has_winner"`
	WinnerID     uint32 `json:"winner_id"`
	WinnerPoints uint32 `json:"winner_points"`
	LoserPoints  uint32 `json:"loser_points"`
}
