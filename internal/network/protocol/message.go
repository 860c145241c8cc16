package protocol

// Message 基础消息结构。
// Payload 为对应类型的 payload 结构体值（无 payload 的类型为 nil），
// 相等性为结构相等，任意变体经编解码器往返后保持不变。
type Message struct {
	Type    MessageType
	Payload any
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgLogin      MessageType = "login"       // 登录（昵称）
	MsgKeepAlive  MessageType = "keep_alive"  // 心跳（客户端发起，服务端只收不发）
	MsgJoinGame   MessageType = "join_game"   // 请求入座等待局
	MsgDisconnect MessageType = "disconnect"  // 主动断开通知
	MsgBid        MessageType = "bid"         // 叫分，0 表示不叫
	MsgPlayCard   MessageType = "play_card"   // 出牌
)

// 服务端 → 客户端 消息类型
const (
	MsgConfirmJoin MessageType = "confirm_join" // 连接确认，携带分配的 ID
	MsgPlayerJoin  MessageType = "player_join"  // 玩家入座通知
	MsgPlayerLeave MessageType = "player_leave" // 玩家离座通知
	MsgDrawCard    MessageType = "draw_card"    // 发牌
	MsgHear        MessageType = "hear"         // 叫分开局：0 号位听叫
	MsgSay         MessageType = "say"          // 叫分开局：1 号位先叫
	MsgSayFurther  MessageType = "say_further"  // 叫分开局：2 号位续叫
	MsgNewBid      MessageType = "new_bid"      // 新的有效叫分广播
	MsgYourTurn    MessageType = "your_turn"    // 轮到出牌
	MsgPlaySolo    MessageType = "play_solo"    // 角色通知：单打方
	MsgPlayDuo     MessageType = "play_duo"     // 角色通知：防守方
	MsgGameWon     MessageType = "game_won"     // 本局结果
	MsgBackToLobby MessageType = "back_to_lobby" // 回到大厅
)

// MsgTrump 双向：单打方宣布主花色，服务端原样广播
const MsgTrump MessageType = "trump"
