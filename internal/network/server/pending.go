package server

import (
	"github.com/palemoky/skat-server/internal/network/protocol"
)

// seatCount 一局 Skat 的座位数
const seatCount = 3

// PendingGame 还没凑满人的等待局。
// 只在大厅的命令循环里读写，不需要加锁。
type PendingGame struct {
	peers []Peer
}

// NewPendingGame 创建空的等待局
func NewPendingGame() *PendingGame {
	return &PendingGame{
		peers: make([]Peer, 0, seatCount),
	}
}

// AddPeer 入座一名玩家并把当前座次重新广播给所有在座者，
// 返回是否已凑满可以开局。晚到的玩家靠重播拿到完整座次。
func (pg *PendingGame) AddPeer(p Peer) bool {
	pg.peers = append(pg.peers, p)

	for _, member := range pg.peers {
		for _, other := range pg.peers {
			member.Deliver(protocol.NewMessage(protocol.MsgPlayerJoin, protocol.PlayerJoinPayload{
				PlayerID: other.ID(),
				Name:     other.Name(),
			}))
		}
	}

	return len(pg.peers) == seatCount
}

// TryRemovePlayer 把指定玩家移出等待局，后续座位前移补位。
// 离座消息无论人在不在座都广播，收到未知 ID 的一方自行忽略，
// 重复通知无害。返回被移除的玩家，不在座则返回 nil。
func (pg *PendingGame) TryRemovePlayer(id uint32) Peer {
	var removed Peer
	for i, p := range pg.peers {
		if p.ID() == id {
			removed = p
			pg.peers = append(pg.peers[:i], pg.peers[i+1:]...)
			break
		}
	}

	for _, p := range pg.peers {
		p.Deliver(protocol.NewMessage(protocol.MsgPlayerLeave, protocol.PlayerLeavePayload{
			PlayerID: id,
		}))
	}
	return removed
}

// HasPlayer 判断玩家是否在座
func (pg *PendingGame) HasPlayer(id uint32) bool {
	for _, p := range pg.peers {
		if p.ID() == id {
			return true
		}
	}
	return false
}

// Len 返回在座人数
func (pg *PendingGame) Len() int {
	return len(pg.peers)
}

// Peers 返回在座玩家，按入座顺序
func (pg *PendingGame) Peers() []Peer {
	return pg.peers
}
