package server

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/palemoky/skat-server/internal/config"
	"github.com/palemoky/skat-server/internal/network/protocol"
	"github.com/palemoky/skat-server/internal/network/server/storage"
)

// lobbyCmdKind 大厅命令类型
type lobbyCmdKind int

const (
	cmdRegister lobbyCmdKind = iota
	cmdJoinGame
	cmdDisconnect
	cmdRename
	cmdAddNPC
	cmdGameOver
)

// lobbyCmd 大厅命令，按 kind 取用字段
type lobbyCmd struct {
	kind   lobbyCmdKind
	id     uint32
	name   string
	player *Player
	game   *Game
}

// Lobby 大厅。所有状态只在 Run 的命令循环这一个协程里读写，
// 玩家协程和对局协程一律通过命令通道提交变更，不加锁。
type Lobby struct {
	cfg      *config.Config
	presence *storage.PresenceStore

	cmds   chan lobbyCmd
	nextID atomic.Uint32

	// 给监控读的计数快照
	onlineCount atomic.Int64
	gamesCount  atomic.Int64

	// 以下字段仅命令循环访问
	players map[uint32]*Player
	pending *PendingGame
	games   []*Game

	botTimer *time.Timer
}

// NewLobby 创建大厅，调用 Run 后开始处理命令
func NewLobby(cfg *config.Config, presence *storage.PresenceStore) *Lobby {
	return &Lobby{
		cfg:      cfg,
		presence: presence,
		cmds:     make(chan lobbyCmd, 64),
		players:  make(map[uint32]*Player),
	}
}

// NextID 分配下一个连接 ID，全局单调递增
func (l *Lobby) NextID() uint32 {
	return l.nextID.Add(1)
}

// OnlineCount 返回在线玩家数
func (l *Lobby) OnlineCount() int64 {
	return l.onlineCount.Load()
}

// ActiveGames 返回进行中的对局数
func (l *Lobby) ActiveGames() int64 {
	return l.gamesCount.Load()
}

// Register 登记一名完成登录的玩家
func (l *Lobby) Register(p *Player) {
	l.cmds <- lobbyCmd{kind: cmdRegister, id: p.ID(), player: p}
}

// JoinGame 玩家请求入座等待局
func (l *Lobby) JoinGame(id uint32) {
	l.cmds <- lobbyCmd{kind: cmdJoinGame, id: id}
}

// Disconnect 玩家断线或主动退出
func (l *Lobby) Disconnect(id uint32) {
	l.cmds <- lobbyCmd{kind: cmdDisconnect, id: id}
}

// Rename 玩家改名
func (l *Lobby) Rename(id uint32, name string) {
	l.cmds <- lobbyCmd{kind: cmdRename, id: id, name: name}
}

// AddNPC 往等待局里塞一个 NPC
func (l *Lobby) AddNPC() {
	l.cmds <- lobbyCmd{kind: cmdAddNPC}
}

// gameOver 对局正常打完后由引擎协程提交
func (l *Lobby) gameOver(g *Game) {
	l.cmds <- lobbyCmd{kind: cmdGameOver, game: g}
}

// Run 大厅命令循环，ctx 取消后退出
func (l *Lobby) Run(ctx context.Context) {
	for {
		select {
		case cmd := <-l.cmds:
			l.handle(ctx, cmd)
		case <-l.botTimerC():
			l.handleBotFill(ctx)
		case <-ctx.Done():
			l.shutdown()
			return
		}
	}
}

// botTimerC 补位定时器的通道，定时器没挂的时候返回 nil（永远不触发）
func (l *Lobby) botTimerC() <-chan time.Time {
	if l.botTimer == nil {
		return nil
	}
	return l.botTimer.C
}

func (l *Lobby) handle(ctx context.Context, cmd lobbyCmd) {
	switch cmd.kind {
	case cmdRegister:
		l.handleRegister(ctx, cmd.player)
	case cmdJoinGame:
		l.handleJoinGame(ctx, cmd.id)
	case cmdDisconnect:
		l.handleDisconnect(ctx, cmd.id)
	case cmdRename:
		l.handleRename(ctx, cmd.id, cmd.name)
	case cmdAddNPC:
		l.handleAddNPC(ctx)
	case cmdGameOver:
		l.handleGameOver(ctx, cmd.game)
	}
}

func (l *Lobby) handleRegister(ctx context.Context, p *Player) {
	// 登录后立刻掉线的连接，断线命令可能赶在登记前入队，
	// 那条命令已经白跑了，之后不会再有人替它补发。死连接不进花名册。
	if p.Closed() {
		log.Printf("⚰️ 玩家 %d 登记前已断开，不进大厅", p.ID())
		p.Close()
		return
	}
	l.players[p.ID()] = p
	l.onlineCount.Store(int64(len(l.players)))

	if err := l.presence.AddOnline(ctx, p.ID(), p.Name()); err != nil {
		log.Printf("在线状态写入失败: %v", err)
	}
	log.Printf("✅ 玩家 %s (ID: %d) 进入大厅", p.Name(), p.ID())
}

func (l *Lobby) handleJoinGame(ctx context.Context, id uint32) {
	p, ok := l.players[id]
	if !ok {
		return
	}
	if l.pending != nil && l.pending.HasPlayer(id) {
		return
	}
	for _, g := range l.games {
		if g.HasPlayer(id) {
			return
		}
	}

	if l.pending == nil {
		l.pending = NewPendingGame()
	}
	log.Printf("🪑 玩家 %s (ID: %d) 入座等待局 (%d/%d)", p.Name(), id, l.pending.Len()+1, seatCount)

	if l.pending.AddPeer(p) {
		l.startGame(ctx)
		return
	}
	l.armBotTimer()
}

func (l *Lobby) handleDisconnect(ctx context.Context, id uint32) {
	// 可能在等待局里
	if l.pending != nil {
		if removed := l.pending.TryRemovePlayer(id); removed != nil {
			log.Printf("🚪 玩家 %s (ID: %d) 离开等待局", removed.Name(), id)
			if l.pending.Len() == 0 {
				l.pending = nil
				l.disarmBotTimer()
			}
		}
	}

	// 可能在进行中的对局里，整局收掉，其余人回大厅
	for i, g := range l.games {
		if !g.HasPlayer(id) {
			continue
		}
		peers := g.Close()
		l.games = append(l.games[:i], l.games[i+1:]...)
		l.updateGamesCount(ctx)

		for _, peer := range peers {
			if peer.ID() == id {
				continue
			}
			switch peer.(type) {
			case *Player:
				peer.Deliver(protocol.NewMessage(protocol.MsgBackToLobby, nil))
			default:
				peer.Close()
			}
		}
		log.Printf("💥 玩家 %d 掉线，对局提前结束", id)
		break
	}

	p, ok := l.players[id]
	if !ok {
		return
	}
	delete(l.players, id)
	l.onlineCount.Store(int64(len(l.players)))
	p.Close()

	if err := l.presence.RemoveOnline(ctx, id); err != nil {
		log.Printf("在线状态清理失败: %v", err)
	}
	log.Printf("❌ 玩家 %s (ID: %d) 已断开", p.Name(), id)
}

func (l *Lobby) handleRename(ctx context.Context, id uint32, name string) {
	p, ok := l.players[id]
	if !ok {
		return
	}
	// 入座后名字就钉死了，等待局和对局里的改名一律不理
	if l.pending != nil && l.pending.HasPlayer(id) {
		return
	}
	for _, g := range l.games {
		if g.HasPlayer(id) {
			return
		}
	}
	old := p.Name()
	p.setName(name)

	if err := l.presence.AddOnline(ctx, id, name); err != nil {
		log.Printf("在线状态写入失败: %v", err)
	}
	log.Printf("✏️ 玩家 %d 改名: %s → %s", id, old, name)
}

func (l *Lobby) handleAddNPC(ctx context.Context) {
	if l.pending == nil {
		l.pending = NewPendingGame()
	}
	npc := NewNPC(l.NextID())
	log.Printf("🤖 NPC %s (ID: %d) 入座补位", npc.Name(), npc.ID())

	if l.pending.AddPeer(npc) {
		l.startGame(ctx)
	}
}

func (l *Lobby) handleGameOver(ctx context.Context, g *Game) {
	for i, known := range l.games {
		if known != g {
			continue
		}
		l.games = append(l.games[:i], l.games[i+1:]...)
		l.updateGamesCount(ctx)

		// NPC 用完即弃，真人玩家回大厅
		for _, peer := range g.Close() {
			switch peer.(type) {
			case *Player:
				peer.Deliver(protocol.NewMessage(protocol.MsgBackToLobby, nil))
			default:
				peer.Close()
			}
		}
		log.Printf("🏁 对局结束，玩家回到大厅")
		return
	}
	// 大厅已经因掉线收掉了这局，晚到的结束通知直接忽略
}

// startGame 把凑满的等待局升级成对局
func (l *Lobby) startGame(ctx context.Context) {
	var peers [seatCount]Peer
	copy(peers[:], l.pending.Peers())
	l.pending = nil
	l.disarmBotTimer()

	g := NewGame(l, peers)
	l.games = append(l.games, g)
	l.updateGamesCount(ctx)
	log.Printf("🎮 对局 %d 开始: %d / %d / %d", g.ID(), peers[0].ID(), peers[1].ID(), peers[2].ID())
}

// handleBotFill 补位定时器触发，把等待局用 NPC 填满
func (l *Lobby) handleBotFill(ctx context.Context) {
	l.botTimer = nil
	if l.pending == nil || l.pending.Len() == 0 {
		return
	}
	log.Printf("⏰ 等待局久未满员，NPC 补位")
	for l.pending != nil && l.pending.Len() < seatCount {
		l.handleAddNPC(ctx)
	}
}

// armBotTimer 启动补位定时器，已在走的不重置
func (l *Lobby) armBotTimer() {
	if !l.cfg.Game.BotFill || l.botTimer != nil {
		return
	}
	l.botTimer = time.NewTimer(l.cfg.Game.BotFillDelayDuration())
}

func (l *Lobby) disarmBotTimer() {
	if l.botTimer == nil {
		return
	}
	l.botTimer.Stop()
	l.botTimer = nil
}

func (l *Lobby) updateGamesCount(ctx context.Context) {
	l.gamesCount.Store(int64(len(l.games)))
	if err := l.presence.SetActiveGames(ctx, len(l.games)); err != nil {
		log.Printf("对局计数写入失败: %v", err)
	}
}

// shutdown 收掉全部对局并断开所有玩家
func (l *Lobby) shutdown() {
	for _, g := range l.games {
		for _, peer := range g.Close() {
			peer.Close()
		}
	}
	l.games = nil
	for _, p := range l.players {
		p.Close()
	}
	log.Println("🛑 大厅已关闭")
}
