package server

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/palemoky/skat-server/internal/network/protocol"
	"github.com/palemoky/skat-server/internal/network/protocol/codec"
)

// Player 通过网络连接的真人玩家。
// 读协程把连接上的帧解码后分流：心跳和大厅指令就地处理，
// 其余消息进收件箱由牌局引擎的 Expect 消费；
// 写协程串行消费发送队列，Deliver 只入队不落盘。
type Player struct {
	id    uint32
	lobby *Lobby
	conn  frameConn
	codec codec.Codec

	inbox chan *protocol.Message
	send  chan *protocol.Message

	// 最近一次心跳的服务端毫秒时间，看门狗据此判定超时。
	// 用服务端收到的时间而非客户端时间戳，时钟不互信。
	lastSeen atomic.Int64

	nameMu sync.RWMutex
	name   string

	loggedIn atomic.Bool
	loginCh  chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	keepAliveTimeout  int64 // 毫秒
	keepAliveInterval int64 // 毫秒
}

// NewPlayer 创建玩家，调用 Start 后才开始收发
func NewPlayer(id uint32, lobby *Lobby, conn frameConn, c codec.Codec) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		id:                id,
		lobby:             lobby,
		conn:              conn,
		codec:             c,
		inbox:             make(chan *protocol.Message, lobby.cfg.Game.InboxSize),
		send:              make(chan *protocol.Message, lobby.cfg.Game.SendBuffer),
		loginCh:           make(chan struct{}, 1),
		ctx:               ctx,
		cancel:            cancel,
		keepAliveTimeout:  lobby.cfg.Game.KeepAliveTimeoutDuration().Milliseconds(),
		keepAliveInterval: lobby.cfg.Game.KeepAliveIntervalDuration().Milliseconds(),
	}
	p.lastSeen.Store(protocol.NowMillis())
	return p
}

// Start 启动读写协程和心跳看门狗
func (p *Player) Start() {
	go p.readPump()
	go p.writePump()
	go p.watchdog()
}

// ID 返回连接 ID
func (p *Player) ID() uint32 { return p.id }

// Name 返回当前昵称
func (p *Player) Name() string {
	p.nameMu.RLock()
	defer p.nameMu.RUnlock()
	return p.name
}

func (p *Player) setName(name string) {
	p.nameMu.Lock()
	defer p.nameMu.Unlock()
	p.name = name
}

// AwaitLogin 阻塞等待客户端发来第一条 login 消息
func (p *Player) AwaitLogin(ctx context.Context) error {
	select {
	case <-p.loginCh:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Expect 阻塞等待下一条指定类型的消息。
// 收件箱关闭（连接已断开）后停止消费，只等 ctx 被大厅收局时取消，
// 避免引擎和大厅对同一次断线做两次收尾。
func (p *Player) Expect(ctx context.Context, msgType protocol.MessageType) (*protocol.Message, error) {
	inbox := p.inbox
	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				inbox = nil
				continue
			}
			if msg.Type == msgType {
				return msg, nil
			}
			log.Printf("⚠️ 玩家 %d 发来预期外消息 %s（正在等待 %s），已丢弃", p.id, msg.Type, msgType)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Deliver 投递一条消息给客户端，只入发送队列，绝不阻塞。
// 队列打满说明客户端已经收不动了，按掉线处理。
func (p *Player) Deliver(msg *protocol.Message) {
	select {
	case p.send <- msg:
	case <-p.ctx.Done():
	default:
		log.Printf("🚫 玩家 %d (%s) 发送队列已满，断开连接", p.id, p.Name())
		p.Close()
		go p.lobby.Disconnect(p.id)
	}
}

// Close 关闭玩家连接，可重复调用
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		p.cancel()
		_ = p.conn.Close()
	})
}

// Closed 报告连接是否已经关闭
func (p *Player) Closed() bool {
	return p.ctx.Err() != nil
}

// readPump 从连接读取并分流消息。
// 收尾先 Close 再向大厅报断线：断线命令入队时连接必定已标记关闭，
// 大厅按这个顺序才能识破"断线命令比登记先到"的死连接。
func (p *Player) readPump() {
	defer func() {
		p.Close()
		close(p.inbox)
		p.lobby.Disconnect(p.id)
	}()

	for {
		frame, err := p.conn.ReadFrame()
		if err != nil {
			return
		}
		if len(frame) == 0 {
			continue
		}

		// 解不开的帧视同断线，不给畸形客户端继续表演的机会
		msg, err := p.codec.Decode(frame)
		if err != nil {
			log.Printf("玩家 %d 消息解析错误，断开连接: %v", p.id, err)
			return
		}

		switch msg.Type {
		case protocol.MsgKeepAlive:
			p.lastSeen.Store(protocol.NowMillis())

		case protocol.MsgLogin:
			payload, ok := protocol.PayloadAs[protocol.LoginPayload](msg)
			if !ok {
				continue
			}
			if p.loggedIn.CompareAndSwap(false, true) {
				p.setName(payload.Name)
				select {
				case p.loginCh <- struct{}{}:
				default:
				}
			} else {
				// 登录后的 login 当作改名处理
				p.lobby.Rename(p.id, payload.Name)
			}

		case protocol.MsgJoinGame:
			p.lobby.JoinGame(p.id)

		case protocol.MsgDisconnect:
			return

		default:
			select {
			case p.inbox <- msg:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// writePump 串行写出发送队列里的消息
func (p *Player) writePump() {
	defer func() {
		_ = p.conn.Close()
	}()

	for {
		select {
		case msg := <-p.send:
			frame, err := p.codec.Encode(msg)
			if err != nil {
				log.Printf("玩家 %d 消息编码错误: %v", p.id, err)
				continue
			}
			if err := p.conn.WriteFrame(frame); err != nil {
				p.Close()
				p.lobby.Disconnect(p.id)
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// watchdog 心跳看门狗，超时未收到 keep_alive 即判定掉线
func (p *Player) watchdog() {
	ticker := time.NewTicker(time.Duration(p.keepAliveInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if protocol.NowMillis()-p.lastSeen.Load() > p.keepAliveTimeout {
				log.Printf("💔 玩家 %d (%s) 心跳超时，断开连接", p.id, p.Name())
				p.Close()
				p.lobby.Disconnect(p.id)
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}
