package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/skat-server/internal/config"
	"github.com/palemoky/skat-server/internal/network/protocol"
	"github.com/palemoky/skat-server/internal/network/protocol/codec"
	"github.com/palemoky/skat-server/internal/network/server/storage"
)

// Server 对局服务器。TCP 为主入口，可选开一个 WebSocket 网关，
// 两种接入共用同一个大厅。
type Server struct {
	cfg      *config.Config
	codec    codec.Codec
	lobby    *Lobby
	redis    *redis.Client
	presence *storage.PresenceStore

	ctx      context.Context
	listener net.Listener
	mu       sync.Mutex
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	c, err := codec.New(cfg.Codec)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	var presence *storage.PresenceStore
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		// 测试 Redis 连接
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}
		presence = storage.NewPresenceStore(rdb)
		log.Printf("🗄️ Redis 在线状态存储已启用 (实例: %s)", presence.Instance())
	}

	return &Server{
		cfg:      cfg,
		codec:    c,
		lobby:    NewLobby(cfg, presence),
		redis:    rdb,
		presence: presence,
	}, nil
}

// Lobby 返回服务器的大厅
func (s *Server) Lobby() *Lobby {
	return s.lobby
}

// Start 启动服务器并阻塞接受连接，ctx 取消后返回
func (s *Server) Start(ctx context.Context) error {
	s.ctx = ctx

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go s.lobby.Run(ctx)
	go s.monitorStats(ctx)
	if s.cfg.Server.WSPort > 0 {
		go s.serveWS(ctx)
	}

	log.Printf("🚀 服务器启动在 tcp://%s (编码: %s, CPU核心数: %d)", addr, s.codec.Name(), runtime.NumCPU())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleConn(newTCPFrameConn(conn))
	}
}

// Stop 停止接受新连接
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

// handleConn 接待一条新连接：分配 ID，等登录，确认后交给大厅
func (s *Server) handleConn(fc frameConn) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	id := s.lobby.NextID()
	p := NewPlayer(id, s.lobby, fc, s.codec)
	p.Start()

	if err := p.AwaitLogin(ctx); err != nil {
		p.Close()
		return
	}

	p.Deliver(protocol.NewMessage(protocol.MsgConfirmJoin, protocol.ConfirmJoinPayload{PlayerID: id}))
	s.lobby.Register(p)
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			log.Printf("📊 [监控] 在线: %d | 对局: %d | Goroutines: %d | 内存: %.2f MB",
				s.lobby.OnlineCount(),
				s.lobby.ActiveGames(),
				runtime.NumGoroutine(),
				float64(m.Alloc)/1024/1024)
		case <-ctx.Done():
			return
		}
	}
}
