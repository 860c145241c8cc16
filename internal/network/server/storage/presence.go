// Package storage 提供基于 Redis 的在线状态存储。
// 存储是可选项，空的 PresenceStore 所有方法都是无害的空操作，
// 调用方不必关心有没有配 Redis。
package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	onlineKeyPrefix      = "skat:online:"
	activeGamesKeyPrefix = "skat:games:"

	// 实例宕机后残留数据的过期时间
	presenceExpiration = 2 * time.Hour
)

// PresenceStore 在线玩家名册与对局计数。
// 按服务实例分 key，多实例共用一个 Redis 互不串台。
type PresenceStore struct {
	client   *redis.Client
	instance string
}

// NewPresenceStore 创建在线状态存储
func NewPresenceStore(client *redis.Client) *PresenceStore {
	return &PresenceStore{
		client:   client,
		instance: uuid.New().String(),
	}
}

// Instance 返回本服务实例的标识
func (s *PresenceStore) Instance() string {
	if s == nil {
		return ""
	}
	return s.instance
}

func (s *PresenceStore) enabled() bool {
	return s != nil && s.client != nil
}

func (s *PresenceStore) onlineKey() string {
	return onlineKeyPrefix + s.instance
}

func (s *PresenceStore) activeGamesKey() string {
	return activeGamesKeyPrefix + s.instance + ":active"
}

// AddOnline 登记一名在线玩家，重复登记会覆盖昵称
func (s *PresenceStore) AddOnline(ctx context.Context, id uint32, name string) error {
	if !s.enabled() {
		return nil
	}
	key := s.onlineKey()
	if err := s.client.HSet(ctx, key, strconv.FormatUint(uint64(id), 10), name).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, presenceExpiration).Err()
}

// RemoveOnline 注销一名在线玩家
func (s *PresenceStore) RemoveOnline(ctx context.Context, id uint32) error {
	if !s.enabled() {
		return nil
	}
	return s.client.HDel(ctx, s.onlineKey(), strconv.FormatUint(uint64(id), 10)).Err()
}

// OnlineCount 返回本实例的在线人数
func (s *PresenceStore) OnlineCount(ctx context.Context) (int64, error) {
	if !s.enabled() {
		return 0, nil
	}
	return s.client.HLen(ctx, s.onlineKey()).Result()
}

// SetActiveGames 更新进行中的对局数
func (s *PresenceStore) SetActiveGames(ctx context.Context, count int) error {
	if !s.enabled() {
		return nil
	}
	return s.client.Set(ctx, s.activeGamesKey(), count, presenceExpiration).Err()
}
