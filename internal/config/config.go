package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost              = "0.0.0.0"
	defaultPort              = 6969
	defaultRedisAddr         = "localhost:6379"
	defaultKeepAliveTimeout  = 5   // 秒
	defaultKeepAliveInterval = 500 // 毫秒
	defaultInboxSize         = 100
	defaultSendBuffer        = 256
	defaultBotFillDelay      = 15 // 秒
	defaultCodec             = "json"
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
	Codec  string       `yaml:"codec"` // json / binary
}

// ServerConfig TCP 服务器配置
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	WSPort   int    `yaml:"ws_port"`   // WebSocket 网关端口，0 表示不开启
	DebugLog bool   `yaml:"debug_log"` // 是否把日志落到文件
}

// RedisConfig Redis 配置（在线状态存储，可关闭）
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	KeepAliveTimeout  int  `yaml:"keep_alive_timeout"`  // 心跳超时（秒）
	KeepAliveInterval int  `yaml:"keep_alive_interval"` // 心跳巡检间隔（毫秒）
	InboxSize         int  `yaml:"inbox_size"`          // 玩家收件箱容量
	SendBuffer        int  `yaml:"send_buffer"`         // 发送缓冲区容量
	BotFill           bool `yaml:"bot_fill"`            // 等待局久未满员时是否用 NPC 补位
	BotFillDelay      int  `yaml:"bot_fill_delay"`      // 补位等待时间（秒）
}

// KeepAliveTimeoutDuration 返回心跳超时时长
func (c *GameConfig) KeepAliveTimeoutDuration() time.Duration {
	return time.Duration(c.KeepAliveTimeout) * time.Second
}

// KeepAliveIntervalDuration 返回心跳巡检间隔
func (c *GameConfig) KeepAliveIntervalDuration() time.Duration {
	return time.Duration(c.KeepAliveInterval) * time.Millisecond
}

// BotFillDelayDuration 返回 NPC 补位等待时长
func (c *GameConfig) BotFillDelayDuration() time.Duration {
	return time.Duration(c.BotFillDelay) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.fillDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	cfg.applyEnv()
	return cfg
}

// fillDefaults 给零值字段补默认值
func (cfg *Config) fillDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.Game.KeepAliveTimeout == 0 {
		cfg.Game.KeepAliveTimeout = defaultKeepAliveTimeout
	}
	if cfg.Game.KeepAliveInterval == 0 {
		cfg.Game.KeepAliveInterval = defaultKeepAliveInterval
	}
	if cfg.Game.InboxSize == 0 {
		cfg.Game.InboxSize = defaultInboxSize
	}
	if cfg.Game.SendBuffer == 0 {
		cfg.Game.SendBuffer = defaultSendBuffer
	}
	if cfg.Game.BotFillDelay == 0 {
		cfg.Game.BotFillDelay = defaultBotFillDelay
	}
	if cfg.Codec == "" {
		cfg.Codec = defaultCodec
	}
}

// applyEnv 环境变量覆盖，容器和测试环境用
func (cfg *Config) applyEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if p, err := strconv.Atoi(os.Getenv("SERVER_PORT")); err == nil && p > 0 {
		cfg.Server.Port = p
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
}
