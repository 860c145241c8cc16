package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/palemoky/skat-server/internal/config"
	"github.com/palemoky/skat-server/internal/logger"
	"github.com/palemoky/skat-server/internal/network/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	// 日志落盘
	if cfg.Server.DebugLog {
		if err := logger.Init(); err != nil {
			log.Printf("日志文件初始化失败: %v", err)
		} else {
			defer logger.Close()
		}
	}

	// 创建服务器
	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("创建服务器失败: %v", err)
	}

	// 优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 收到退出信号，正在关闭服务器...")
		cancel()
		srv.Stop()
	}()

	// 启动服务器
	log.Println("🃏 Skat 服务器启动中...")
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
	log.Println("👋 服务器已退出")
}
