package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gorm-trashbin/internal/app"
	"gorm-trashbin/internal/core/server"
	"gorm-trashbin/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, os.Getenv("CONFIG_PATH"))
	if err != nil {
		_, _ = os.Stderr.WriteString("bootstrap: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer a.Close()
	log, cfg := a.Log, a.Cfg

	// 路由（后台端：回收站管理 + /metrics）
	r := router.NewAdminEngine(log, a.ServerOptions(), a.Registry(), a.JWT)

	// 批量搬表可能较慢，写超时放宽
	srv := server.BuildServer(server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port), r,
		5*time.Second, 60*time.Second, 60*time.Second)

	baseURL := server.HumanURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("metrics", baseURL+"/metrics"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	if err := server.Run(ctx, srv, log); err != nil {
		log.Error("admin api FAILED", zap.Error(err))
		return
	}
	log.Info("admin api stopped gracefully")
}
