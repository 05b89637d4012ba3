package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"gorm-trashbin/internal/core/auth"
	"gorm-trashbin/internal/core/cache"
	"gorm-trashbin/internal/core/config"
	"gorm-trashbin/internal/core/database"
	"gorm-trashbin/internal/core/logger"
	"gorm-trashbin/internal/core/server"
	"gorm-trashbin/internal/domain"
	"gorm-trashbin/internal/feature/post"
	"gorm-trashbin/internal/feature/user"
	"gorm-trashbin/internal/repo"
	"gorm-trashbin/internal/service"
	"gorm-trashbin/internal/transport/http/router"
	"gorm-trashbin/internal/trash"
)

// App 进程级依赖（api / admin / trashctl 共用）
type App struct {
	Cfg   *config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	Cache *cache.Cache // redis 不可用时为 nil
	JWT   *auth.JWTer

	Users   *repo.UserRepo
	Posts   *repo.PostRepo
	UserSvc *service.UserService
	PostSvc *service.PostService

	closers []func()
}

// New 读配置 → 日志 → DB（按需迁移）→ redis → repo / service
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	a := &App{Cfg: cfg}
	a.Log = a.newLogger()

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                a.Log,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}
	a.DB = db
	a.Log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := trash.AutoMigrate(db, domain.Models()...); err != nil {
			a.Close()
			return nil, err
		}
		a.Log.Info("automigrate done")
	}

	a.Cache = a.newCache(ctx)
	a.JWT = &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	opts := a.TrashOptions()
	if a.Users, err = repo.NewUserRepo(db, opts...); err != nil {
		a.Close()
		return nil, err
	}
	if a.Posts, err = repo.NewPostRepo(db, opts...); err != nil {
		a.Close()
		return nil, err
	}
	a.UserSvc = service.NewUserService(a.Users, a.JWT)
	a.PostSvc = service.NewPostService(a.Posts, a.Cache, time.Duration(cfg.Redis.TTLSec)*time.Second, a.Log.Named("post"))
	return a, nil
}

// TrashOptions 回收站仓库的公共配置
func (a *App) TrashOptions() []trash.Option {
	return []trash.Option{
		trash.WithChunkSize(a.Cfg.Trash.ChunkSize),
		trash.WithLockForUpdate(a.Cfg.Trash.LockForUpdate),
		trash.WithLogger(a.Log.Named("trash")),
	}
}

// Registry 挂载所有业务模块；每个进程只调一次（post 模块会注册事件监听）
func (a *App) Registry() *router.Registry {
	return router.NewRegistry(
		user.NewModule(a.DB, a.UserSvc),
		post.NewModule(a.DB, a.PostSvc, a.Posts),
	)
}

func (a *App) ServerOptions() server.Options {
	return server.Options{Name: a.Cfg.App.Name, Mode: server.ModeFor(a.Cfg.App.Env), CORS: true}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) newLogger() *zap.Logger {
	lc := a.Cfg.Log
	o := logger.Options{Level: lc.Level, JSON: lc.JSON}
	if lc.Rotate.Enable {
		o.File = lc.Rotate.Filename
		o.MaxSizeMB, o.MaxBackups, o.MaxAgeDays = lc.Rotate.MaxSizeMB, lc.Rotate.MaxBackups, lc.Rotate.MaxAgeDays
		o.Compress = lc.Rotate.Compress
	}
	l, cleanup := logger.New(o)
	// gin 调试输出 / 标准库 log 也走 zap
	gin.DefaultWriter = logger.ToWriter(l.Named("gin"), zapcore.DebugLevel)
	undo := logger.RedirectStdLog(l, zapcore.InfoLevel)
	a.closers = append(a.closers, cleanup, undo)
	return l
}

func (a *App) newCache(ctx context.Context) *cache.Cache {
	rc := a.Cfg.Redis
	if rc.Addr == "" {
		return nil
	}
	c := cache.New(rc.Addr, rc.Password, rc.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		a.Log.Warn("redis unavailable, cache disabled", zap.String("addr", rc.Addr), zap.Error(err))
		_ = c.Close()
		return nil
	}
	a.closers = append(a.closers, func() {
		if err := c.Close(); err != nil && !errors.Is(err, context.Canceled) {
			a.Log.Warn("redis close", zap.Error(err))
		}
	})
	return c
}
