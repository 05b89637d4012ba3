package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gorm-trashbin/internal/core/auth"
	"gorm-trashbin/internal/core/server"
	mdw "gorm-trashbin/internal/transport/http/middleware"
)

func NewAPIEngine(l *zap.Logger, o server.Options, reg *Registry, jwter *auth.JWTer) *gin.Engine {
	r := server.NewRouter(o)

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.Recovery(l),
		mdw.Metrics(o.Name+"-api"),
		mdw.AccessLog(l),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	api := r.Group("/api/v1")

	// 鉴权分组（/me 之类必须挂这里，才能拿到 userId）
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(jwter))

	reg.MountAllAPI(api, authed)
	return r
}
