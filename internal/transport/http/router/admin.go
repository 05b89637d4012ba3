package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gorm-trashbin/internal/core/auth"
	"gorm-trashbin/internal/core/server"
	mdw "gorm-trashbin/internal/transport/http/middleware"
)

func NewAdminEngine(l *zap.Logger, o server.Options, reg *Registry, jwter *auth.JWTer) *gin.Engine {
	r := server.NewRouter(o)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(30*time.Second), // 批量搬表可能较慢
		mdw.Recovery(l),
		mdw.Metrics(o.Name+"-admin"),
		mdw.AccessLog(l),
	)

	// 健康检查 + Prometheus（只在管理端口暴露）
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, auth.RoleAdmin))

	reg.MountAllAdmin(admin)
	return r
}
