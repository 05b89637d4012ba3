package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"gorm-trashbin/internal/transport/http/ez"
	resp "gorm-trashbin/internal/transport/http/response"
)

// abort 中断并写统一错误体（HTTP 恒 200，业务码给 Metrics）
func abort(c *gin.Context, code int, msg string) {
	c.Set(ez.CtxCode, code)
	c.AbortWithStatusJSON(http.StatusOK, resp.Error(code, msg))
}

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		abort(c, resp.CodeTooManyRequests, "")
	}
}

type ipLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimitPerIP 每 IP 限速（登录等敏感接口）；idle 未访问的 IP 会被清掉
func RateLimitPerIP(rps rate.Limit, burst int, idle time.Duration) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*ipLimiter)
		sweep   = time.Now()
	)
	return func(c *gin.Context) {
		now := time.Now()
		mu.Lock()
		if now.Sub(sweep) > idle {
			for ip, b := range buckets {
				if now.Sub(b.seen) > idle {
					delete(buckets, ip)
				}
			}
			sweep = now
		}
		b, ok := buckets[c.ClientIP()]
		if !ok {
			b = &ipLimiter{lim: rate.NewLimiter(rps, burst)}
			buckets[c.ClientIP()] = b
		}
		b.seen = now
		allowed := b.lim.Allow()
		mu.Unlock()

		if allowed {
			c.Next()
			return
		}
		abort(c, resp.CodeTooManyRequests, "")
	}
}

// ConcurrencyLimit 限制同时在处理的请求数（保护 DB 下游）；满了直接 503，不排队
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			abort(c, resp.CodeUnavailable, "server busy")
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}

// MaxBodyBytes 限制请求体大小
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// Timeout 给请求 ctx 加超时；handler 用 c 当 ctx 时 gorm / redis 都会跟着取消
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			abort(c, resp.CodeTimeout, "timeout")
		}
	}
}
