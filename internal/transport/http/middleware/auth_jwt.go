package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"gorm-trashbin/internal/core/auth"
	"gorm-trashbin/internal/transport/http/ez"
	resp "gorm-trashbin/internal/transport/http/response"
)

const KeyClaims = "claims"

// AuthJWT 校验 Bearer token；roles 非空时只放行这些角色
// 通过后写入 claims / userId / role，供 ez.Action 的 Auth/Roles 使用
func AuthJWT(j *auth.JWTer, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || tok == "" {
			abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
			abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(ez.CtxUserID, claims.UID)
		c.Set(ez.CtxRole, claims.Role)
		c.Next()
	}
}
