package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"course-planner/pkg/jwt"
	"course-planner/pkg/response"
)

// JWTAuth JWT 认证中间件
// 校验外部认证服务签发的 Access Token，通过后将 user_id 注入上下文；
// 时间表的归属校验在 Service 层完成
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess || claims.UserID == "" {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

// bearerToken 从 Authorization: Bearer <token> 提取 Token
//
// 导出下载（GET …/export/*）由浏览器直接打开链接，无法携带请求头，
// 因此额外接受 ?access_token= 查询参数；其余接口只认请求头。
func bearerToken(c *gin.Context) (token string, errMsg string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if c.Request.Method == http.MethodGet && strings.Contains(c.FullPath(), "/export/") {
			if t := c.Query("access_token"); t != "" {
				return t, ""
			}
		}
		return "", "缺少认证头"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "认证头格式无效"
	}
	return parts[1], ""
}
