package middleware

import (
	"net/http"
	"strings"

	"bunda-ai-server/src/core/auth"
	"bunda-ai-server/src/core/utils"

	"github.com/gin-gonic/gin"
)

// CORS 返回一个统一的跨域中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}

		// 统一允许的头与方法
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400") // 24小时

		// 处理 OPTIONS 预检请求
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// JWTUserAuth 使用用户JWT进行认证，设置 user_id 到上下文
// 401响应体为纯文本，不泄露用户或会话是否存在
func JWTUserAuth(authToken *auth.AuthToken, logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.String(http.StatusUnauthorized, "token tidak valid atau kedaluwarsa")
			c.Abort()
			return
		}

		token := authHeader[7:]

		userID, username, err := authToken.VerifyToken(token)
		if err != nil {
			if logger != nil {
				logger.Warn("JWTUserAuth 验证失败: %v", err)
			}
			c.String(http.StatusUnauthorized, "token tidak valid atau kedaluwarsa")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("username", username)
		c.Next()
	}
}
