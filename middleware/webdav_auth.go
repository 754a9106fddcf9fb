package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/SkyDependence/tgDrive/config"

	"github.com/gin-gonic/gin"
)

// WebDavAuthMiddleware WebDAV 走 Basic 认证，
// 客户端（网盘挂载工具）通常不支持 Bearer 令牌
func WebDavAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := config.AppConfig.WebDav
		if cfg.Username == "" {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="tgDrive WebDAV"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}
