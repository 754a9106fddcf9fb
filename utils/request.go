package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestPrefix 还原客户端可见的 scheme://host[:port] 前缀，
// 反向代理场景优先取 X-Forwarded-* 请求头
func RequestPrefix(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if c.Request.TLS != nil {
			proto = "https"
		}
	}

	host := c.GetHeader("Host")
	if host == "" {
		host = c.Request.Host
	}
	host = strings.Split(host, ":")[0]

	port := 0
	if fwdPort := c.GetHeader("X-Forwarded-Port"); fwdPort != "" {
		port, _ = strconv.Atoi(fwdPort)
	} else if idx := strings.LastIndex(c.Request.Host, ":"); idx >= 0 {
		port, _ = strconv.Atoi(c.Request.Host[idx+1:])
	}

	if port == 0 || (proto == "http" && port == 80) || (proto == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", proto, host)
	}
	return fmt.Sprintf("%s://%s:%d", proto, host, port)
}
