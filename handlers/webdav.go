package handlers

import (
	"github.com/SkyDependence/tgDrive/middleware"
	"github.com/SkyDependence/tgDrive/services"
	"github.com/SkyDependence/tgDrive/utils"

	"github.com/gin-gonic/gin"
)

// WebDavDispatch WebDAV 动词经由 X-HTTP-Method-Override 隧道进来，
// 没有覆盖头时退回实际的 HTTP 方法
func (h *Handlers) WebDavDispatch(c *gin.Context) {
	method := c.GetHeader("X-HTTP-Method-Override")
	if method == "" {
		method = c.Request.Method
	}

	resp := h.services.WebDav.Dispatch(c.Request.Context(), method, c.Param("path"), services.DispatchInput{
		Destination: c.GetHeader("Destination"),
		Overwrite:   c.GetHeader("Overwrite"),
		HostPrefix:  utils.RequestPrefix(c),
		UserID:      middleware.CurrentUserID(c),
	})

	if resp.Body == "" {
		c.Status(resp.Status)
		return
	}
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/xml; charset=utf-8"
	}
	c.Data(resp.Status, contentType, []byte(resp.Body))
}

// WebDavList REST 侧的目录浏览，返回 JSON 而不是 DAV XML
func (h *Handlers) WebDavList(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		path = "/"
	}

	entries, err := h.services.WebDavFS.ListFiles(c.Request.Context(), path)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Success(c, entries)
}
