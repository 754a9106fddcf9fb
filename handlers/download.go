package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/SkyDependence/tgDrive/logger"

	"github.com/gin-gonic/gin"
)

// Download 按 fileID 下载，记录文件在服务端拼接后串流给客户端
func (h *Handlers) Download(c *gin.Context) {
	fileID := c.Param("fileID")

	result, err := h.services.Download.Fetch(c.Request.Context(), fileID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer result.Body.Close()

	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(result.FileName)))
	if result.FileSize > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", result.FileSize))
	}
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, result.Body); err != nil {
		logger.Debugf("下载中断 - fileId: %s, 错误: %v", fileID, err)
	}
}
