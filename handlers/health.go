package handlers

import (
	"github.com/SkyDependence/tgDrive/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) Health(c *gin.Context) {
	utils.Success(c, gin.H{"status": "ok"})
}
