package handlers

import (
	"errors"
	"net/http"

	"github.com/SkyDependence/tgDrive/services"
	"github.com/SkyDependence/tgDrive/utils"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *services.Container
}

func New(container *services.Container) *Handlers {
	return &Handlers{services: container}
}

func respondServiceError(c *gin.Context, err error) {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		utils.Error(c, appErr.HTTPCode, appErr.Message)
		return
	}
	utils.Error(c, http.StatusInternalServerError, "服务器内部错误")
}
