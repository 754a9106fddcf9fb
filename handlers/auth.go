package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/SkyDependence/tgDrive/config"
	"github.com/SkyDependence/tgDrive/logger"
	"github.com/SkyDependence/tgDrive/utils"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验配置里的管理员账号并签发访问令牌
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	cfg := config.AppConfig.Auth
	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(cfg.Username)) != 1 ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(cfg.Password)) != 1 {
		utils.Error(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	token, err := utils.GenerateToken(1)
	if err != nil {
		logger.Errorf("签发令牌失败: %v", err)
		utils.Error(c, http.StatusInternalServerError, "签发令牌失败")
		return
	}

	utils.Success(c, gin.H{"token": token})
}
