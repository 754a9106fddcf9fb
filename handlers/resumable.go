package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/SkyDependence/tgDrive/config"
	"github.com/SkyDependence/tgDrive/middleware"
	"github.com/SkyDependence/tgDrive/services"
	"github.com/SkyDependence/tgDrive/utils"

	"github.com/gin-gonic/gin"
)

type prepareUploadRequest struct {
	FileName string `json:"fileName" binding:"required"`
	FileSize int64  `json:"fileSize" binding:"required"`
	FileHash string `json:"fileHash" binding:"required"`
}

func (h *Handlers) PrepareUpload(c *gin.Context) {
	var req prepareUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if req.FileSize <= config.AppConfig.Upload.ChunkSize {
		utils.Error(c, http.StatusBadRequest, "文件大小不足，无需分块上传，请使用普通上传接口")
		return
	}

	out, err := h.services.Resumable.PrepareUpload(c.Request.Context(), services.PrepareUploadInput{
		FileName:  req.FileName,
		FileSize:  req.FileSize,
		FileHash:  req.FileHash,
		UserID:    middleware.CurrentUserID(c),
		URLPrefix: utils.RequestPrefix(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Success(c, out)
}

func (h *Handlers) UploadChunk(c *gin.Context) {
	taskID := c.PostForm("taskId")
	if taskID == "" {
		utils.Error(c, http.StatusBadRequest, "缺少taskId参数")
		return
	}
	chunkIndex, err := strconv.Atoi(c.PostForm("chunkIndex"))
	if err != nil || chunkIndex < 0 {
		utils.Error(c, http.StatusBadRequest, "chunkIndex参数错误")
		return
	}

	fileHeader, err := c.FormFile("chunk")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "缺少分块数据")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "读取分块数据失败")
		return
	}
	defer file.Close()
	chunk, err := io.ReadAll(file)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "读取分块数据失败")
		return
	}

	out, err := h.services.Resumable.UploadChunk(c.Request.Context(), taskID, chunkIndex, chunk)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Success(c, out)
}

type completeUploadRequest struct {
	TaskID string `json:"taskId" binding:"required"`
}

func (h *Handlers) CompleteUpload(c *gin.Context) {
	var req completeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	out, err := h.services.Resumable.CompleteUpload(c.Request.Context(), req.TaskID, utils.RequestPrefix(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Success(c, out)
}

func (h *Handlers) CancelUpload(c *gin.Context) {
	taskID := c.Param("taskId")
	if err := h.services.Resumable.CancelUpload(c.Request.Context(), taskID, middleware.CurrentUserID(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "上传任务已取消")
}

func (h *Handlers) ResumeTask(c *gin.Context) {
	taskID := c.Param("taskId")
	out, err := h.services.Resumable.ResumeTask(c.Request.Context(), taskID, middleware.CurrentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Success(c, out)
}

func (h *Handlers) ListTasks(c *gin.Context) {
	out, err := h.services.Resumable.ListUserTasks(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.Success(c, out)
}

type deleteTasksRequest struct {
	TaskIDs []string `json:"taskIds" binding:"required"`
}

func (h *Handlers) DeleteTasks(c *gin.Context) {
	var req deleteTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if err := h.services.Resumable.DeleteTasks(c.Request.Context(), req.TaskIDs, middleware.CurrentUserID(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "上传任务已删除")
}
