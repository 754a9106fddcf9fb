package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/SkyDependence/tgDrive/config"
	"github.com/SkyDependence/tgDrive/database"
	"github.com/SkyDependence/tgDrive/handlers"
	"github.com/SkyDependence/tgDrive/logger"
	"github.com/SkyDependence/tgDrive/middleware"
	"github.com/SkyDependence/tgDrive/models"
	"github.com/SkyDependence/tgDrive/repositories"
	"github.com/SkyDependence/tgDrive/services"
	"github.com/SkyDependence/tgDrive/storage"
	"github.com/SkyDependence/tgDrive/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)

	if err := database.InitMySQL(&cfg.Database); err != nil {
		log.Fatalf("初始化 MySQL 失败: %v", err)
	}
	if err := database.DB.AutoMigrate(&models.FileEntry{}, &models.UploadTask{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	if err := database.InitRedis(&cfg.Redis); err != nil {
		log.Fatalf("初始化 Redis 失败: %v", err)
	}

	blobs, err := storage.NewTelegramStorage(&cfg.Telegram)
	if err != nil {
		log.Fatalf("初始化 Telegram 存储失败: %v", err)
	}

	repoContainer := repositories.NewGormRepositories(database.DB, database.RedisClient).BuildContainer()

	hub := ws.NewProgressHub()
	serviceContainer := services.NewContainer(&repoContainer, blobs, hub)
	h := handlers.New(serviceContainer)

	serviceContainer.Cleanup.Start(context.Background())

	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORSMiddleware(), middleware.RequestLogger())

	registerRoutes(r, h, hub)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("服务启动: %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("服务启动失败: %v", err)
	}
}

func registerRoutes(r *gin.Engine, h *handlers.Handlers, hub *ws.ProgressHub) {
	r.GET("/api/health", h.Health)
	r.POST("/api/auth/login", h.Login)
	r.GET("/d/:fileID", h.Download)
	r.GET("/ws/upload-progress", func(c *gin.Context) {
		hub.HandleConnection(c.Writer, c.Request)
	})

	api := r.Group("/api", middleware.AuthMiddleware())
	{
		resumable := api.Group("/resumable")
		resumable.POST("/prepare", h.PrepareUpload)
		resumable.POST("/chunk", h.UploadChunk)
		resumable.POST("/complete", h.CompleteUpload)
		resumable.DELETE("/cancel/:taskId", h.CancelUpload)
		resumable.POST("/resume/:taskId", h.ResumeTask)
		resumable.GET("/tasks", h.ListTasks)
		resumable.DELETE("/tasks", h.DeleteTasks)

		api.GET("/webdav/list", h.WebDavList)
	}

	webdav := r.Group("/webdav", middleware.WebDavAuthMiddleware())
	webdav.Any("/dispatch/*path", h.WebDavDispatch)
}
