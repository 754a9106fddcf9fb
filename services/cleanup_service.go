package services

import (
	"context"
	"time"

	"github.com/SkyDependence/tgDrive/config"
	"github.com/SkyDependence/tgDrive/logger"
)

type CleanupService interface {
	Start(ctx context.Context)
}

type cleanupService struct {
	resumable ResumableUploadService
}

func NewCleanupService(resumable ResumableUploadService) CleanupService {
	return &cleanupService{resumable: resumable}
}

// Start 启动过期任务清理循环，直到 ctx 取消。启动时先清理一轮。
func (s *cleanupService) Start(ctx context.Context) {
	interval := time.Duration(config.AppConfig.Upload.CleanupInterval) * time.Second

	go func() {
		s.sweep(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Infof("清理任务已停止")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()

	logger.Infof("过期任务清理已启动，间隔: %s", interval)
}

func (s *cleanupService) sweep(ctx context.Context) {
	if err := s.resumable.CleanExpiredTasks(ctx); err != nil {
		logger.Errorf("清理过期任务出错: %v", err)
	}
}
