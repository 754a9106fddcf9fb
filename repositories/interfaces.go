package repositories

import (
	"context"
	"time"

	"github.com/SkyDependence/tgDrive/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type FileEntryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.FileEntry) error
	GetByWebdavPath(ctx context.Context, tx *gorm.DB, path string) (models.FileEntry, error)
	GetByFileID(ctx context.Context, tx *gorm.DB, fileID string) (models.FileEntry, error)
	ListByPathPrefix(ctx context.Context, tx *gorm.DB, prefix string) ([]models.FileEntry, error)
	// InsertAtPath 以 entry 的属性在 target 路径插入一条新记录
	InsertAtPath(ctx context.Context, tx *gorm.DB, entry models.FileEntry, target string) error
	// UpdateAttributesByPath 用 entry 的属性覆盖 target 路径已有记录
	UpdateAttributesByPath(ctx context.Context, tx *gorm.DB, entry models.FileEntry, target string) error
	DeleteByPath(ctx context.Context, tx *gorm.DB, path string) error
	DeleteByPathPrefix(ctx context.Context, tx *gorm.DB, prefix string) error
}

type UploadTaskRepository interface {
	Create(ctx context.Context, tx *gorm.DB, task *models.UploadTask) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (models.UploadTask, error)
	GetByHashAndUser(ctx context.Context, tx *gorm.DB, fileHash string, userID uint) (models.UploadTask, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.UploadTask, error)
	ListExpired(ctx context.Context, tx *gorm.DB, now time.Time) ([]models.UploadTask, error)
	UpdateChunks(ctx context.Context, tx *gorm.DB, id string, uploadedChunks string, chunkFileIDs string) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.TaskStatus, errorMessage string) error
	// CompleteTask 写入最终 fileId 并把状态置为 completed
	CompleteTask(ctx context.Context, tx *gorm.DB, id string, finalFileID string) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id string) error
}

// ChunkCacheRepository 已上传分块索引的快路径缓存。
// 任务行始终是权威数据，缓存只在行落库成功之后写入。
type ChunkCacheRepository interface {
	IsChunkUploaded(ctx context.Context, taskID string, chunkIndex int) (bool, error)
	AddChunk(ctx context.Context, taskID string, chunkIndex int, expireSeconds int) error
	Clear(ctx context.Context, taskID string) error
}

type Container struct {
	TxManager   TxManager
	FileEntries FileEntryRepository
	UploadTasks UploadTaskRepository
	ChunkCache  ChunkCacheRepository
}
