package repositories

import (
	"context"
	"time"

	"github.com/SkyDependence/tgDrive/models"

	"gorm.io/gorm"
)

type GormUploadTaskRepository struct {
	db *gorm.DB
}

func NewGormUploadTaskRepository(db *gorm.DB) *GormUploadTaskRepository {
	return &GormUploadTaskRepository{db: db}
}

func (r *GormUploadTaskRepository) Create(_ context.Context, tx *gorm.DB, task *models.UploadTask) error {
	return useTx(r.db, tx).Create(task).Error
}

func (r *GormUploadTaskRepository) GetByID(_ context.Context, tx *gorm.DB, id string) (models.UploadTask, error) {
	var task models.UploadTask
	err := useTx(r.db, tx).Where("id = ?", id).First(&task).Error
	return task, err
}

func (r *GormUploadTaskRepository) GetByHashAndUser(_ context.Context, tx *gorm.DB, fileHash string, userID uint) (models.UploadTask, error) {
	var task models.UploadTask
	err := useTx(r.db, tx).Where("file_hash = ? AND user_id = ?", fileHash, userID).First(&task).Error
	return task, err
}

func (r *GormUploadTaskRepository) ListByUser(_ context.Context, tx *gorm.DB, userID uint) ([]models.UploadTask, error) {
	var tasks []models.UploadTask
	err := useTx(r.db, tx).Where("user_id = ?", userID).Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

func (r *GormUploadTaskRepository) ListExpired(_ context.Context, tx *gorm.DB, now time.Time) ([]models.UploadTask, error) {
	var tasks []models.UploadTask
	err := useTx(r.db, tx).Where("expires_at < ?", now).Find(&tasks).Error
	return tasks, err
}

func (r *GormUploadTaskRepository) UpdateChunks(_ context.Context, tx *gorm.DB, id string, uploadedChunks string, chunkFileIDs string) error {
	res := useTx(r.db, tx).Model(&models.UploadTask{}).Where("id = ?", id).Updates(map[string]interface{}{
		"uploaded_chunks": uploadedChunks,
		"chunk_file_ids":  chunkFileIDs,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormUploadTaskRepository) UpdateStatus(_ context.Context, tx *gorm.DB, id string, status models.TaskStatus, errorMessage string) error {
	return useTx(r.db, tx).Model(&models.UploadTask{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	}).Error
}

func (r *GormUploadTaskRepository) CompleteTask(_ context.Context, tx *gorm.DB, id string, finalFileID string) error {
	return useTx(r.db, tx).Model(&models.UploadTask{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        models.TaskStatusCompleted,
		"final_file_id": finalFileID,
		"error_message": "",
	}).Error
}

func (r *GormUploadTaskRepository) DeleteByID(_ context.Context, tx *gorm.DB, id string) error {
	return useTx(r.db, tx).Where("id = ?", id).Delete(&models.UploadTask{}).Error
}
