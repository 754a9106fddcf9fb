package repositories

import (
	"context"

	"github.com/SkyDependence/tgDrive/models"

	"gorm.io/gorm"
)

type GormFileEntryRepository struct {
	db *gorm.DB
}

func NewGormFileEntryRepository(db *gorm.DB) *GormFileEntryRepository {
	return &GormFileEntryRepository{db: db}
}

func (r *GormFileEntryRepository) Create(_ context.Context, tx *gorm.DB, entry *models.FileEntry) error {
	return useTx(r.db, tx).Create(entry).Error
}

func (r *GormFileEntryRepository) GetByWebdavPath(_ context.Context, tx *gorm.DB, path string) (models.FileEntry, error) {
	var entry models.FileEntry
	err := useTx(r.db, tx).Where("webdav_path = ?", path).First(&entry).Error
	return entry, err
}

func (r *GormFileEntryRepository) GetByFileID(_ context.Context, tx *gorm.DB, fileID string) (models.FileEntry, error) {
	var entry models.FileEntry
	err := useTx(r.db, tx).Where("file_id = ?", fileID).First(&entry).Error
	return entry, err
}

func (r *GormFileEntryRepository) ListByPathPrefix(_ context.Context, tx *gorm.DB, prefix string) ([]models.FileEntry, error) {
	var entries []models.FileEntry
	err := useTx(r.db, tx).Where("webdav_path LIKE ?", prefix+"%").Order("webdav_path").Find(&entries).Error
	return entries, err
}

func (r *GormFileEntryRepository) InsertAtPath(_ context.Context, tx *gorm.DB, entry models.FileEntry, target string) error {
	entry.ID = 0
	entry.WebdavPath = &target
	return useTx(r.db, tx).Create(&entry).Error
}

func (r *GormFileEntryRepository) UpdateAttributesByPath(_ context.Context, tx *gorm.DB, entry models.FileEntry, target string) error {
	return useTx(r.db, tx).Model(&models.FileEntry{}).Where("webdav_path = ?", target).Updates(map[string]interface{}{
		"file_id":      entry.FileID,
		"file_name":    entry.FileName,
		"download_url": entry.DownloadURL,
		"size":         entry.Size,
		"full_size":    entry.FullSize,
		"upload_time":  entry.UploadTime,
		"is_dir":       entry.IsDir,
		"user_id":      entry.UserID,
		"is_public":    entry.IsPublic,
	}).Error
}

func (r *GormFileEntryRepository) DeleteByPath(_ context.Context, tx *gorm.DB, path string) error {
	return useTx(r.db, tx).Where("webdav_path = ?", path).Delete(&models.FileEntry{}).Error
}

func (r *GormFileEntryRepository) DeleteByPathPrefix(_ context.Context, tx *gorm.DB, prefix string) error {
	return useTx(r.db, tx).Where("webdav_path LIKE ?", prefix+"%").Delete(&models.FileEntry{}).Error
}
