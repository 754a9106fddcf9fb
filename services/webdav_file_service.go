package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/SkyDependence/tgDrive/logger"
	"github.com/SkyDependence/tgDrive/models"
	"github.com/SkyDependence/tgDrive/repositories"

	"gorm.io/gorm"
)

// WebDavFileService 虚拟文件系统引擎。条目存在扁平表里，
// 目录路径以 "/" 结尾，子树操作靠路径前缀匹配完成。
type WebDavFileService interface {
	ListFiles(ctx context.Context, path string) ([]models.FileEntry, error)
	GetEntry(ctx context.Context, path string) (models.FileEntry, error)
	MkCol(ctx context.Context, path string, userID uint) error
	Move(ctx context.Context, source, target string, overwrite bool) error
	Copy(ctx context.Context, source, target string, overwrite bool) error
	Delete(ctx context.Context, path string) error
}

type webDavFileService struct {
	txManager repositories.TxManager
	entries   repositories.FileEntryRepository
	now       func() time.Time
}

func NewWebDavFileService(txManager repositories.TxManager, entries repositories.FileEntryRepository) WebDavFileService {
	return &webDavFileService{txManager: txManager, entries: entries, now: time.Now}
}

// DisplayName 取路径最后一段，目录路径先去掉结尾斜杠
func DisplayName(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// ListFiles 只返回 path 的直接子节点，不递归
func (s *webDavFileService) ListFiles(ctx context.Context, path string) ([]models.FileEntry, error) {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	all, err := s.entries.ListByPathPrefix(ctx, nil, path)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "查询目录失败", err)
	}

	children := make([]models.FileEntry, 0, len(all))
	for _, entry := range all {
		rest := strings.TrimPrefix(entry.Path(), path)
		if rest == "" {
			continue
		}
		rest = strings.TrimSuffix(rest, "/")
		if strings.Contains(rest, "/") {
			continue
		}
		children = append(children, entry)
	}
	return children, nil
}

func (s *webDavFileService) GetEntry(ctx context.Context, path string) (models.FileEntry, error) {
	entry, err := s.entries.GetByWebdavPath(ctx, nil, path)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FileEntry{}, newAppError(http.StatusNotFound, "路径不存在", nil)
		}
		return models.FileEntry{}, newAppError(http.StatusInternalServerError, "查询路径失败", err)
	}
	return entry, nil
}

func (s *webDavFileService) MkCol(ctx context.Context, path string, userID uint) error {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	if _, err := s.entries.GetByWebdavPath(ctx, nil, path); err == nil {
		return newAppError(http.StatusMethodNotAllowed, "目录已存在", nil)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return newAppError(http.StatusInternalServerError, "查询路径失败", err)
	}

	dirPath := path
	entry := models.FileEntry{
		FileID:      models.DirFileID,
		FileName:    DisplayName(dirPath),
		DownloadURL: models.DirFileID,
		Size:        "0",
		FullSize:    0,
		UploadTime:  s.now().UTC().Unix(),
		WebdavPath:  &dirPath,
		IsDir:       true,
		UserID:      userID,
	}
	if err := s.entries.Create(ctx, nil, &entry); err != nil {
		return newAppError(http.StatusInternalServerError, "创建目录失败", err)
	}

	logger.Infof("创建目录: %s", dirPath)
	return nil
}

func (s *webDavFileService) Move(ctx context.Context, source, target string, overwrite bool) error {
	return s.relocate(ctx, source, target, overwrite, true)
}

func (s *webDavFileService) Copy(ctx context.Context, source, target string, overwrite bool) error {
	return s.relocate(ctx, source, target, overwrite, false)
}

// relocate 在一个事务里完成整棵子树的搬移或复制。
// 只有目录条目（路径带结尾斜杠）才做前缀匹配，文件条目精确匹配，
// 避免 "/a.txt" 的前缀误伤 "/a.txt.bak"。
func (s *webDavFileService) relocate(ctx context.Context, source, target string, overwrite bool, deleteSource bool) error {
	if source == target {
		return nil
	}

	entry, err := s.entries.GetByWebdavPath(ctx, nil, source)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusBadRequest, "源路径不存在", nil)
		}
		return newAppError(http.StatusInternalServerError, "查询源路径失败", err)
	}

	if !overwrite {
		if _, err := s.entries.GetByWebdavPath(ctx, nil, target); err == nil {
			return newAppError(http.StatusConflict, "目标路径已存在", nil)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusInternalServerError, "查询目标路径失败", err)
		}
	}

	var subEntries []models.FileEntry
	if entry.IsDir {
		all, err := s.entries.ListByPathPrefix(ctx, nil, source)
		if err != nil {
			return newAppError(http.StatusInternalServerError, "查询子目录失败", err)
		}
		for _, sub := range all {
			if sub.Path() == source {
				continue
			}
			subEntries = append(subEntries, sub)
		}
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if deleteSource {
			if entry.IsDir {
				if err := s.entries.DeleteByPathPrefix(ctx, tx, source); err != nil {
					return err
				}
			} else if err := s.entries.DeleteByPath(ctx, tx, source); err != nil {
				return err
			}
		}

		if err := s.placeEntry(ctx, tx, entry, target, overwrite); err != nil {
			return err
		}
		for _, sub := range subEntries {
			subTarget := target + strings.TrimPrefix(sub.Path(), source)
			sub.FileName = DisplayName(subTarget)
			if err := s.placeEntry(ctx, tx, sub, subTarget, overwrite); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return err
		}
		return newAppError(http.StatusInternalServerError, "移动文件失败", err)
	}

	if deleteSource {
		logger.Infof("移动: %s -> %s (%d 个子条目)", source, target, len(subEntries))
	} else {
		logger.Infof("复制: %s -> %s (%d 个子条目)", source, target, len(subEntries))
	}
	return nil
}

// placeEntry 目标已存在时覆盖其属性，否则插入新行
func (s *webDavFileService) placeEntry(ctx context.Context, tx *gorm.DB, entry models.FileEntry, target string, overwrite bool) error {
	entry.FileName = DisplayName(target)
	if _, err := s.entries.GetByWebdavPath(ctx, tx, target); err == nil {
		if !overwrite {
			return newAppError(http.StatusConflict, "目标路径已存在", nil)
		}
		return s.entries.UpdateAttributesByPath(ctx, tx, entry, target)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.entries.InsertAtPath(ctx, tx, entry, target)
}

func (s *webDavFileService) Delete(ctx context.Context, path string) error {
	entry, err := s.entries.GetByWebdavPath(ctx, nil, path)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusNotFound, "路径不存在", nil)
		}
		return newAppError(http.StatusInternalServerError, "查询路径失败", err)
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if entry.IsDir {
			return s.entries.DeleteByPathPrefix(ctx, tx, entry.Path())
		}
		return s.entries.DeleteByPath(ctx, tx, path)
	})
	if err != nil {
		return newAppError(http.StatusInternalServerError, "删除失败", err)
	}

	logger.Infof("删除: %s", path)
	return nil
}
