package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/SkyDependence/tgDrive/config"
	"github.com/SkyDependence/tgDrive/logger"
	"github.com/SkyDependence/tgDrive/models"
	"github.com/SkyDependence/tgDrive/repositories"
	"github.com/SkyDependence/tgDrive/utils"

	"gorm.io/gorm"
)

type PrepareUploadInput struct {
	FileName  string
	FileSize  int64
	FileHash  string
	UserID    uint
	URLPrefix string
}

type UploadPrepareOutput struct {
	TaskID         string  `json:"task_id"`
	Resumable      bool    `json:"resumable"`
	Completed      bool    `json:"completed"`
	TotalChunks    int     `json:"total_chunks"`
	UploadedChunks []int   `json:"uploaded_chunks"`
	ChunkSize      int64   `json:"chunk_size"`
	UploadedSize   int64   `json:"uploaded_size"`
	UploadProgress float64 `json:"upload_progress"`
	FinalFileID    string  `json:"final_file_id,omitempty"`
	DownloadURL    string  `json:"download_url,omitempty"`
}

type ChunkUploadOutput struct {
	TaskID              string  `json:"task_id"`
	ChunkIndex          int     `json:"chunk_index"`
	ChunkFileID         string  `json:"chunk_file_id"`
	Success             bool    `json:"success"`
	Message             string  `json:"message,omitempty"`
	UploadedChunksCount int     `json:"uploaded_chunks_count"`
	ProgressPercentage  float64 `json:"progress_percentage"`
}

type CompletedFileOutput struct {
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
}

type UploadTaskOutput struct {
	ID               string  `json:"id"`
	FileName         string  `json:"file_name"`
	FileSize         int64   `json:"file_size"`
	FileSizeStr      string  `json:"file_size_str"`
	TotalChunks      int     `json:"total_chunks"`
	UploadedChunks   int     `json:"uploaded_chunks"`
	Progress         float64 `json:"progress"`
	Status           string  `json:"status"`
	StatusText       string  `json:"status_text"`
	ErrorMessage     string  `json:"error_message,omitempty"`
	Resumable        bool    `json:"resumable"`
	RemainingSize    int64   `json:"remaining_size"`
	RemainingSizeStr string  `json:"remaining_size_str"`
	CreatedAt        int64   `json:"created_at"`
	ExpiresAt        int64   `json:"expires_at"`
}

type ResumableUploadService interface {
	PrepareUpload(ctx context.Context, in PrepareUploadInput) (UploadPrepareOutput, error)
	UploadChunk(ctx context.Context, taskID string, chunkIndex int, chunk []byte) (ChunkUploadOutput, error)
	CompleteUpload(ctx context.Context, taskID string, urlPrefix string) (CompletedFileOutput, error)
	CancelUpload(ctx context.Context, taskID string, userID uint) error
	ResumeTask(ctx context.Context, taskID string, userID uint) (UploadPrepareOutput, error)
	ListUserTasks(ctx context.Context, userID uint) ([]UploadTaskOutput, error)
	DeleteTasks(ctx context.Context, taskIDs []string, userID uint) error
	CleanExpiredTasks(ctx context.Context) error
}

type resumableUploadService struct {
	txManager  repositories.TxManager
	tasks      repositories.UploadTaskRepository
	entries    repositories.FileEntryRepository
	chunkCache repositories.ChunkCacheRepository
	blobs      BlobStore
	notifier   ProgressNotifier
	locks      taskLockMap
	now        func() time.Time
}

func NewResumableUploadService(
	txManager repositories.TxManager,
	tasks repositories.UploadTaskRepository,
	entries repositories.FileEntryRepository,
	chunkCache repositories.ChunkCacheRepository,
	blobs BlobStore,
	notifier ProgressNotifier,
) ResumableUploadService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	return &resumableUploadService{
		txManager:  txManager,
		tasks:      tasks,
		entries:    entries,
		chunkCache: chunkCache,
		blobs:      blobs,
		notifier:   notifier,
		now:        time.Now,
	}
}

func chunkSizeConfig() int64 {
	return config.AppConfig.Upload.ChunkSize
}

func taskExpiry() time.Duration {
	return time.Duration(config.AppConfig.Upload.TaskExpireDays) * 24 * time.Hour
}

func downloadURL(prefix, fileID string) string {
	return prefix + "/d/" + fileID
}

func (s *resumableUploadService) PrepareUpload(ctx context.Context, in PrepareUploadInput) (UploadPrepareOutput, error) {
	existing, err := s.tasks.GetByHashAndUser(ctx, nil, in.FileHash, in.UserID)
	if err == nil {
		if existing.Expired(s.now()) {
			// 过期任务按不存在处理
			if err := s.dropTask(ctx, existing.ID); err != nil {
				return UploadPrepareOutput{}, newAppError(http.StatusInternalServerError, "清理过期任务失败", err)
			}
		} else {
			if existing.Status == models.TaskStatusCompleted && existing.FinalFileID != "" {
				// 秒传：同内容已经上传完成
				chunks, _ := existing.UploadedChunkList()
				sort.Ints(chunks)
				return UploadPrepareOutput{
					TaskID:         existing.ID,
					Resumable:      false,
					Completed:      true,
					TotalChunks:    existing.TotalChunks,
					UploadedChunks: chunks,
					ChunkSize:      taskChunkSize(&existing),
					UploadedSize:   existing.FileSize,
					UploadProgress: 100,
					FinalFileID:    existing.FinalFileID,
					DownloadURL:    downloadURL(in.URLPrefix, existing.FinalFileID),
				}, nil
			}

			if existing.Status == models.TaskStatusFailed {
				if err := s.tasks.UpdateStatus(ctx, nil, existing.ID, models.TaskStatusPending, ""); err != nil {
					return UploadPrepareOutput{}, newAppError(http.StatusInternalServerError, "重置任务状态失败", err)
				}
				existing.Status = models.TaskStatusPending
				existing.ErrorMessage = ""
			}

			return s.resumableOutput(&existing)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return UploadPrepareOutput{}, newAppError(http.StatusInternalServerError, "查询上传任务失败", err)
	}

	chunkSize := chunkSizeConfig()
	totalChunks := int(math.Ceil(float64(in.FileSize) / float64(chunkSize)))
	now := s.now()

	task := models.UploadTask{
		ID:             fmt.Sprintf("%s_%d_%d", in.FileHash, in.UserID, now.UnixMilli()),
		UserID:         in.UserID,
		FileName:       in.FileName,
		FileSize:       in.FileSize,
		FileHash:       in.FileHash,
		ChunkSize:      chunkSize,
		TotalChunks:    totalChunks,
		UploadedChunks: "[]",
		ChunkFileIDs:   "{}",
		Status:         models.TaskStatusPending,
		ExpiresAt:      now.Add(taskExpiry()),
	}
	if err := s.tasks.Create(ctx, nil, &task); err != nil {
		return UploadPrepareOutput{}, newAppError(http.StatusInternalServerError, "创建上传任务失败", err)
	}

	logger.Infof("创建新的上传任务: %s, 文件: %s, 总分块数: %d", task.ID, in.FileName, totalChunks)

	return UploadPrepareOutput{
		TaskID:         task.ID,
		Resumable:      false,
		Completed:      false,
		TotalChunks:    totalChunks,
		UploadedChunks: []int{},
		ChunkSize:      chunkSize,
		UploadedSize:   0,
		UploadProgress: 0,
	}, nil
}

func taskChunkSize(task *models.UploadTask) int64 {
	if task.ChunkSize > 0 {
		return task.ChunkSize
	}
	return chunkSizeConfig()
}

func (s *resumableUploadService) resumableOutput(task *models.UploadTask) (UploadPrepareOutput, error) {
	chunks, err := task.UploadedChunkList()
	if err != nil {
		return UploadPrepareOutput{}, newAppError(http.StatusInternalServerError, "解析任务分块信息失败", err)
	}
	sort.Ints(chunks)

	chunkSize := taskChunkSize(task)
	uploadedSize := int64(len(chunks)) * chunkSize
	if uploadedSize > task.FileSize {
		uploadedSize = task.FileSize
	}
	progress := 0.0
	if task.TotalChunks > 0 {
		progress = float64(len(chunks)) / float64(task.TotalChunks) * 100
	}

	return UploadPrepareOutput{
		TaskID:         task.ID,
		Resumable:      true,
		Completed:      false,
		TotalChunks:    task.TotalChunks,
		UploadedChunks: chunks,
		ChunkSize:      chunkSize,
		UploadedSize:   uploadedSize,
		UploadProgress: progress,
	}, nil
}

func (s *resumableUploadService) UploadChunk(ctx context.Context, taskID string, chunkIndex int, chunk []byte) (ChunkUploadOutput, error) {
	// 快路径：缓存命中说明该分块早已落库，无锁直接返回已有映射
	if cached, err := s.chunkCache.IsChunkUploaded(ctx, taskID, chunkIndex); err == nil && cached {
		task, err := s.tasks.GetByID(ctx, nil, taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ChunkUploadOutput{}, newAppError(http.StatusNotFound, "上传任务不存在", nil)
			}
			return ChunkUploadOutput{}, newAppError(http.StatusInternalServerError, "查询上传任务失败", err)
		}
		return s.duplicateChunkOutput(&task, chunkIndex)
	}

	lock := s.locks.acquire(taskID)

	lock.Lock()
	task, err := s.tasks.GetByID(ctx, nil, taskID)
	if err != nil {
		lock.Unlock()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ChunkUploadOutput{}, newAppError(http.StatusNotFound, "上传任务不存在", nil)
		}
		return ChunkUploadOutput{}, newAppError(http.StatusInternalServerError, "查询上传任务失败", err)
	}
	if task.Status == models.TaskStatusCompleted {
		lock.Unlock()
		return ChunkUploadOutput{}, newAppError(http.StatusBadRequest, "上传任务已完成", nil)
	}
	if chunkIndex >= task.TotalChunks {
		lock.Unlock()
		return ChunkUploadOutput{}, newAppError(http.StatusBadRequest,
			fmt.Sprintf("分块索引 %d 超出范围，总分块数 %d", chunkIndex, task.TotalChunks), nil)
	}
	chunks, err := task.UploadedChunkList()
	if err != nil {
		lock.Unlock()
		return ChunkUploadOutput{}, newAppError(http.StatusInternalServerError, "解析任务分块信息失败", err)
	}
	if containsInt(chunks, chunkIndex) {
		out, err := s.duplicateChunkOutput(&task, chunkIndex)
		lock.Unlock()
		return out, err
	}
	if task.Status == models.TaskStatusPending {
		_ = s.tasks.UpdateStatus(ctx, nil, taskID, models.TaskStatusUploading, "")
	}
	lock.Unlock()

	// 分块上传不持锁，同一任务的不同分块可以并行发往 Telegram
	chunkName := fmt.Sprintf("%s_part%d", task.FileName, chunkIndex)
	fileID, err := s.blobs.SendDocument(ctx, chunk, chunkName)
	if err != nil {
		logger.Errorf("分块上传失败 - 任务: %s, 分块: %d, 错误: %v", taskID, chunkIndex, err)
		lock.Lock()
		_ = s.tasks.UpdateStatus(ctx, nil, taskID, models.TaskStatusFailed, err.Error())
		lock.Unlock()
		return ChunkUploadOutput{}, newAppError(http.StatusBadGateway, "分块上传失败", err)
	}

	lock.Lock()
	defer lock.Unlock()

	// 重新读取任务，避免覆盖并发分块的更新；任务可能已被取消或清理
	task, err = s.tasks.GetByID(ctx, nil, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ChunkUploadOutput{}, newAppError(http.StatusNotFound, "上传任务不存在", nil)
		}
		return ChunkUploadOutput{}, newAppError(http.StatusInternalServerError, "查询上传任务失败", err)
	}

	chunks, err = task.UploadedChunkList()
	if err != nil {
		return ChunkUploadOutput{}, newAppError(http.StatusInternalServerError, "解析任务分块信息失败", err)
	}
	if containsInt(chunks, chunkIndex) {
		// 同一分块的两次提交在无锁窗口内重叠了
		return s.duplicateChunkOutput(&task, chunkIndex)
	}

	fileIDs, err := task.ChunkFileIDMap()
	if err != nil {
		return ChunkUploadOutput{}, newAppError(http.StatusInternalServerError, "解析任务分块信息失败", err)
	}
	chunks = append(chunks, chunkIndex)
	fileIDs[chunkIndex] = fileID

	if err := s.tasks.UpdateChunks(ctx, nil, taskID, models.EncodeChunkList(chunks), models.EncodeChunkFileIDs(fileIDs)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ChunkUploadOutput{}, newAppError(http.StatusNotFound, "上传任务不存在", nil)
		}
		return ChunkUploadOutput{}, newAppError(http.StatusInternalServerError, "记录分块进度失败", err)
	}

	if err := s.chunkCache.AddChunk(ctx, taskID, chunkIndex, config.AppConfig.Redis.ChunkCacheExpire); err != nil {
		logger.Debugf("写入分块缓存失败 - 任务: %s, 分块: %d, 错误: %v", taskID, chunkIndex, err)
	}

	progress := float64(len(chunks)) / float64(task.TotalChunks) * 100
	s.notifier.SendUploadProgress(task.FileName, progress, len(chunks), task.TotalChunks)

	logger.Infof("分块上传成功 - 任务: %s, 分块: %d/%d", taskID, chunkIndex+1, task.TotalChunks)

	return ChunkUploadOutput{
		TaskID:              taskID,
		ChunkIndex:          chunkIndex,
		ChunkFileID:         fileID,
		Success:             true,
		Message:             "分块上传成功",
		UploadedChunksCount: len(chunks),
		ProgressPercentage:  progress,
	}, nil
}

func (s *resumableUploadService) duplicateChunkOutput(task *models.UploadTask, chunkIndex int) (ChunkUploadOutput, error) {
	chunks, err := task.UploadedChunkList()
	if err != nil {
		return ChunkUploadOutput{}, newAppError(http.StatusInternalServerError, "解析任务分块信息失败", err)
	}
	fileIDs, err := task.ChunkFileIDMap()
	if err != nil {
		return ChunkUploadOutput{}, newAppError(http.StatusInternalServerError, "解析任务分块信息失败", err)
	}
	progress := 0.0
	if task.TotalChunks > 0 {
		progress = float64(len(chunks)) / float64(task.TotalChunks) * 100
	}
	return ChunkUploadOutput{
		TaskID:              task.ID,
		ChunkIndex:          chunkIndex,
		ChunkFileID:         fileIDs[chunkIndex],
		Success:             true,
		Message:             "分块已上传",
		UploadedChunksCount: len(chunks),
		ProgressPercentage:  progress,
	}, nil
}

func (s *resumableUploadService) CompleteUpload(ctx context.Context, taskID string, urlPrefix string) (CompletedFileOutput, error) {
	// 完成流程全程持锁，外部观察不到完成到一半的任务
	lock := s.locks.acquire(taskID)
	lock.Lock()
	defer lock.Unlock()

	task, err := s.tasks.GetByID(ctx, nil, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CompletedFileOutput{}, newAppError(http.StatusNotFound, "上传任务不存在", nil)
		}
		return CompletedFileOutput{}, newAppError(http.StatusInternalServerError, "查询上传任务失败", err)
	}

	out, err := s.finalize(ctx, &task, urlPrefix)
	if err != nil {
		logger.Errorf("完成上传失败 - 任务: %s, 错误: %v", taskID, err)
		// 任务保留为 failed，客户端可以重试
		_ = s.tasks.UpdateStatus(ctx, nil, taskID, models.TaskStatusFailed, err.Error())
		return CompletedFileOutput{}, err
	}

	_ = s.chunkCache.Clear(ctx, taskID)
	s.locks.remove(taskID)
	s.notifier.SendUploadComplete(task.FileName)

	logger.Infof("上传任务完成 - 任务: %s, 文件: %s", taskID, task.FileName)
	return out, nil
}

func (s *resumableUploadService) finalize(ctx context.Context, task *models.UploadTask, urlPrefix string) (CompletedFileOutput, error) {
	chunks, err := task.UploadedChunkList()
	if err != nil {
		return CompletedFileOutput{}, newAppError(http.StatusInternalServerError, "解析任务分块信息失败", err)
	}
	if len(chunks) != task.TotalChunks {
		return CompletedFileOutput{}, newAppError(http.StatusBadRequest,
			fmt.Sprintf("还有分块未上传完成，已上传 %d/%d", len(chunks), task.TotalChunks), nil)
	}

	fileIDs, err := task.ChunkFileIDMap()
	if err != nil {
		return CompletedFileOutput{}, newAppError(http.StatusInternalServerError, "解析任务分块信息失败", err)
	}

	var finalFileID string
	if task.FileSize <= taskChunkSize(task) {
		finalFileID = fileIDs[0]
		if finalFileID == "" {
			return CompletedFileOutput{}, newAppError(http.StatusInternalServerError, "分块 0 的fileId缺失", nil)
		}
	} else {
		finalFileID, err = s.createRecordFile(ctx, task, fileIDs)
		if err != nil {
			return CompletedFileOutput{}, err
		}
	}

	url := downloadURL(urlPrefix, finalFileID)
	now := s.now().UTC().Unix()
	entry := models.FileEntry{
		FileID:      finalFileID,
		FileName:    task.FileName,
		DownloadURL: url,
		Size:        utils.HumanReadableSize(task.FileSize),
		FullSize:    task.FileSize,
		UploadTime:  now,
		UserID:      task.UserID,
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.tasks.CompleteTask(ctx, tx, task.ID, finalFileID); err != nil {
			return err
		}
		if err := s.entries.Create(ctx, tx, &entry); err != nil {
			return err
		}
		// 完成后立即删除任务记录，不保留已完成任务
		return s.tasks.DeleteByID(ctx, tx, task.ID)
	})
	if err != nil {
		return CompletedFileOutput{}, newAppError(http.StatusInternalServerError, "保存文件记录失败", err)
	}

	return CompletedFileOutput{FileName: task.FileName, DownloadURL: url}, nil
}

// createRecordFile 按分块索引升序生成清单并上传，返回清单的 fileId
func (s *resumableUploadService) createRecordFile(ctx context.Context, task *models.UploadTask, fileIDs map[int]string) (string, error) {
	ordered := make([]string, 0, task.TotalChunks)
	for i := 0; i < task.TotalChunks; i++ {
		fileID, ok := fileIDs[i]
		if !ok || fileID == "" {
			return "", newAppError(http.StatusInternalServerError, fmt.Sprintf("分块 %d 的fileId缺失", i), nil)
		}
		ordered = append(ordered, fileID)
	}

	data, err := models.EncodeRecordFile(models.RecordFile{
		FileName: task.FileName,
		FileSize: task.FileSize,
		FileIDs:  ordered,
	})
	if err != nil {
		return "", newAppError(http.StatusInternalServerError, "生成记录文件失败", err)
	}

	sum := sha256.Sum256([]byte(task.FileName))
	recordName := hex.EncodeToString(sum[:]) + ".record.json"

	recordFileID, err := s.blobs.SendDocument(ctx, data, recordName)
	if err != nil {
		return "", newAppError(http.StatusBadGateway, "上传记录文件失败", err)
	}

	logger.Infof("记录文件创建成功 - FileID: %s", recordFileID)
	return recordFileID, nil
}

func (s *resumableUploadService) CancelUpload(ctx context.Context, taskID string, userID uint) error {
	task, err := s.tasks.GetByID(ctx, nil, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 取消操作幂等
			return nil
		}
		return newAppError(http.StatusInternalServerError, "查询上传任务失败", err)
	}

	if task.UserID != userID {
		return newAppError(http.StatusForbidden, "无权限取消此上传任务", nil)
	}

	if err := s.dropTask(ctx, taskID); err != nil {
		return newAppError(http.StatusInternalServerError, "取消上传任务失败", err)
	}
	logger.Infof("上传任务已取消 - 任务: %s, 用户: %d", taskID, userID)
	return nil
}

func (s *resumableUploadService) ResumeTask(ctx context.Context, taskID string, userID uint) (UploadPrepareOutput, error) {
	task, err := s.tasks.GetByID(ctx, nil, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UploadPrepareOutput{}, newAppError(http.StatusNotFound, "上传任务不存在", nil)
		}
		return UploadPrepareOutput{}, newAppError(http.StatusInternalServerError, "查询上传任务失败", err)
	}

	if task.UserID != userID {
		return UploadPrepareOutput{}, newAppError(http.StatusForbidden, "无权限访问此任务", nil)
	}
	if task.Status == models.TaskStatusCompleted {
		return UploadPrepareOutput{}, newAppError(http.StatusBadRequest, "任务已完成，请重新上传", nil)
	}
	if task.Status == models.TaskStatusFailed {
		if err := s.tasks.UpdateStatus(ctx, nil, taskID, models.TaskStatusPending, ""); err != nil {
			return UploadPrepareOutput{}, newAppError(http.StatusInternalServerError, "重置任务状态失败", err)
		}
		task.Status = models.TaskStatusPending
	}

	return s.resumableOutput(&task)
}

func (s *resumableUploadService) ListUserTasks(ctx context.Context, userID uint) ([]UploadTaskOutput, error) {
	tasks, err := s.tasks.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "查询上传任务列表失败", err)
	}

	out := make([]UploadTaskOutput, 0, len(tasks))
	for i := range tasks {
		out = append(out, s.taskOutput(&tasks[i]))
	}
	return out, nil
}

func (s *resumableUploadService) taskOutput(task *models.UploadTask) UploadTaskOutput {
	chunks, _ := task.UploadedChunkList()
	uploadedCount := len(chunks)
	progress := 0.0
	if task.TotalChunks > 0 {
		progress = float64(uploadedCount) / float64(task.TotalChunks) * 100
	}

	uploadedSize := int64(uploadedCount) * taskChunkSize(task)
	if uploadedSize > task.FileSize {
		uploadedSize = task.FileSize
	}
	remaining := task.FileSize - uploadedSize

	statusText := map[models.TaskStatus]string{
		models.TaskStatusPending:   "等待上传",
		models.TaskStatusUploading: "上传中",
		models.TaskStatusCompleted: "已完成",
		models.TaskStatusFailed:    "上传失败",
	}[task.Status]
	if statusText == "" {
		statusText = "未知状态"
	}

	return UploadTaskOutput{
		ID:               task.ID,
		FileName:         task.FileName,
		FileSize:         task.FileSize,
		FileSizeStr:      utils.HumanReadableSize(task.FileSize),
		TotalChunks:      task.TotalChunks,
		UploadedChunks:   uploadedCount,
		Progress:         progress,
		Status:           string(task.Status),
		StatusText:       statusText,
		ErrorMessage:     task.ErrorMessage,
		Resumable:        task.Status != models.TaskStatusCompleted && !task.Expired(s.now()),
		RemainingSize:    remaining,
		RemainingSizeStr: utils.HumanReadableSize(remaining),
		CreatedAt:        task.CreatedAt.Unix(),
		ExpiresAt:        task.ExpiresAt.Unix(),
	}
}

func (s *resumableUploadService) DeleteTasks(ctx context.Context, taskIDs []string, userID uint) error {
	for _, taskID := range taskIDs {
		task, err := s.tasks.GetByID(ctx, nil, taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return newAppError(http.StatusInternalServerError, "查询上传任务失败", err)
		}
		if task.UserID != userID {
			logger.Debugf("跳过非本人的任务: %s, 请求用户: %d, 持有用户: %d", taskID, userID, task.UserID)
			continue
		}
		if err := s.dropTask(ctx, taskID); err != nil {
			return newAppError(http.StatusInternalServerError, "删除上传任务失败", err)
		}
		logger.Infof("删除上传任务: %s", taskID)
	}
	return nil
}

// CleanExpiredTasks 删除所有过期任务。纯删除操作，可与任何任务操作并发执行：
// 输掉竞态的在途分块写入会命中已删除的行，按任务不存在处理。
func (s *resumableUploadService) CleanExpiredTasks(ctx context.Context) error {
	expired, err := s.tasks.ListExpired(ctx, nil, s.now())
	if err != nil {
		return newAppError(http.StatusInternalServerError, "查询过期任务失败", err)
	}

	for i := range expired {
		if err := s.dropTask(ctx, expired[i].ID); err != nil {
			return newAppError(http.StatusInternalServerError, "清理过期任务失败", err)
		}
	}

	if len(expired) > 0 {
		logger.Infof("清理过期上传任务: %d 个", len(expired))
	}
	return nil
}

// dropTask 删除任务行并释放附属资源（锁条目、分块缓存）
func (s *resumableUploadService) dropTask(ctx context.Context, taskID string) error {
	if err := s.tasks.DeleteByID(ctx, nil, taskID); err != nil {
		return err
	}
	_ = s.chunkCache.Clear(ctx, taskID)
	s.locks.remove(taskID)
	return nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
