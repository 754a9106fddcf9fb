package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SkyDependence/tgDrive/config"
	"github.com/SkyDependence/tgDrive/models"

	"gorm.io/gorm"
)

func setupTestConfig() {
	config.AppConfig = &config.Config{
		Upload: config.UploadConfig{
			ChunkSize:       4,
			TaskExpireDays:  7,
			CleanupInterval: 60,
		},
		Redis: config.RedisConfig{ChunkCacheExpire: 60},
	}
}

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]models.UploadTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]models.UploadTask{}}
}

func (r *fakeTaskRepo) Create(_ context.Context, _ *gorm.DB, task *models.UploadTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	r.tasks[task.ID] = *task
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, _ *gorm.DB, id string) (models.UploadTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return models.UploadTask{}, gorm.ErrRecordNotFound
	}
	return task, nil
}

func (r *fakeTaskRepo) GetByHashAndUser(_ context.Context, _ *gorm.DB, fileHash string, userID uint) (models.UploadTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, task := range r.tasks {
		if task.FileHash == fileHash && task.UserID == userID {
			return task, nil
		}
	}
	return models.UploadTask{}, gorm.ErrRecordNotFound
}

func (r *fakeTaskRepo) ListByUser(_ context.Context, _ *gorm.DB, userID uint) ([]models.UploadTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.UploadTask
	for _, task := range r.tasks {
		if task.UserID == userID {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTaskRepo) ListExpired(_ context.Context, _ *gorm.DB, now time.Time) ([]models.UploadTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.UploadTask
	for _, task := range r.tasks {
		if task.Expired(now) {
			out = append(out, task)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) UpdateChunks(_ context.Context, _ *gorm.DB, id string, uploadedChunks string, chunkFileIDs string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	task.UploadedChunks = uploadedChunks
	task.ChunkFileIDs = chunkFileIDs
	task.UpdatedAt = time.Now()
	r.tasks[id] = task
	return nil
}

func (r *fakeTaskRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id string, status models.TaskStatus, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	task.Status = status
	task.ErrorMessage = errorMessage
	r.tasks[id] = task
	return nil
}

func (r *fakeTaskRepo) CompleteTask(_ context.Context, _ *gorm.DB, id string, finalFileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	task.Status = models.TaskStatusCompleted
	task.FinalFileID = finalFileID
	task.ErrorMessage = ""
	r.tasks[id] = task
	return nil
}

func (r *fakeTaskRepo) DeleteByID(_ context.Context, _ *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

type fakeEntryRepo struct {
	mu      sync.Mutex
	nextID  uint
	entries []models.FileEntry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{}
}

func (r *fakeEntryRepo) Create(_ context.Context, _ *gorm.DB, entry *models.FileEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeEntryRepo) GetByWebdavPath(_ context.Context, _ *gorm.DB, path string) (models.FileEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.WebdavPath != nil && *e.WebdavPath == path {
			return e, nil
		}
	}
	return models.FileEntry{}, gorm.ErrRecordNotFound
}

func (r *fakeEntryRepo) GetByFileID(_ context.Context, _ *gorm.DB, fileID string) (models.FileEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.FileID == fileID {
			return e, nil
		}
	}
	return models.FileEntry{}, gorm.ErrRecordNotFound
}

func (r *fakeEntryRepo) ListByPathPrefix(_ context.Context, _ *gorm.DB, prefix string) ([]models.FileEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.FileEntry
	for _, e := range r.entries {
		if e.WebdavPath != nil && strings.HasPrefix(*e.WebdavPath, prefix) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].WebdavPath < *out[j].WebdavPath })
	return out, nil
}

func (r *fakeEntryRepo) InsertAtPath(_ context.Context, _ *gorm.DB, entry models.FileEntry, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	entry.WebdavPath = &target
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeEntryRepo) UpdateAttributesByPath(_ context.Context, _ *gorm.DB, entry models.FileEntry, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].WebdavPath != nil && *r.entries[i].WebdavPath == target {
			id, path := r.entries[i].ID, r.entries[i].WebdavPath
			r.entries[i] = entry
			r.entries[i].ID = id
			r.entries[i].WebdavPath = path
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeEntryRepo) DeleteByPath(_ context.Context, _ *gorm.DB, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].WebdavPath != nil && *r.entries[i].WebdavPath == path {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeEntryRepo) DeleteByPathPrefix(_ context.Context, _ *gorm.DB, prefix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.WebdavPath == nil || !strings.HasPrefix(*e.WebdavPath, prefix) {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

func (r *fakeEntryRepo) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.WebdavPath != nil {
			out = append(out, *e.WebdavPath)
		}
	}
	sort.Strings(out)
	return out
}

func (r *fakeEntryRepo) addFile(path, fileID string, size int64) {
	p := path
	r.entries = append(r.entries, models.FileEntry{
		FileID:     fileID,
		FileName:   DisplayName(p),
		Size:       fmt.Sprintf("%d B", size),
		FullSize:   size,
		UploadTime: time.Now().Unix(),
		WebdavPath: &p,
	})
}

func (r *fakeEntryRepo) addDir(path string) {
	p := path
	r.entries = append(r.entries, models.FileEntry{
		FileID:     models.DirFileID,
		FileName:   DisplayName(p),
		Size:       "0",
		WebdavPath: &p,
		IsDir:      true,
	})
}

type fakeChunkCache struct {
	mu     sync.Mutex
	chunks map[string]map[int]bool
}

func newFakeChunkCache() *fakeChunkCache {
	return &fakeChunkCache{chunks: map[string]map[int]bool{}}
}

func (c *fakeChunkCache) IsChunkUploaded(_ context.Context, taskID string, chunkIndex int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chunks[taskID][chunkIndex], nil
}

func (c *fakeChunkCache) AddChunk(_ context.Context, taskID string, chunkIndex int, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chunks[taskID] == nil {
		c.chunks[taskID] = map[int]bool{}
	}
	c.chunks[taskID][chunkIndex] = true
	return nil
}

func (c *fakeChunkCache) Clear(_ context.Context, taskID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.chunks, taskID)
	return nil
}

type fakeBlobStore struct {
	mu       sync.Mutex
	sent     map[string][]byte
	sendErr  error
	fetchErr error
	counter  int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{sent: map[string][]byte{}}
}

func (b *fakeBlobStore) SendDocument(_ context.Context, data []byte, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return "", b.sendErr
	}
	b.counter++
	fileID := fmt.Sprintf("tg-file-%d", b.counter)
	b.sent[fileID] = data
	return fileID, nil
}

func (b *fakeBlobStore) FetchDocument(_ context.Context, fileID string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	data, ok := b.sent[fileID]
	if !ok {
		return nil, fmt.Errorf("未知的fileId: %s", fileID)
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	progress  []float64
	completed []string
}

func (n *recordingNotifier) SendUploadProgress(_ string, progress float64, _ int, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, progress)
}

func (n *recordingNotifier) SendUploadComplete(fileName string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, fileName)
}
