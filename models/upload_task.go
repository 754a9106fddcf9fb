package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusUploading TaskStatus = "uploading"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusUploading, TaskStatusFailed, TaskStatusCompleted:
		return true
	}
	return false
}

// UploadTask 断点续传任务。ID 由 fileHash、userID 和创建时间拼接而成。
// UploadedChunks 是 JSON 数组，ChunkFileIDs 是分块索引到 fileId 的 JSON 对象。
type UploadTask struct {
	ID             string     `gorm:"type:varchar(128);primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	FileName       string     `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize       int64      `gorm:"not null" json:"file_size"`
	FileHash       string     `gorm:"type:varchar(64);not null;index:idx_hash_user" json:"file_hash"`
	ChunkSize      int64      `gorm:"not null" json:"chunk_size"`
	TotalChunks    int        `gorm:"not null" json:"total_chunks"`
	UploadedChunks string     `gorm:"type:text" json:"uploaded_chunks"`
	ChunkFileIDs   string     `gorm:"type:text" json:"chunk_file_ids"`
	Status         TaskStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message"`
	FinalFileID    string     `gorm:"type:varchar(128)" json:"final_file_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ExpiresAt      time.Time  `gorm:"not null;index" json:"expires_at"`
}

// UploadedChunkList 解析已上传分块索引，空串等同于空数组
func (t *UploadTask) UploadedChunkList() ([]int, error) {
	if t.UploadedChunks == "" || t.UploadedChunks == "[]" {
		return []int{}, nil
	}
	var chunks []int
	if err := json.Unmarshal([]byte(t.UploadedChunks), &chunks); err != nil {
		return nil, fmt.Errorf("解析已上传分块失败: %w", err)
	}
	return chunks, nil
}

// ChunkFileIDMap 解析分块索引到 fileId 的映射
func (t *UploadTask) ChunkFileIDMap() (map[int]string, error) {
	if t.ChunkFileIDs == "" || t.ChunkFileIDs == "{}" {
		return map[int]string{}, nil
	}
	var raw map[string]string
	if err := json.Unmarshal([]byte(t.ChunkFileIDs), &raw); err != nil {
		return nil, fmt.Errorf("解析分块fileId失败: %w", err)
	}
	out := make(map[int]string, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("分块索引 %q 非法: %w", k, err)
		}
		out[idx] = v
	}
	return out, nil
}

func EncodeChunkList(chunks []int) string {
	data, _ := json.Marshal(chunks)
	return string(data)
}

func EncodeChunkFileIDs(m map[int]string) string {
	raw := make(map[string]string, len(m))
	for idx, fileID := range m {
		raw[strconv.Itoa(idx)] = fileID
	}
	data, _ := json.Marshal(raw)
	return string(data)
}

func (t *UploadTask) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && t.ExpiresAt.Before(now)
}
