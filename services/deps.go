package services

import (
	"context"
	"io"
)

// BlobStore 对接实际的 blob 后端（Telegram 机器人）。
// 返回的 fileId 是不透明字符串，后端不保证大小上限之外的任何语义。
type BlobStore interface {
	SendDocument(ctx context.Context, data []byte, fileName string) (string, error)
	FetchDocument(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// ProgressNotifier 上传进度推送通道。实现必须自行吞掉投递失败，
// 推送问题不允许影响上传流程。
type ProgressNotifier interface {
	SendUploadProgress(fileName string, progress float64, uploadedChunks int, totalChunks int)
	SendUploadComplete(fileName string)
}

type noopNotifier struct{}

func (noopNotifier) SendUploadProgress(string, float64, int, int) {}
func (noopNotifier) SendUploadComplete(string)                    {}

// NewNoopNotifier 用于推送通道未配置的场合
func NewNoopNotifier() ProgressNotifier {
	return noopNotifier{}
}
