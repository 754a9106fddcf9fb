package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/SkyDependence/tgDrive/logger"
	"github.com/SkyDependence/tgDrive/models"
	"github.com/SkyDependence/tgDrive/repositories"

	"gorm.io/gorm"
)

type DownloadResult struct {
	FileName string
	FileSize int64
	Body     io.ReadCloser
}

type DownloadService interface {
	Fetch(ctx context.Context, fileID string) (DownloadResult, error)
}

type downloadService struct {
	entries repositories.FileEntryRepository
	blobs   BlobStore
}

func NewDownloadService(entries repositories.FileEntryRepository, blobs BlobStore) DownloadService {
	return &downloadService{entries: entries, blobs: blobs}
}

// Fetch 拉取 fileID 对应的 blob。内容若是记录文件清单，
// 则按清单顺序逐块拉取并拼接成完整文件流。
func (s *downloadService) Fetch(ctx context.Context, fileID string) (DownloadResult, error) {
	fileName := fileID
	var fileSize int64
	if entry, err := s.entries.GetByFileID(ctx, nil, fileID); err == nil {
		fileName = entry.FileName
		fileSize = entry.FullSize
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return DownloadResult{}, newAppError(http.StatusInternalServerError, "查询文件记录失败", err)
	}

	body, err := s.blobs.FetchDocument(ctx, fileID)
	if err != nil {
		return DownloadResult{}, newAppError(http.StatusBadGateway, "文件下载失败", err)
	}

	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return DownloadResult{}, newAppError(http.StatusBadGateway, "文件下载失败", err)
	}

	record, ok := models.DecodeRecordFile(data)
	if !ok {
		return DownloadResult{
			FileName: fileName,
			FileSize: int64(len(data)),
			Body:     io.NopCloser(bytes.NewReader(data)),
		}, nil
	}

	logger.Infof("下载记录文件: %s, 共 %d 个分块", record.FileName, len(record.FileIDs))
	if record.FileName != "" {
		fileName = record.FileName
	}
	if record.FileSize > 0 {
		fileSize = record.FileSize
	}

	return DownloadResult{
		FileName: fileName,
		FileSize: fileSize,
		Body:     newChunkReader(ctx, s.blobs, record.FileIDs),
	}, nil
}

// chunkReader 惰性串流：读到当前分块末尾才拉取下一个分块，
// 整个文件不会同时驻留内存
type chunkReader struct {
	ctx     context.Context
	blobs   BlobStore
	fileIDs []string
	idx     int
	current io.ReadCloser
}

func newChunkReader(ctx context.Context, blobs BlobStore, fileIDs []string) io.ReadCloser {
	return &chunkReader{ctx: ctx, blobs: blobs, fileIDs: fileIDs}
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for {
		if r.current == nil {
			if r.idx >= len(r.fileIDs) {
				return 0, io.EOF
			}
			body, err := r.blobs.FetchDocument(r.ctx, r.fileIDs[r.idx])
			if err != nil {
				logger.Errorf("拉取分块失败 - fileId: %s, 错误: %v", r.fileIDs[r.idx], err)
				return 0, err
			}
			r.current = body
			r.idx++
		}

		n, err := r.current.Read(p)
		if err == io.EOF {
			r.current.Close()
			r.current = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (r *chunkReader) Close() error {
	if r.current != nil {
		err := r.current.Close()
		r.current = nil
		return err
	}
	return nil
}
