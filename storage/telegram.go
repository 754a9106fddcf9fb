package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/SkyDependence/tgDrive/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramStorage 把 Telegram 机器人消息当作 blob 后端使用。
// 单条消息有大小上限，分块由上层负责。
type TelegramStorage struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	client *http.Client
}

func NewTelegramStorage(cfg *config.TelegramConfig) (*TelegramStorage, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("初始化 Telegram Bot 失败: %w", err)
	}
	return &TelegramStorage{
		bot:    bot,
		chatID: cfg.ChatID,
		client: http.DefaultClient,
	}, nil
}

func (s *TelegramStorage) SendDocument(_ context.Context, data []byte, fileName string) (string, error) {
	doc := tgbotapi.NewDocument(s.chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	msg, err := s.bot.Send(doc)
	if err != nil {
		return "", fmt.Errorf("发送文件到 Telegram 失败: %w", err)
	}

	fileID := extractFileID(&msg)
	if fileID == "" {
		return "", errors.New("无法从消息中获取文件ID")
	}
	return fileID, nil
}

func (s *TelegramStorage) FetchDocument(ctx context.Context, fileID string) (io.ReadCloser, error) {
	fileURL, err := s.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("获取文件下载地址失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载文件失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("下载文件失败: HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// 文档消息优先，客户端偶尔会把小文件识别成其它类型
func extractFileID(msg *tgbotapi.Message) string {
	switch {
	case msg.Document != nil:
		return msg.Document.FileID
	case msg.Video != nil:
		return msg.Video.FileID
	case msg.Audio != nil:
		return msg.Audio.FileID
	case len(msg.Photo) > 0:
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	return ""
}
