package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/SkyDependence/tgDrive/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type progressMessage struct {
	Type           string  `json:"type"`
	FileName       string  `json:"fileName"`
	Progress       float64 `json:"progress,omitempty"`
	UploadedChunks int     `json:"uploadedChunks,omitempty"`
	TotalChunks    int     `json:"totalChunks,omitempty"`
}

// ProgressHub 向所有在线客户端广播上传进度。
// 实现 services.ProgressNotifier，推送失败只记日志不回传。
type ProgressHub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[string]*websocket.Conn),
	}
}

// HandleConnection 升级连接并保持到对端关闭。
// 读循环只用来感知断连，进度消息是单向推送。
func (h *ProgressHub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("websocket升级失败: %v", err)
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()

	logger.Debugf("websocket客户端接入: %s", id)

	go func() {
		defer h.drop(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *ProgressHub) drop(id string) {
	h.mu.Lock()
	conn, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()
	if ok {
		conn.Close()
		logger.Debugf("websocket客户端断开: %s", id)
	}
}

func (h *ProgressHub) SendUploadProgress(fileName string, progress float64, uploadedChunks int, totalChunks int) {
	h.broadcast(progressMessage{
		Type:           "progress",
		FileName:       fileName,
		Progress:       progress,
		UploadedChunks: uploadedChunks,
		TotalChunks:    totalChunks,
	})
}

func (h *ProgressHub) SendUploadComplete(fileName string) {
	h.broadcast(progressMessage{
		Type:     "complete",
		FileName: fileName,
		Progress: 100,
	})
}

// 写超时上限。广播在调用方的关键路径上执行，
// 卡住的客户端必须在限期内被放弃并踢掉，不能拖住所有人。
const writeWait = 5 * time.Second

func (h *ProgressHub) broadcast(msg progressMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Debugf("websocket推送失败，断开客户端: %s, %v", id, err)
			conn.Close()
			delete(h.conns, id)
		}
	}
}
