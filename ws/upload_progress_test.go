package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func (h *ProgressHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func waitForClients(t *testing.T, hub *ProgressHub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.clientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("等待客户端数 %d 超时, 当前 %d", want, hub.clientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket连接失败: %v", err)
	}
	return conn
}

func TestProgressDelivery(t *testing.T) {
	hub := NewProgressHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer srv.Close()

	client := dial(t, srv)
	defer client.Close()
	waitForClients(t, hub, 1)

	hub.SendUploadProgress("movie.mkv", 33.3, 1, 3)

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg progressMessage
	if err := client.ReadJSON(&msg); err != nil {
		t.Fatalf("读取进度消息失败: %v", err)
	}
	if msg.Type != "progress" || msg.FileName != "movie.mkv" || msg.UploadedChunks != 1 {
		t.Fatalf("进度消息不符: %+v", msg)
	}

	hub.SendUploadComplete("movie.mkv")
	if err := client.ReadJSON(&msg); err != nil {
		t.Fatalf("读取完成消息失败: %v", err)
	}
	if msg.Type != "complete" || msg.Progress != 100 {
		t.Fatalf("完成消息不符: %+v", msg)
	}
}

func TestBroadcastDropsFailedClients(t *testing.T) {
	hub := NewProgressHub()
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	defer srv.Close()

	client := dial(t, srv)
	defer client.Close()
	conn := <-serverConns

	hub.mu.Lock()
	hub.conns["stalled"] = conn
	hub.mu.Unlock()

	// 连接已关闭，写入必然失败，广播应把该客户端踢出去而不是报错阻塞
	conn.Close()
	hub.SendUploadProgress("movie.mkv", 50, 1, 2)

	if got := hub.clientCount(); got != 0 {
		t.Fatalf("失败的客户端应被移除, 剩余 %d", got)
	}
}

func TestDisconnectedClientRemoved(t *testing.T) {
	hub := NewProgressHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer srv.Close()

	client := dial(t, srv)
	waitForClients(t, hub, 1)

	client.Close()
	waitForClients(t, hub, 0)
}
