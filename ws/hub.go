package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hilman45/ai-exam-prep-tutor/logger"
	"github.com/hilman45/ai-exam-prep-tutor/services"
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub gửi tiến độ sinh artifact tới các kết nối đang theo dõi một tài liệu của đúng người dùng đó
type Hub struct {
	clients map[string]map[*websocket.Conn]*Client // theo documentID:userID
	mu      sync.RWMutex
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]*Client), log: log}
}

func topic(docID, userID string) string { return docID + ":" + userID }

// Register thêm kết nối và khởi động write pump; caller giữ vòng đọc
func (h *Hub) Register(docID, userID string, conn *websocket.Conn) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := topic(docID, userID)
	if _, ok := h.clients[key]; !ok {
		h.clients[key] = make(map[*websocket.Conn]*Client)
	}
	client := &Client{Conn: conn, Send: make(chan []byte, 256)}
	h.clients[key][conn] = client

	go h.writePump(client)
	return client
}

func (h *Hub) Unregister(docID, userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := topic(docID, userID)
	if clients, ok := h.clients[key]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.clients, key)
		}
	}
}

func (h *Hub) Broadcast(docID, userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[topic(docID, userID)] {
		select {
		case client.Send <- data:
		default:
			// client chậm: bỏ message thay vì chặn tiến trình sinh
		}
	}
}

// NotifyProgress để Hub dùng được như services.ProgressNotifier
func (h *Hub) NotifyProgress(ev services.ProgressEvent) {
	data, err := json.Marshal(struct {
		Type string `json:"type"`
		services.ProgressEvent
	}{Type: "generation_progress", ProgressEvent: ev})
	if err != nil {
		h.log.Warn("JSON marshal lỗi", "error", err)
		return
	}
	h.Broadcast(ev.DocumentID, ev.UserID, data)
}

func (h *Hub) GetStats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := 0
	for _, clients := range h.clients {
		conns += len(clients)
	}
	return map[string]int{"topics": len(h.clients), "connections": conns}
}

func (h *Hub) writePump(client *Client) {
	defer func() {
		_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		client.Conn.Close()
	}()
	for msg := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
