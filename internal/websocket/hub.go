package websocket

import (
	"context"
	"sync"

	"taskboard/pkg/logger"

	"go.uber.org/zap"
)

// Conn is the part of *websocket.Conn the hub and sessions use.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client merepresentasikan klien WebSocket.
type Client struct {
	Conn   Conn
	UserID string
	mu     sync.Mutex
}

// Write serialises writes; a websocket connection allows one writer.
func (c *Client) Write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// Hub mengelola koneksi WebSocket yang aktif.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	count      chan chan int
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run menjalankan loop Hub sampai ctx selesai, lalu menutup semua koneksi.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
			}
		case reply := <-h.count:
			reply <- len(h.clients)
		case <-ctx.Done():
			for client := range h.clients {
				client.Conn.Close()
				delete(h.clients, client)
			}
			logger.SystemLogger.Info("WebSocket hub stopped")
			return
		}
	}
}

// Register adds client; it reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Done is closed after Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func logDrop(client *Client, err error) {
	logger.ErrorLogger.Error("WebSocket write failed", zap.String("user_id", client.UserID), zap.Error(err))
}
