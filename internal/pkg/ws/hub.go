package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/internal/pkg/pubsub"
)

// Hub tracks websocket connections per user. A user may hold several
// connections at once (tabs, reconnects).
type Hub struct {
	clients map[int64]map[*Client]struct{}
	mu      sync.RWMutex
	logger  *zap.Logger
}

type Client struct {
	UserID int64
	Conn   *websocket.Conn
	mu     sync.Mutex // serializes writes
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}

	h.logger.Debug("websocket connected",
		zap.Int64("user_id", client.UserID),
		zap.Int("user_conns", len(h.clients[client.UserID])))
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	h.logger.Debug("websocket disconnected", zap.Int64("user_id", client.UserID))
}

// SendToUser writes msg to every connection of userID. Offline users are
// not an error.
func (h *Hub) SendToUser(userID int64, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns, ok := h.clients[userID]
	if !ok {
		h.mu.RUnlock()
		return nil
	}
	clients := make([]*Client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.Conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			h.logger.Warn("websocket write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

// Relay forwards job progress from the worker processes to the owning
// user's connections until ctx is done.
func (h *Hub) Relay(ctx context.Context, sub *pubsub.Subscriber) error {
	return sub.Subscribe(ctx, func(msg *pubsub.ProgressMessage) {
		if !h.IsOnline(msg.UserID) {
			return
		}
		if err := h.SendToUser(msg.UserID, &Message{Type: msg.Type, Data: msg}); err != nil {
			h.logger.Warn("failed to relay progress", zap.Int64("job_id", msg.JobID), zap.Error(err))
		}
	})
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.clients[userID]
	return ok && len(conns) > 0
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
