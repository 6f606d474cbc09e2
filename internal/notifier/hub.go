package notifier

import (
	"encoding/json"
	"log/slog"
	"time"

	"shopapp/internal/usecase"
)

const (
	EventOrderNew           = "order:new"
	EventOrderStatusUpdated = "order:status-updated"
)

// 管理者ルームへのブロードキャスト用ハブ。
// 配信はat-most-once。落ちたクライアントや遅いクライアントは切り離す。
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	clients map[*Client]struct{}

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*Client]struct{}),
		logger:     logger,
	}
}

// Run はハブのイベントループ。goroutineで起動する。
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Info("ws client connected", "client_id", c.id, "user_id", c.userID, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Info("ws client disconnected", "client_id", c.id, "clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// 送信バッファが詰まっているクライアントは切り離す
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("ws client dropped (slow consumer)", "client_id", c.id)
				}
			}
		}
	}
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type newOrderPayload struct {
	Order     usecase.OrderOutput `json:"order"`
	Timestamp time.Time           `json:"timestamp"`
	PlaySound bool                `json:"playSound"`
}

type statusUpdatedPayload struct {
	Order     usecase.OrderOutput `json:"order"`
	Timestamp time.Time           `json:"timestamp"`
}

// NotifyNewOrder は新規注文を管理者ルームへ流す。
func (h *Hub) NotifyNewOrder(order usecase.OrderOutput) {
	h.emit(EventOrderNew, newOrderPayload{
		Order:     order,
		Timestamp: time.Now(),
		PlaySound: true,
	})
}

// NotifyStatusUpdated はステータス変更を管理者ルームへ流す。
func (h *Hub) NotifyStatusUpdated(order usecase.OrderOutput) {
	h.emit(EventOrderStatusUpdated, statusUpdatedPayload{
		Order:     order,
		Timestamp: time.Now(),
	})
}

func (h *Hub) emit(event string, data any) {
	msg, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("ws marshal failed", "event", event, "error", err)
		return
	}
	// ハブが詰まっていても呼び出し元（注文処理）は待たせない
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws broadcast buffer full, event dropped", "event", event)
	}
}
