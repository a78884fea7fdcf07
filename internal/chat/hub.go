package chat

import (
	"sync"

	"gemimarket/internal/models"
)

// Hub fans persisted messages out to realtime subscribers, scoped by
// session. Delivery is best-effort: a slow subscriber drops messages
// instead of blocking the send path. Receivers dedup by message id, so
// a message seen both optimistically and via the hub renders once.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan models.ChatMessage]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan models.ChatMessage]struct{})}
}

// Subscribe registers for messages in sessionID. The returned cancel
// func must be called to release the subscription.
func (h *Hub) Subscribe(sessionID string) (<-chan models.ChatMessage, func()) {
	ch := make(chan models.ChatMessage, 16)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan models.ChatMessage]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[sessionID]; ok {
			if _, subscribed := set[ch]; subscribed {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers msg to every subscriber of its session.
func (h *Hub) Publish(msg models.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[msg.SessionID] {
		select {
		case ch <- msg:
		default:
		}
	}
}
