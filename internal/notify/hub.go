package notify

import (
	"context"
	"sync"

	"ai-spm/internal/domain"
)

const hubBuffer = 16

// Hub reparte avisos a los suscriptores activos (por ejemplo, streams SSE).
// Un suscriptor lento pierde avisos en lugar de bloquear al emisor.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan domain.Notification
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan domain.Notification)}
}

func (h *Hub) Notify(_ context.Context, n domain.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe devuelve un canal de avisos y la funcion para cancelar la suscripcion.
func (h *Hub) Subscribe() (<-chan domain.Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan domain.Notification, hubBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// Subscribers devuelve la cantidad de suscriptores activos.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
