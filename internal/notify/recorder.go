package notify

import (
	"context"
	"sync"

	"ai-spm/internal/domain"
)

// Recorder guarda los avisos recibidos; util para tests y para el CLI.
type Recorder struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (r *Recorder) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *Recorder) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Count cuenta los avisos con la variante indicada.
func (r *Recorder) Count(variant domain.Variant) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Variant == variant {
			n++
		}
	}
	return n
}
