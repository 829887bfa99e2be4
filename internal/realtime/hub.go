package realtime

import (
	"context"
	"sync"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/metrics"
)

const defaultBuffer = 16

type subscriber struct {
	ch   chan domain.ChatMessage
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.ch)
		metrics.ChatSubscriberRemoved()
	})
}

// Hub fans chat messages out to the live subscribers of each rental thread
// in this process. A subscriber whose buffer is full is dropped and its
// channel closed.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int32]map[*subscriber]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[int32]map[*subscriber]struct{}),
		buffer: buffer,
	}
}

// Publish delivers msg to local subscribers only.
func (h *Hub) Publish(ctx context.Context, msg domain.ChatMessage) {
	h.Broadcast(msg)
}

func (h *Hub) Broadcast(msg domain.ChatMessage) {
	var slow []*subscriber

	h.mu.RLock()
	for s := range h.subs[msg.RentalID] {
		select {
		case s.ch <- msg:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		logger.Warn("Dropping slow chat subscriber", "rentalID", msg.RentalID)
		h.remove(msg.RentalID, s)
	}
}

func (h *Hub) Subscribe(rentalID int32) (<-chan domain.ChatMessage, func()) {
	s := &subscriber{ch: make(chan domain.ChatMessage, h.buffer)}

	h.mu.Lock()
	set, ok := h.subs[rentalID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[rentalID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	metrics.ChatSubscriberAdded()

	return s.ch, func() { h.remove(rentalID, s) }
}

func (h *Hub) remove(rentalID int32, s *subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[rentalID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, rentalID)
		}
	}
	h.mu.Unlock()
	s.close()
}

// Subscribers returns the number of live subscribers of a thread.
func (h *Hub) Subscribers(rentalID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[rentalID])
}
