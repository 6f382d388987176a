// Package realtime fans attendance events out to live subscribers.
package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/observability/metrics"
)

const subscriberBuffer = 32

// SignatureEvent is published after a signature is committed
type SignatureEvent struct {
	Type        string    `json:"type"`
	SignatureID int64     `json:"signature_id"`
	SessionID   int64     `json:"session_id"`
	UserID      int64     `json:"user_id"`
	Date        string    `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
}

type subscriber struct {
	ch chan SignatureEvent
}

// Hub tracks subscribers per session
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]map[*subscriber]struct{}
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[int64]map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a listener for one session. The returned cancel
// function must be called once the listener is done; it closes the channel.
func (h *Hub) Subscribe(sessionID int64) (<-chan SignatureEvent, func()) {
	sub := &subscriber{ch: make(chan SignatureEvent, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()
	metrics.IncrementSubscribers()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sessionID], sub)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			h.mu.Unlock()
			close(sub.ch)
			metrics.DecrementSubscribers()
		})
	}
	return sub.ch, cancel
}

// Publish delivers ev to every subscriber of its session. Slow subscribers
// miss events rather than block the publisher.
func (h *Hub) Publish(ev SignatureEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[ev.SessionID] {
		select {
		case sub.ch <- ev:
		default:
			h.logger.Warn("dropping attendance event for slow subscriber",
				slog.Int64("session_id", ev.SessionID),
				slog.Int64("signature_id", ev.SignatureID),
			)
		}
	}
}

// Subscribers returns the number of listeners for a session
func (h *Hub) Subscribers(sessionID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
