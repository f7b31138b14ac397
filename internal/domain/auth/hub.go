package auth

import (
	"log/slog"
	"sync"

	"absensi/internal/domain/access"
)

const subscriberBuffer = 8

// Hub fans session transitions out to every open page of a browser. Browsers
// are identified by their device cookie.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	ch   chan access.Session
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[*subscriber]struct{}{}}
}

func (h *Hub) Subscribe(deviceID string) (<-chan access.Session, func()) {
	sub := &subscriber{ch: make(chan access.Session, subscriberBuffer)}

	h.mu.Lock()
	set, ok := h.subs[deviceID]
	if !ok {
		set = map[*subscriber]struct{}{}
		h.subs[deviceID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[deviceID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, deviceID)
			}
		}
		sub.once.Do(func() { close(sub.ch) })
	}
	return sub.ch, cancel
}

// Publish delivers session to every subscriber of deviceID in publish order.
// A subscriber whose buffer is full loses its oldest pending transition.
func (h *Hub) Publish(deviceID string, session access.Session) {
	if deviceID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[deviceID] {
		select {
		case sub.ch <- session:
			continue
		default:
		}
		select {
		case <-sub.ch:
			slog.Warn("session subscriber lagging, dropped oldest transition", "deviceId", deviceID)
		default:
		}
		sub.ch <- session
	}
}

func (h *Hub) Subscribers(deviceID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[deviceID])
}
