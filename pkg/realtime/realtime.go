// Package realtime fans session snapshots out to live listeners, such as
// the WebSocket connections of a browser tab.
//
// Each session owns one Hub. Listeners only care about the latest state, so
// a listener whose buffer is full loses its oldest pending snapshot rather
// than the newest one. Publishing never blocks the session loop.
package realtime

import (
	"sync"

	"github.com/rubiojr/hnsearch/pkg/search"
)

// Hub is an in-memory snapshot dispatcher. It implements search.Publisher
// and is safe for concurrent use.
type Hub struct {
	mu        sync.Mutex
	listeners map[uint64]chan search.Snapshot
	nextID    uint64
	bufSize   int
	last      *search.Snapshot
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 8 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 8
	}
	return &Hub{
		listeners: make(map[uint64]chan search.Snapshot),
		bufSize:   bufSize,
	}
}

// Register adds a listener. If a snapshot was already published, the
// listener receives it immediately. Callers must Unregister(id) when done.
func (h *Hub) Register() (uint64, <-chan search.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan search.Snapshot, h.bufSize)
	if h.last != nil {
		ch <- *h.last
	}
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Publish delivers snap to every listener.
func (h *Hub) Publish(snap search.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &snap
	for _, ch := range h.listeners {
		for {
			select {
			case ch <- snap:
			default:
				// Full: drop the oldest pending snapshot and retry.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Close unregisters every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.listeners {
		delete(h.listeners, id)
		close(ch)
	}
}

// Size returns the current number of listeners.
func (h *Hub) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
