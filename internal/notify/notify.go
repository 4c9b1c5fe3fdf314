// Package notify keeps one active notification per user. A new notification
// replaces the previous one instead of stacking, and each expires after a
// fixed TTL.
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays active.
const DefaultTTL = 3 * time.Second

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

type Level string

type Notification struct {
	ID         uint64    `json:"id"`
	Level      Level     `json:"type"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	DurationMs int64     `json:"duration"`
}

type Hub struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	seq    uint64
	active map[string]Notification
	subs   map[string]map[chan Notification]struct{}
}

// NewHub returns a hub whose notifications live for ttl; non-positive means DefaultTTL.
func NewHub(ttl time.Duration) *Hub {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Hub{
		ttl:    ttl,
		now:    time.Now,
		active: make(map[string]Notification),
		subs:   make(map[string]map[chan Notification]struct{}),
	}
}

// Notify makes msg the user's active notification and fans it out to
// subscribers. Slow subscribers miss notifications rather than block.
func (h *Hub) Notify(user string, level Level, msg string) Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	now := h.now()
	n := Notification{
		ID:         h.seq,
		Level:      level,
		Message:    msg,
		CreatedAt:  now,
		ExpiresAt:  now.Add(h.ttl),
		DurationMs: h.ttl.Milliseconds(),
	}
	h.active[user] = n

	for ch := range h.subs[user] {
		select {
		case ch <- n:
		default:
		}
	}
	return n
}

// Transient builds a notification without storing or publishing it, for
// requests that carry no known user.
func (h *Hub) Transient(level Level, msg string) Notification {
	now := h.now()
	return Notification{
		Level:      level,
		Message:    msg,
		CreatedAt:  now,
		ExpiresAt:  now.Add(h.ttl),
		DurationMs: h.ttl.Milliseconds(),
	}
}

func (h *Hub) Success(user, msg string) Notification { return h.Notify(user, LevelSuccess, msg) }
func (h *Hub) Error(user, msg string) Notification   { return h.Notify(user, LevelError, msg) }

// Current returns the user's active notification if it has not expired.
func (h *Hub) Current(user string) (Notification, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.active[user]
	if !ok {
		return Notification{}, false
	}
	if !h.now().Before(n.ExpiresAt) {
		delete(h.active, user)
		return Notification{}, false
	}
	return n, true
}

// Dismiss clears the active notification.
func (h *Hub) Dismiss(user string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.active, user)
}

// Subscribe returns a channel receiving the user's future notifications and
// a function that unsubscribes and closes it.
func (h *Hub) Subscribe(user string) (<-chan Notification, func()) {
	ch := make(chan Notification, 4)

	h.mu.Lock()
	if h.subs[user] == nil {
		h.subs[user] = make(map[chan Notification]struct{})
	}
	h.subs[user][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[user], ch)
			if len(h.subs[user]) == 0 {
				delete(h.subs, user)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// CleanExpired drops expired notifications and returns how many were removed.
func (h *Hub) CleanExpired() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	removed := 0
	for user, n := range h.active {
		if !now.Before(n.ExpiresAt) {
			delete(h.active, user)
			removed++
		}
	}
	return removed
}

// Size returns the number of users holding a notification, expired or not.
func (h *Hub) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.active)
}
