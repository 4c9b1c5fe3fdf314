package cache

import (
	"strconv"
	"sync"
	"time"

	"dompet/internal/analytics"
)

const keySep = "|"

// ReportCache holds computed analytics reports per user and window.
// Writes for a user must call InvalidateUser so stale reports are not served.
//
// Each user has a generation that InvalidateUser bumps. A report computed
// before an invalidation carries the old generation and Put discards it.
type ReportCache struct {
	mu   sync.Mutex
	gens map[string]uint64
	lru  *LRUCache[analytics.Report]
}

func NewReportCache(maxSize int, ttl time.Duration) *ReportCache {
	return &ReportCache{
		gens: make(map[string]uint64),
		lru:  NewLRUCache[analytics.Report](maxSize, ttl),
	}
}

// userPrefix is length-prefixed so no user's prefix is a prefix of another's.
func userPrefix(userID string) string {
	return strconv.Itoa(len(userID)) + ":" + userID + keySep
}

func reportKey(userID string, w analytics.Window) string {
	return userPrefix(userID) + w.Key()
}

func (c *ReportCache) Get(userID string, w analytics.Window) (analytics.Report, bool) {
	return c.lru.Get(reportKey(userID, w))
}

// Generation returns the current generation of userID. Read it before
// loading the rows a report is built from.
func (c *ReportCache) Generation(userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[userID]
}

// Put stores r unless userID was invalidated after gen was read. It reports
// whether the report was kept.
func (c *ReportCache) Put(userID string, w analytics.Window, gen uint64, r analytics.Report) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen {
		return false
	}
	c.lru.Set(reportKey(userID, w), r)
	return true
}

// InvalidateUser drops every cached report of userID and moves its
// generation on.
func (c *ReportCache) InvalidateUser(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
	return c.lru.DeletePrefix(userPrefix(userID))
}

func (c *ReportCache) CleanExpired() int { return c.lru.CleanExpired() }

func (c *ReportCache) Size() int { return c.lru.Size() }
