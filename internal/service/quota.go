package service

import (
	"sync"
	"time"

	"github.com/eluia/eluia-api/internal/model"
)

// DefaultDailyQuota is the per-citizen-session daily message allowance.
const DefaultDailyQuota = 20

// QuotaTracker enforces the per-citizen-session daily message ceiling.
// Counters are keyed by (tenant, session, UTC day), so the reset at the day
// boundary needs no clock callback: a new day simply starts a fresh key.
type QuotaTracker struct {
	limit int

	mu     sync.Mutex
	counts map[string]int

	now func() time.Time
}

// NewQuotaTracker creates a tracker with the given daily limit.
func NewQuotaTracker(limit int) *QuotaTracker {
	if limit <= 0 {
		limit = DefaultDailyQuota
	}
	return &QuotaTracker{
		limit:  limit,
		counts: make(map[string]int),
		now:    time.Now,
	}
}

func (q *QuotaTracker) key(tenantID, sessionHash string) string {
	return tenantID + "|" + sessionHash + "|" + q.now().UTC().Format("2006-01-02")
}

// Consume spends one message from the session's daily allowance and returns
// how many remain. The check and the increment happen under one lock, so
// concurrent requests from the same session cannot double-spend.
func (q *QuotaTracker) Consume(tenantID, sessionHash string) (int, error) {
	key := q.key(tenantID, sessionHash)

	q.mu.Lock()
	defer q.mu.Unlock()

	count := q.counts[key]
	if count >= q.limit {
		return 0, model.ErrQuotaExceeded
	}

	count++
	q.counts[key] = count
	return q.limit - count, nil
}

// Remaining reports the session's remaining allowance without consuming.
func (q *QuotaTracker) Remaining(tenantID, sessionHash string) int {
	key := q.key(tenantID, sessionHash)

	q.mu.Lock()
	defer q.mu.Unlock()

	remaining := q.limit - q.counts[key]
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Sweep drops counters from previous days. Correctness does not depend on
// it (stale keys are never read again); it only bounds memory.
func (q *QuotaTracker) Sweep() int {
	today := "|" + q.now().UTC().Format("2006-01-02")

	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for key := range q.counts {
		if len(key) < len(today) || key[len(key)-len(today):] != today {
			delete(q.counts, key)
			removed++
		}
	}
	return removed
}
