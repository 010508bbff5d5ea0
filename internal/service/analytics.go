package service

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/eluia/eluia-api/internal/model"
)

// Aggregator keeps the per-tenant conversation history used by the candidate
// dashboard. State lives in memory and is rebuilt from the durable chat log
// at startup.
type Aggregator struct {
	mu      sync.RWMutex
	records map[string][]*model.ChatRecord

	now func() time.Time
}

// NewAggregator creates an empty analytics aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		records: make(map[string][]*model.ChatRecord),
		now:     time.Now,
	}
}

// Record appends one served conversation to the tenant's history.
func (a *Aggregator) Record(rec *model.ChatRecord) {
	a.mu.Lock()
	a.records[rec.TenantID] = append(a.records[rec.TenantID], rec)
	a.mu.Unlock()
}

// Restore replays a historical record without reordering checks; records are
// appended in the order the durable log delivers them.
func (a *Aggregator) Restore(rec *model.ChatRecord) {
	a.Record(rec)
}

// Overview summarizes a tenant's traffic. DailyCostUSD is filled in by the
// caller from the cost monitor.
func (a *Aggregator) Overview(tenantID string) *model.AnalyticsOverview {
	today := a.now().UTC().Format("2006-01-02")

	a.mu.RLock()
	defer a.mu.RUnlock()

	recs := a.records[tenantID]
	sessions := make(map[string]struct{}, len(recs))
	var totalLatency int64
	overview := &model.AnalyticsOverview{TotalConversations: len(recs)}

	for _, r := range recs {
		sessions[r.SessionHash] = struct{}{}
		totalLatency += r.LatencyMs
		if r.CreatedAt.UTC().Format("2006-01-02") == today {
			overview.ConversationsToday++
		}
	}

	overview.UniqueUsers = len(sessions)
	if len(recs) > 0 {
		overview.AvgResponseTimeMs = float64(totalLatency) / float64(len(recs))
	}
	return overview
}

// TopQuestions returns the most asked questions, grouped after normalization
// so casing and punctuation variants count together. The first phrasing seen
// is the one displayed.
func (a *Aggregator) TopQuestions(tenantID string, limit int) []model.TopQuestion {
	if limit <= 0 {
		limit = 10
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := make(map[string]int)
	display := make(map[string]string)
	order := make([]string, 0)

	for _, r := range a.records[tenantID] {
		key := NormalizeQuestion(r.Question)
		if key == "" {
			continue
		}
		if _, seen := counts[key]; !seen {
			display[key] = r.Question
			order = append(order, key)
		}
		counts[key]++
	}

	// Stable order: count descending, first-seen breaking ties.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}

	top := make([]model.TopQuestion, 0, len(order))
	for _, key := range order {
		top = append(top, model.TopQuestion{Question: display[key], Count: counts[key]})
	}
	return top
}

// HourlyActivity buckets the trailing seven days of conversations by UTC
// hour of day. Every response carries all 24 buckets, zeros included.
func (a *Aggregator) HourlyActivity(tenantID string) *model.HourlyActivity {
	cutoff := a.now().UTC().Add(-7 * 24 * time.Hour)

	activity := &model.HourlyActivity{
		Hours:  make([]int, 24),
		Counts: make([]int, 24),
	}
	for h := 0; h < 24; h++ {
		activity.Hours[h] = h
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, r := range a.records[tenantID] {
		at := r.CreatedAt.UTC()
		if at.Before(cutoff) {
			continue
		}
		activity.Counts[at.Hour()]++
	}
	return activity
}

// Recent returns the newest conversations, most recent first.
func (a *Aggregator) Recent(tenantID string, limit int) []model.ConversationEntry {
	if limit <= 0 {
		limit = 50
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	recs := a.records[tenantID]
	entries := make([]model.ConversationEntry, 0, limit)
	for i := len(recs) - 1; i >= 0 && len(entries) < limit; i-- {
		r := recs[i]
		entries = append(entries, model.ConversationEntry{
			ID:             r.ID,
			Question:       r.Question,
			Answer:         r.Answer,
			Cached:         r.Cached,
			CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339),
			ResponseTimeMs: r.LatencyMs,
		})
	}
	return entries
}

// ExportCSV streams the tenant's full history as CSV, oldest first.
func (a *Aggregator) ExportCSV(tenantID string, w io.Writer) error {
	a.mu.RLock()
	recs := make([]*model.ChatRecord, len(a.records[tenantID]))
	copy(recs, a.records[tenantID])
	a.mu.RUnlock()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "question", "answer", "cached", "response_time_ms"}); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.Question,
			r.Answer,
			strconv.FormatBool(r.Cached),
			strconv.FormatInt(r.LatencyMs, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
