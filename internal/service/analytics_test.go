package service

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluia/eluia-api/internal/model"
)

func record(tenantID, session, question string, at time.Time, latency int64) *model.ChatRecord {
	return &model.ChatRecord{
		ID:          question + at.String(),
		TenantID:    tenantID,
		SessionHash: session,
		Question:    question,
		Answer:      "réponse",
		LatencyMs:   latency,
		CreatedAt:   at,
	}
}

func TestOverview(t *testing.T) {
	a := NewAggregator()
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	a.Record(record("t1", "s1", "q1", now.Add(-48*time.Hour), 100))
	a.Record(record("t1", "s1", "q2", now.Add(-time.Hour), 200))
	a.Record(record("t1", "s2", "q3", now, 300))

	o := a.Overview("t1")
	assert.Equal(t, 3, o.TotalConversations)
	assert.Equal(t, 2, o.ConversationsToday)
	assert.Equal(t, 2, o.UniqueUsers)
	assert.InDelta(t, 200.0, o.AvgResponseTimeMs, 1e-9)
}

func TestOverviewEmptyTenant(t *testing.T) {
	a := NewAggregator()

	o := a.Overview("ghost")
	assert.Zero(t, o.TotalConversations)
	assert.Zero(t, o.UniqueUsers)
	assert.Zero(t, o.AvgResponseTimeMs)
}

func TestTopQuestionsGroupsVariants(t *testing.T) {
	a := NewAggregator()
	now := time.Now().UTC()

	a.Record(record("t1", "s1", "Quelle est votre politique de logement ?", now, 100))
	a.Record(record("t1", "s2", "quelle est votre politique de logement", now, 100))
	a.Record(record("t1", "s3", "QUELLE EST VOTRE POLITIQUE DE LOGEMENT!", now, 100))
	a.Record(record("t1", "s1", "Et les transports ?", now, 100))

	top := a.TopQuestions("t1", 10)
	require.Len(t, top, 2)
	assert.Equal(t, "Quelle est votre politique de logement ?", top[0].Question)
	assert.Equal(t, 3, top[0].Count)
	assert.Equal(t, "Et les transports ?", top[1].Question)
	assert.Equal(t, 1, top[1].Count)
}

func TestTopQuestionsLimit(t *testing.T) {
	a := NewAggregator()
	now := time.Now().UTC()

	a.Record(record("t1", "s1", "un", now, 100))
	a.Record(record("t1", "s1", "deux", now, 100))
	a.Record(record("t1", "s1", "trois", now, 100))

	assert.Len(t, a.TopQuestions("t1", 2), 2)
}

func TestHourlyActivity(t *testing.T) {
	a := NewAggregator()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	a.Record(record("t1", "s1", "q1", now.Add(-time.Hour), 100))          // 11h
	a.Record(record("t1", "s1", "q2", now.Add(-25*time.Hour), 100))      // 11h, yesterday
	a.Record(record("t1", "s1", "q3", now.Add(-8*24*time.Hour), 100))    // outside window
	a.Record(record("t1", "s2", "q4", now.Add(-30*time.Minute), 100))    // 11h

	activity := a.HourlyActivity("t1")
	require.Len(t, activity.Hours, 24)
	require.Len(t, activity.Counts, 24)

	total := 0
	for _, c := range activity.Counts {
		total += c
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, activity.Counts[11])
}

func TestRecentNewestFirst(t *testing.T) {
	a := NewAggregator()
	now := time.Now().UTC()

	a.Record(record("t1", "s1", "ancienne", now.Add(-time.Hour), 100))
	a.Record(record("t1", "s1", "récente", now, 100))

	entries := a.Recent("t1", 10)
	require.Len(t, entries, 2)
	assert.Equal(t, "récente", entries[0].Question)
	assert.Equal(t, "ancienne", entries[1].Question)

	assert.Len(t, a.Recent("t1", 1), 1)
}

func TestExportCSV(t *testing.T) {
	a := NewAggregator()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	rec := record("t1", "s1", `question avec "guillemets", virgule`, now, 150)
	rec.Cached = true
	a.Record(rec)

	var buf bytes.Buffer
	require.NoError(t, a.ExportCSV("t1", &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"date", "question", "answer", "cached", "response_time_ms"}, rows[0])
	assert.Equal(t, `question avec "guillemets", virgule`, rows[1][1])
	assert.Equal(t, "true", rows[1][3])
	assert.Equal(t, "150", rows[1][4])
}
