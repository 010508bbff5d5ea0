package model

import (
	"time"
)

// ChatRecord is one recorded question/answer pair. Immutable once recorded;
// it is the analytics source of truth and what gets published to the durable
// chat log.
type ChatRecord struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	SessionHash string    `json:"session_hash"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Cached      bool      `json:"cached"`
	LatencyMs   int64     `json:"latency_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatRequest is the payload for a citizen question.
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse is what the public chat widget receives.
type ChatResponse struct {
	Answer            string `json:"answer"`
	Cached            bool   `json:"cached"`
	RemainingMessages int    `json:"remaining_messages"`
	BudgetExhausted   bool   `json:"budget_exhausted,omitempty"`
}
