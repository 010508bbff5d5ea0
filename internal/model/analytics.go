package model

// AnalyticsOverview is the tenant dashboard summary.
type AnalyticsOverview struct {
	TotalConversations int     `json:"total_conversations"`
	ConversationsToday int     `json:"conversations_today"`
	UniqueUsers        int     `json:"unique_users"`
	AvgResponseTimeMs  float64 `json:"avg_response_time_ms"`
	DailyCostUSD       float64 `json:"daily_cost_usd"`
}

// TopQuestion is one entry of the top-questions ranking. Count groups
// materially identical questions by their normalized form.
type TopQuestion struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// HourlyActivity is a 24-bucket histogram over a trailing 7-day window.
type HourlyActivity struct {
	Hours  []int `json:"hours"`
	Counts []int `json:"counts"`
}

// ConversationEntry is one row of the raw recent Q&A log.
type ConversationEntry struct {
	ID             string `json:"id"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	Cached         bool   `json:"cached"`
	CreatedAt      string `json:"created_at"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}
