package service

import (
	"sync"
	"time"

	"github.com/eluia/eluia-api/internal/model"
	"github.com/eluia/eluia-api/pkg/metrics"
)

// DefaultDailyBudgetUSD is the per-tenant daily spend ceiling.
const DefaultDailyBudgetUSD = 10.0

// modelPricing is USD per 1M tokens.
type modelPricing struct {
	input  float64
	output float64
}

var pricing = map[string]modelPricing{
	"claude-3-haiku-20240307":   {input: 0.25, output: 1.25},
	"claude-3-5-haiku-20241022": {input: 1.00, output: 5.00},
	"gpt-4o-mini":               {input: 0.15, output: 0.60},
	"gpt-3.5-turbo":             {input: 0.50, output: 1.50},
}

// GenerationCost computes the USD cost of one model call. Unknown models
// cost nothing rather than blocking service.
func GenerationCost(modelName string, tokensIn, tokensOut int) float64 {
	p, ok := pricing[modelName]
	if !ok {
		return 0
	}
	return float64(tokensIn)/1_000_000*p.input + float64(tokensOut)/1_000_000*p.output
}

// CostMonitor enforces the per-tenant daily spend ceiling on generation
// calls. Ledgers are keyed by (tenant, UTC day); a new day starts a fresh
// ledger.
type CostMonitor struct {
	limit float64

	mu    sync.Mutex
	spent map[string]float64

	now func() time.Time
}

// NewCostMonitor creates a monitor with the given daily ceiling in USD.
func NewCostMonitor(limitUSD float64) *CostMonitor {
	if limitUSD <= 0 {
		limitUSD = DefaultDailyBudgetUSD
	}
	return &CostMonitor{
		limit: limitUSD,
		spent: make(map[string]float64),
		now:   time.Now,
	}
}

func (m *CostMonitor) key(tenantID string) string {
	return tenantID + "|" + m.now().UTC().Format("2006-01-02")
}

// Reserve commits an estimated spend together with the decision to proceed,
// so a caller disconnecting mid-generation cannot leave the ledger
// inconsistent. Once the ledger is at or above the ceiling no further spend
// is allowed.
func (m *CostMonitor) Reserve(tenantID string, estimateUSD float64) error {
	key := m.key(tenantID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.spent[key] >= m.limit {
		return model.ErrBudgetExceeded
	}

	m.spent[key] += estimateUSD
	metrics.DailyCostUSD.WithLabelValues(tenantID).Set(m.spent[key])
	return nil
}

// Settle replaces a reservation's estimate with the actual cost of the
// call. The ledger never goes negative.
func (m *CostMonitor) Settle(tenantID string, estimateUSD, actualUSD float64) {
	key := m.key(tenantID)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.spent[key] += actualUSD - estimateUSD
	if m.spent[key] < 0 {
		m.spent[key] = 0
	}
	metrics.DailyCostUSD.WithLabelValues(tenantID).Set(m.spent[key])
}

// DailyCost returns the tenant's accumulated cost for the current UTC day.
func (m *CostMonitor) DailyCost(tenantID string) float64 {
	key := m.key(tenantID)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spent[key]
}

// Sweep drops ledgers from previous days.
func (m *CostMonitor) Sweep() int {
	today := "|" + m.now().UTC().Format("2006-01-02")

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key := range m.spent {
		if len(key) < len(today) || key[len(key)-len(today):] != today {
			delete(m.spent, key)
			removed++
		}
	}
	return removed
}
