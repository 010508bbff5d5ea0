package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eluia/eluia-api/internal/middleware"
	"github.com/eluia/eluia-api/internal/service"
	"github.com/eluia/eluia-api/pkg/logger"
)

// AnalyticsHandler serves the candidate dashboard analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.Aggregator
	costs     *service.CostMonitor
	logger    *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *service.Aggregator, costs *service.CostMonitor, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		costs:     costs,
		logger:    log,
	}
}

// Overview handles GET /api/analytics/overview
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	overview := h.analytics.Overview(tenantID)
	overview.DailyCostUSD = h.costs.DailyCost(tenantID)

	writeJSON(w, http.StatusOK, overview)
}

// TopQuestions handles GET /api/analytics/top-questions
func (h *AnalyticsHandler) TopQuestions(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": h.analytics.TopQuestions(middleware.GetTenantID(r.Context()), limit),
	})
}

// HourlyActivity handles GET /api/analytics/hourly-activity
func (h *AnalyticsHandler) HourlyActivity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.analytics.HourlyActivity(middleware.GetTenantID(r.Context())))
}

// Conversations handles GET /api/analytics/conversations
func (h *AnalyticsHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": h.analytics.Recent(middleware.GetTenantID(r.Context()), limit),
	})
}

// ExportCSV handles GET /api/analytics/export-csv
func (h *AnalyticsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	filename := fmt.Sprintf("conversations_%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.analytics.ExportCSV(tenantID, w); err != nil {
		h.logger.WithTenant(tenantID).Error("csv export failed", zap.Error(err))
	}
}
