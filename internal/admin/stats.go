package admin

import (
	"net/http"
	"time"
)

// UsageEntry is one call in the recent-activity list.
type UsageEntry struct {
	Token     string    `json:"token"`
	Endpoint  string    `json:"endpoint"`
	Timestamp time.Time `json:"timestamp"`
}

// UsageStatsResponse is the response body for GET /auth/usage-stats
type UsageStatsResponse struct {
	TotalCalls      int64            `json:"total_calls"`
	UniqueTokens    int64            `json:"unique_tokens"`
	CallsByEndpoint map[string]int64 `json:"calls_by_endpoint"`
	RecentActivity  []UsageEntry     `json:"recent_activity"`
}

// HandleUsageStats returns aggregate usage statistics, computed fresh on
// every request.
// GET /auth/usage-stats
func (h *Handler) HandleUsageStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.storage.UsageSummary(r.Context())
	if err != nil {
		h.logger.Error("failed to compute usage summary", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to compute usage statistics")
		return
	}

	resp := UsageStatsResponse{
		TotalCalls:      summary.TotalCalls,
		UniqueTokens:    summary.UniqueTokens,
		CallsByEndpoint: summary.CallsByEndpoint,
		RecentActivity:  make([]UsageEntry, 0, len(summary.RecentActivity)),
	}
	if resp.CallsByEndpoint == nil {
		resp.CallsByEndpoint = map[string]int64{}
	}
	for _, rec := range summary.RecentActivity {
		resp.RecentActivity = append(resp.RecentActivity, UsageEntry{
			Token:     rec.Token,
			Endpoint:  rec.Endpoint,
			Timestamp: rec.Timestamp,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
