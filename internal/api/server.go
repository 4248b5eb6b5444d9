package api

import (
	"context"
	"net/http"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/personalize"
	"github.com/marketpulse/campaignhub/internal/seed"
	"github.com/marketpulse/campaignhub/internal/service/abtest"
	"github.com/marketpulse/campaignhub/internal/service/campaign"
	"github.com/marketpulse/campaignhub/internal/service/customer"
	"github.com/marketpulse/campaignhub/internal/service/dispatch"
)

// ChatAssistant answers free-text questions with analytics context.
type ChatAssistant interface {
	Ask(ctx context.Context, userID, prompt string) (string, error)
}

// AnalyticsSource serves the cached business summary.
type AnalyticsSource interface {
	Summary(ctx context.Context, userID string) (*domain.Snapshot, error)
}

// DeliveryLogSource reads delivery history for a campaign.
type DeliveryLogSource interface {
	ListByCampaign(ctx context.Context, userID, campaignID string, limit int) ([]domain.DeliveryLog, error)
}

// Handlers carries the service dependencies of every HTTP handler.
type Handlers struct {
	Customers  *customer.Service
	Campaigns  *campaign.Service
	ABTests    *abtest.Service
	Dispatcher *dispatch.Service
	Analytics  AnalyticsSource
	Chat       ChatAssistant
	Seeder     *seed.Seeder
	Logs       DeliveryLogSource
	Preview    *personalize.PreviewEngine
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
