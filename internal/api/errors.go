package api

import (
	"errors"
	"net/http"

	"github.com/marketpulse/campaignhub/internal/pkg/httputil"
	"github.com/marketpulse/campaignhub/internal/service/abtest"
	"github.com/marketpulse/campaignhub/internal/service/campaign"
	"github.com/marketpulse/campaignhub/internal/service/customer"
	"github.com/marketpulse/campaignhub/internal/service/dispatch"
)

var notFoundErrors = []error{
	customer.ErrNotFound,
	campaign.ErrNotFound,
	abtest.ErrNotFound,
}

var validationErrors = []error{
	customer.ErrNameNeeded,
	customer.ErrNoContact,
	campaign.ErrNameNeeded,
	campaign.ErrTemplateNeeded,
	campaign.ErrBadChannel,
	campaign.ErrBadTransition,
	campaign.ErrScheduleInPast,
	campaign.ErrScheduleTimeNeeded,
	abtest.ErrNameNeeded,
	abtest.ErrTooFewVariations,
	abtest.ErrDuplicateVariation,
	abtest.ErrVariationTemplate,
	abtest.ErrCampaignHasTest,
	abtest.ErrAlreadyStarted,
	abtest.ErrNotRunning,
	abtest.ErrNoEligibleCustomers,
	dispatch.ErrBadChannel,
	dispatch.ErrNoTemplate,
	dispatch.ErrNoAudience,
}

// writeServiceError maps service sentinels onto HTTP statuses: unknown
// resources are 404, rejected input is 400, everything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			httputil.NotFound(w, err.Error())
			return
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			httputil.BadRequest(w, err.Error())
			return
		}
	}
	httputil.InternalError(w, err)
}
