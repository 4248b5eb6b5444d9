package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketpulse/campaignhub/internal/auth"
	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/pkg/httputil"
	"github.com/marketpulse/campaignhub/internal/service/campaign"
	"github.com/marketpulse/campaignhub/internal/service/dispatch"
)

func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	q := r.URL.Query()

	f := campaign.ListFilter{
		Status:  domain.CampaignStatus(q.Get("status")),
		Channel: domain.Channel(q.Get("channel")),
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	campaigns, total, err := h.Campaigns.List(r.Context(), userID, f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"campaigns": campaigns,
		"total":     total,
	})
}

func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	c, err := h.Campaigns.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var input campaign.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	c, err := h.Campaigns.Create(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, c)
}

type campaignUpdateRequest struct {
	Name        *string              `json:"name"`
	Template    *string              `json:"template"`
	AudienceTag *string              `json:"audience_tag"`
	Channel     *domain.Channel      `json:"channel"`
	Schedule    *domain.ScheduleMode `json:"schedule_mode"`
	ScheduledAt *time.Time           `json:"scheduled_at"`
}

func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req campaignUpdateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	err := h.Campaigns.Update(r.Context(), userID, chi.URLParam(r, "id"), campaign.UpdateFields{
		Name:        req.Name,
		Template:    req.Template,
		AudienceTag: req.AudienceTag,
		Channel:     req.Channel,
		Schedule:    req.Schedule,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "updated"})
}

func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if err := h.Campaigns.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) UpdateCampaignStatus(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		Status domain.CampaignStatus `json:"status"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := h.Campaigns.SetStatus(r.Context(), userID, chi.URLParam(r, "id"), req.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": string(req.Status)})
}

// DispatchCampaign sends the campaign's template to the requested
// customers (or the whole eligible pool) and folds the tally back into
// the campaign counters.
func (h *Handlers) DispatchCampaign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	campaignID := chi.URLParam(r, "id")

	c, err := h.Campaigns.Get(r.Context(), userID, campaignID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if c.Status != domain.CampaignActive {
		httputil.BadRequest(w, "campaign must be active to dispatch")
		return
	}

	var req struct {
		CustomerIDs []string `json:"customer_ids"`
		Subject     string   `json:"subject"`
	}
	// body is optional; empty body targets the whole eligible pool
	if r.ContentLength > 0 && !httputil.Decode(w, r, &req) {
		return
	}

	res, err := h.Dispatcher.Send(r.Context(), userID, dispatch.Input{
		Channel:     c.Channel,
		Template:    c.Template,
		Subject:     req.Subject,
		CustomerIDs: req.CustomerIDs,
		CampaignID:  &campaignID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.Campaigns.RecordDispatch(r.Context(), userID, campaignID, res.Sent, 0, 0); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

func (h *Handlers) ListCampaignLogs(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.Logs.ListByCampaign(r.Context(), userID, chi.URLParam(r, "id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"logs": logs})
}
