package api

import (
	"net/http"

	"github.com/marketpulse/campaignhub/internal/auth"
	"github.com/marketpulse/campaignhub/internal/pkg/httputil"
	"github.com/marketpulse/campaignhub/internal/service/dispatch"
)

// SendMessages runs an ad-hoc dispatch without a campaign.
func (h *Handlers) SendMessages(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var input dispatch.Input
	if !httputil.Decode(w, r, &input) {
		return
	}
	res, err := h.Dispatcher.Send(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

func (h *Handlers) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	snap, err := h.Analytics.Summary(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, snap)
}

// ChatMessage forwards a prompt to the LLM collaborator. Upstream model
// failures surface as 502 so the UI can distinguish them from our own
// errors.
func (h *Handlers) ChatMessage(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		Message string `json:"message"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		httputil.BadRequest(w, "message is required")
		return
	}

	reply, err := h.Chat.Ask(r.Context(), userID, req.Message)
	if err != nil {
		httputil.BadGateway(w, "assistant unavailable")
		return
	}
	httputil.OK(w, map[string]string{"reply": reply})
}

func (h *Handlers) SeedCustomers(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		Count int `json:"count"`
	}
	if r.ContentLength > 0 && !httputil.Decode(w, r, &req) {
		return
	}

	n, err := h.Seeder.Run(r.Context(), userID, req.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, map[string]int{"created": n})
}

// PreviewTemplate renders a template with caller-supplied bindings using
// the full template engine, for the campaign editor's preview pane.
func (h *Handlers) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Template string                 `json:"template"`
		Bindings map[string]interface{} `json:"bindings"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Template == "" {
		httputil.BadRequest(w, "template is required")
		return
	}

	rendered, err := h.Preview.Preview(req.Template, req.Bindings)
	if err != nil {
		httputil.BadRequest(w, "template error: "+err.Error())
		return
	}
	httputil.OK(w, map[string]string{"rendered": rendered})
}
