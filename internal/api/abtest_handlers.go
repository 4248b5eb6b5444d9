package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marketpulse/campaignhub/internal/auth"
	"github.com/marketpulse/campaignhub/internal/pkg/httputil"
	"github.com/marketpulse/campaignhub/internal/service/abtest"
)

func (h *Handlers) ListABTests(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tests, total, err := h.ABTests.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"tests": tests,
		"total": total,
	})
}

func (h *Handlers) GetABTest(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	t, variations, err := h.ABTests.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"test":       t,
		"variations": variations,
	})
}

func (h *Handlers) CreateABTest(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var input abtest.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	t, err := h.ABTests.Create(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, t)
}

func (h *Handlers) DeleteABTest(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if err := h.ABTests.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) StartABTest(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	t, variations, err := h.ABTests.Start(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"test":       t,
		"variations": variations,
	})
}

func (h *Handlers) StopABTest(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if err := h.ABTests.Stop(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "completed"})
}

func (h *Handlers) ABTestResults(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	view, err := h.ABTests.Results(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, view)
}
