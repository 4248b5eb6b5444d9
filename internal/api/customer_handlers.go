package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marketpulse/campaignhub/internal/auth"
	"github.com/marketpulse/campaignhub/internal/pkg/httputil"
	"github.com/marketpulse/campaignhub/internal/service/customer"
)

func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	q := r.URL.Query()

	f := customer.ListFilter{
		Search:  q.Get("search"),
		Country: q.Get("country"),
	}
	if v := q.Get("opt_out"); v != "" {
		b := v == "true"
		f.OptOut = &b
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	customers, total, err := h.Customers.List(r.Context(), userID, f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"customers": customers,
		"total":     total,
	})
}

func (h *Handlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	c, err := h.Customers.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

func (h *Handlers) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var input customer.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	c, err := h.Customers.Create(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, c)
}

type customerUpdateRequest struct {
	FullName          *string  `json:"full_name"`
	Email             *string  `json:"email"`
	Phone             *string  `json:"phone"`
	Company           *string  `json:"company"`
	Location          *string  `json:"location"`
	Country           *string  `json:"country"`
	City              *string  `json:"city"`
	Income            *float64 `json:"income"`
	TotalSpent        *float64 `json:"total_spent"`
	TotalPurchases    *int     `json:"total_purchases"`
	CampaignsAccepted *int     `json:"campaigns_accepted"`
	Complained        *bool    `json:"complained"`
}

func (h *Handlers) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req customerUpdateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	err := h.Customers.Update(r.Context(), userID, chi.URLParam(r, "id"), customer.UpdateFields{
		FullName:          req.FullName,
		Email:             req.Email,
		Phone:             req.Phone,
		Company:           req.Company,
		Location:          req.Location,
		Country:           req.Country,
		City:              req.City,
		Income:            req.Income,
		TotalSpent:        req.TotalSpent,
		TotalPurchases:    req.TotalPurchases,
		CampaignsAccepted: req.CampaignsAccepted,
		Complained:        req.Complained,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "updated"})
}

func (h *Handlers) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if err := h.Customers.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) OptOutCustomer(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if err := h.Customers.OptOut(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "opted_out"})
}
