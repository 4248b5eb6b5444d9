package customer

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/pkg/logger"
)

// Service implements customer store business logic.
type Service struct {
	repo Repository
}

// NewService creates a customer service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single customer.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Customer, error) {
	return s.repo.Get(ctx, userID, id)
}

// List returns customers matching the filter.
func (s *Service) List(ctx context.Context, userID string, f ListFilter) ([]domain.Customer, int, error) {
	return s.repo.List(ctx, userID, f)
}

// CreateInput holds the fields for creating a new customer.
type CreateInput struct {
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	Company           string  `json:"company"`
	Location          string  `json:"location"`
	Country           string  `json:"country"`
	City              string  `json:"city"`
	Income            float64 `json:"income"`
	TotalSpent        float64 `json:"total_spent"`
	TotalPurchases    int     `json:"total_purchases"`
	CampaignsAccepted int     `json:"campaigns_accepted"`
}

// Create validates and persists a new customer.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*domain.Customer, error) {
	if input.FullName == "" {
		return nil, ErrNameNeeded
	}
	if input.Email == "" && input.Phone == "" {
		return nil, ErrNoContact
	}

	c := &domain.Customer{
		ID:                uuid.New().String(),
		UserID:            userID,
		FullName:          input.FullName,
		Email:             input.Email,
		Phone:             input.Phone,
		Company:           input.Company,
		Location:          input.Location,
		Country:           input.Country,
		City:              input.City,
		Income:            input.Income,
		TotalSpent:        input.TotalSpent,
		TotalPurchases:    input.TotalPurchases,
		CampaignsAccepted: clampAccepted(input.CampaignsAccepted),
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

// Update modifies mutable customer fields.
func (s *Service) Update(ctx context.Context, userID, id string, u UpdateFields) error {
	if u.CampaignsAccepted != nil {
		clamped := clampAccepted(*u.CampaignsAccepted)
		u.CampaignsAccepted = &clamped
	}
	return s.repo.Update(ctx, userID, id, u)
}

// Delete removes a customer permanently (hard delete).
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// OptOut permanently excludes a customer from future sends. The flag is
// one-way: there is no service method to clear it.
func (s *Service) OptOut(ctx context.Context, userID, id string) error {
	if err := s.repo.SetOptOut(ctx, userID, id); err != nil {
		return err
	}
	logger.Info("customer opted out", "user_id", userID, "customer_id", id)
	return nil
}

// ListEligible returns the sendable pool: opt_out=false, capped at limit.
func (s *Service) ListEligible(ctx context.Context, userID string, limit int) ([]domain.Customer, error) {
	return s.repo.ListEligible(ctx, userID, limit)
}

func clampAccepted(n int) int {
	if n < 0 {
		return 0
	}
	if n > domain.MaxCampaignsAccepted {
		return domain.MaxCampaignsAccepted
	}
	return n
}
