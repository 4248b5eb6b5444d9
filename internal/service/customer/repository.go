package customer

import (
	"context"

	"github.com/marketpulse/campaignhub/internal/domain"
)

// Repository defines the data access contract for customers.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single customer. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, userID, id string) (*domain.Customer, error)

	// List returns customers matching the filter, ordered by created_at DESC.
	List(ctx context.Context, userID string, filter ListFilter) ([]domain.Customer, int, error)

	// Create inserts a new customer and returns its ID.
	Create(ctx context.Context, c *domain.Customer) (string, error)

	// Update modifies a customer. Only non-nil fields in the update apply.
	Update(ctx context.Context, userID, id string, u UpdateFields) error

	// Delete removes a customer permanently. Delivery logs that reference
	// the customer keep a nulled reference.
	Delete(ctx context.Context, userID, id string) error

	// SetOptOut marks a customer as permanently opted out.
	SetOptOut(ctx context.Context, userID, id string) error

	// ListEligible returns customers with opt_out=false, capped at limit.
	ListEligible(ctx context.Context, userID string, limit int) ([]domain.Customer, error)
}

// ListFilter controls pagination and filtering for customer lists.
type ListFilter struct {
	Search  string // matches full_name or email, case-insensitive
	Country string
	OptOut  *bool
	Limit   int
	Offset  int
}

// UpdateFields holds the mutable fields for a customer update.
// Nil fields are not applied.
type UpdateFields struct {
	FullName          *string
	Email             *string
	Phone             *string
	Company           *string
	Location          *string
	Country           *string
	City              *string
	Income            *float64
	TotalSpent        *float64
	TotalPurchases    *int
	CampaignsAccepted *int
	Complained        *bool
}
