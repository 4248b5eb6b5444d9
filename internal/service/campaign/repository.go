package campaign

import (
	"context"
	"time"

	"github.com/marketpulse/campaignhub/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, userID, id string) (*domain.Campaign, error)

	// List returns campaigns matching the filter, ordered by created_at DESC.
	List(ctx context.Context, userID string, filter ListFilter) ([]domain.Campaign, int, error)

	// Create inserts a new campaign and returns its ID.
	Create(ctx context.Context, c *domain.Campaign) (string, error)

	// Update modifies a campaign. Only non-nil fields in the update apply.
	Update(ctx context.Context, userID, id string, u UpdateFields) error

	// SetStatus records a status transition.
	SetStatus(ctx context.Context, userID, id string, status domain.CampaignStatus) error

	// Delete removes a campaign and, through cascade, its test and logs.
	Delete(ctx context.Context, userID, id string) error

	// AddSendStats adds delivery counters after a dispatch run.
	AddSendStats(ctx context.Context, userID, id string, sent, opened, clicked int) error
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status  domain.CampaignStatus
	Channel domain.Channel
	Limit   int
	Offset  int
}

// UpdateFields holds the mutable fields for a campaign update.
// Nil fields are not applied. Only draft campaigns accept template or
// channel changes.
type UpdateFields struct {
	Name        *string
	Template    *string
	AudienceTag *string
	Channel     *domain.Channel
	Schedule    *domain.ScheduleMode
	ScheduledAt *time.Time
}
