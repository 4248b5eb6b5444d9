package abtest

import (
	"context"
	"time"

	"github.com/marketpulse/campaignhub/internal/domain"
)

// Repository defines the data access contract for A/B tests.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a test with its variations loaded. Returns ErrNotFound
	// if it doesn't exist.
	Get(ctx context.Context, userID, id string) (*domain.ABTest, []domain.ABVariation, error)

	// GetByCampaign returns the test owned by a campaign, or ErrNotFound.
	GetByCampaign(ctx context.Context, userID, campaignID string) (*domain.ABTest, error)

	// List returns tests ordered by created_at DESC.
	List(ctx context.Context, userID string, limit, offset int) ([]domain.ABTest, int, error)

	// Create inserts a test and its variations and returns the test ID.
	Create(ctx context.Context, t *domain.ABTest, variations []domain.ABVariation) (string, error)

	// SaveAssignment persists a completed assignment run atomically:
	// all result rows, all variation aggregates, and the test's new
	// status, winner, and confidence commit together or not at all.
	SaveAssignment(ctx context.Context, userID string, run *AssignmentRun) error

	// MarkStopped moves a running test to stopped.
	MarkStopped(ctx context.Context, userID, id string, stoppedAt time.Time) error

	// Results returns the per-customer assignment rows for a test.
	Results(ctx context.Context, userID, testID string) ([]domain.ABResult, error)

	// Delete removes a test, its variations, and its results.
	Delete(ctx context.Context, userID, id string) error
}

// AssignmentRun is the output of one assignment pass, persisted as a unit.
type AssignmentRun struct {
	Test       *domain.ABTest
	Variations []domain.ABVariation
	Results    []domain.ABResult
}

// CustomerSource supplies the eligible audience for assignment.
type CustomerSource interface {
	ListEligible(ctx context.Context, userID string, limit int) ([]domain.Customer, error)
}

// CampaignSource resolves the campaign a test belongs to.
type CampaignSource interface {
	Get(ctx context.Context, userID, id string) (*domain.Campaign, error)
}
