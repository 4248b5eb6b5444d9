package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/pkg/logger"
)

// Service implements campaign business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, userID, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, userID string, f ListFilter) ([]domain.Campaign, int, error) {
	return s.repo.List(ctx, userID, f)
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name        string              `json:"name"`
	Channel     domain.Channel      `json:"channel"`
	Template    string              `json:"template"`
	AudienceTag string              `json:"audience_tag"`
	Schedule    domain.ScheduleMode `json:"schedule_mode"`
	ScheduledAt *time.Time          `json:"scheduled_at"`
}

// Create validates and persists a new campaign in draft status.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*domain.Campaign, error) {
	if input.Name == "" {
		return nil, ErrNameNeeded
	}
	if input.Template == "" {
		return nil, ErrTemplateNeeded
	}
	if !input.Channel.Valid() {
		return nil, ErrBadChannel
	}
	if input.Schedule == "" {
		input.Schedule = domain.ScheduleImmediate
	}
	if input.Schedule == domain.ScheduleScheduled {
		if input.ScheduledAt == nil {
			return nil, ErrScheduleTimeNeeded
		}
		if input.ScheduledAt.Before(s.now()) {
			return nil, ErrScheduleInPast
		}
	}

	c := &domain.Campaign{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        input.Name,
		Channel:     input.Channel,
		Template:    input.Template,
		AudienceTag: input.AudienceTag,
		Schedule:    input.Schedule,
		ScheduledAt: input.ScheduledAt,
		Status:      domain.CampaignDraft,
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

// Update modifies mutable campaign fields.
func (s *Service) Update(ctx context.Context, userID, id string, u UpdateFields) error {
	if u.Channel != nil && !u.Channel.Valid() {
		return ErrBadChannel
	}
	if u.Template != nil && *u.Template == "" {
		return ErrTemplateNeeded
	}
	return s.repo.Update(ctx, userID, id, u)
}

// SetStatus applies a lifecycle transition. Allowed moves are draft to
// active, active to paused or completed, and paused to active or
// completed. Anything else is rejected.
func (s *Service) SetStatus(ctx context.Context, userID, id string, next domain.CampaignStatus) error {
	c, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if !c.CanTransitionTo(next) {
		return ErrBadTransition
	}
	if err := s.repo.SetStatus(ctx, userID, id, next); err != nil {
		return err
	}
	logger.Info("campaign status changed",
		"user_id", userID, "campaign_id", id,
		"from", string(c.Status), "to", string(next))
	return nil
}

// Delete removes a campaign along with its A/B test and delivery logs.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// RecordDispatch folds a dispatch run's counters into the campaign.
func (s *Service) RecordDispatch(ctx context.Context, userID, id string, sent, opened, clicked int) error {
	return s.repo.AddSendStats(ctx, userID, id, sent, opened, clicked)
}
