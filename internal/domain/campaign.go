package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// ScheduleMode determines when a campaign's messages go out.
type ScheduleMode string

const (
	ScheduleImmediate ScheduleMode = "immediate"
	ScheduleScheduled ScheduleMode = "scheduled"
)

// Channel identifies a delivery transport.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// Valid reports whether the channel is one the dispatcher knows.
func (ch Channel) Valid() bool {
	return ch == ChannelWhatsApp || ch == ChannelEmail
}

// Campaign is a named message template bound to a target audience and a
// schedule. A campaign owns zero or more delivery logs and at most one
// A/B test.
type Campaign struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	Name        string       `json:"name" db:"name"`
	Channel     Channel      `json:"channel" db:"channel"`
	Template    string       `json:"template" db:"template"`
	AudienceTag string       `json:"audience_tag" db:"audience_tag"`
	Schedule    ScheduleMode `json:"schedule_mode" db:"schedule_mode"`
	ScheduledAt *time.Time   `json:"scheduled_at" db:"scheduled_at"`

	Status CampaignStatus `json:"status" db:"status"`

	// Aggregate counters, maintained by the dispatcher.
	SentCount    int `json:"sent_count" db:"sent_count"`
	OpenedCount  int `json:"opened_count" db:"opened_count"`
	ClickedCount int `json:"clicked_count" db:"clicked_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CanTransitionTo reports whether the status change is allowed.
func (c *Campaign) CanTransitionTo(next CampaignStatus) bool {
	switch c.Status {
	case CampaignDraft:
		return next == CampaignActive
	case CampaignActive:
		return next == CampaignPaused || next == CampaignCompleted
	case CampaignPaused:
		return next == CampaignActive || next == CampaignCompleted
	default:
		return false
	}
}

// CTR returns the campaign click-through rate as a percentage.
func (c *Campaign) CTR() float64 {
	if c.SentCount == 0 {
		return 0
	}
	return float64(c.ClickedCount) / float64(c.SentCount) * 100
}
