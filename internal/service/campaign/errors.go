package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound          = errors.New("campaign not found")
	ErrNameNeeded        = errors.New("name is required")
	ErrTemplateNeeded    = errors.New("template is required")
	ErrBadChannel        = errors.New("channel must be whatsapp or email")
	ErrBadTransition     = errors.New("status transition not allowed")
	ErrScheduleInPast    = errors.New("scheduled_at must be in the future")
	ErrScheduleTimeNeeded = errors.New("scheduled_at is required for scheduled campaigns")
)
