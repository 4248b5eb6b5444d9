package domain

import "time"

// DeliveryStatus enumerates the outcome of one send attempt.
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliveryPending DeliveryStatus = "pending"
	DeliveryOptOut  DeliveryStatus = "opt_out"
)

// DeliveryLog is an append-only record of one send attempt. CustomerID is
// nullable so logs survive a customer hard-delete as historical records.
type DeliveryLog struct {
	ID         string  `json:"id" db:"id"`
	UserID     string  `json:"user_id" db:"user_id"`
	CampaignID *string `json:"campaign_id" db:"campaign_id"`
	CustomerID *string `json:"customer_id" db:"customer_id"`

	Channel   Channel        `json:"channel" db:"channel"`
	Recipient string         `json:"recipient" db:"recipient"`
	Message   string         `json:"message" db:"message"`
	Status    DeliveryStatus `json:"status" db:"status"`

	ErrorMessage      string `json:"error_message,omitempty" db:"error_message"`
	ProviderMessageID string `json:"provider_message_id,omitempty" db:"provider_message_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
