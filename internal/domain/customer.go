package domain

import "time"

// MaxCampaignsAccepted bounds the engagement counter on a customer record.
const MaxCampaignsAccepted = 5

// Customer represents a single contact with identity, financial profile,
// and engagement counters. All customers are scoped to the owning user.
type Customer struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	FullName string `json:"full_name" db:"full_name"`
	Email    string `json:"email" db:"email"`
	Phone    string `json:"phone" db:"phone"`
	Company  string `json:"company" db:"company"`
	Location string `json:"location" db:"location"`
	Country  string `json:"country" db:"country"`
	City     string `json:"city" db:"city"`

	Income         float64 `json:"income" db:"income"`
	TotalSpent     float64 `json:"total_spent" db:"total_spent"`
	TotalPurchases int     `json:"total_purchases" db:"total_purchases"`

	// CampaignsAccepted counts distinct campaigns this customer engaged
	// with, clamped to 0..MaxCampaignsAccepted.
	CampaignsAccepted int `json:"campaigns_accepted" db:"campaigns_accepted"`

	// OptOut is permanent: once set, the customer is excluded from every
	// future send and assignment.
	OptOut     bool `json:"opt_out" db:"opt_out"`
	Complained bool `json:"complained" db:"complained"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Eligible reports whether the customer may receive messages.
func (c *Customer) Eligible() bool {
	return !c.OptOut
}

// DisplayName returns the name used in personalized messages, falling back
// to a neutral greeting when the record has no name.
func (c *Customer) DisplayName() string {
	if c.FullName == "" {
		return "Valued Customer"
	}
	return c.FullName
}
