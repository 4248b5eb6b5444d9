package domain

import "time"

// ABTestStatus enumerates the lifecycle states of an A/B test.
type ABTestStatus string

const (
	ABTestDraft     ABTestStatus = "draft"
	ABTestRunning   ABTestStatus = "running"
	ABTestStopped   ABTestStatus = "stopped"
	ABTestCompleted ABTestStatus = "completed"
)

// ABTest belongs to exactly one campaign and compares two or more message
// variations against each other.
type ABTest struct {
	ID         string `json:"id" db:"id"`
	UserID     string `json:"user_id" db:"user_id"`
	CampaignID string `json:"campaign_id" db:"campaign_id"`
	Name       string `json:"name" db:"name"`

	// TrafficSplit is the advertised percentage split. It is informational
	// only; assignment partitions the pool evenly regardless.
	TrafficSplit int `json:"traffic_split" db:"traffic_split"`

	Status ABTestStatus `json:"status" db:"status"`

	WinnerVariationID *string `json:"winner_variation_id" db:"winner_variation_id"`

	// ConfidenceLevel is 0-100, derived from the CTR gap between the top
	// two variations. It is not a real statistical test.
	ConfidenceLevel *float64 `json:"confidence_level" db:"confidence_level"`

	StartedAt   *time.Time `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// ABVariation holds one candidate message within a test, plus its
// accumulated metrics. Variation names are unique within a test.
type ABVariation struct {
	ID     string `json:"id" db:"id"`
	TestID string `json:"test_id" db:"test_id"`

	Name     string `json:"variation_name" db:"variation_name"`
	Template string `json:"template" db:"template"`

	AudienceCount   int `json:"audience_count" db:"audience_count"`
	SentCount       int `json:"sent_count" db:"sent_count"`
	OpenedCount     int `json:"opened_count" db:"opened_count"`
	ClickedCount    int `json:"clicked_count" db:"clicked_count"`
	ConversionCount int `json:"conversion_count" db:"conversion_count"`

	CTR            float64 `json:"ctr" db:"ctr"`
	ConversionRate float64 `json:"conversion_rate" db:"conversion_rate"`
}

// RecalcRates derives CTR and conversion rate from the raw counters.
func (v *ABVariation) RecalcRates() {
	if v.SentCount > 0 {
		v.CTR = float64(v.ClickedCount) / float64(v.SentCount) * 100
		v.ConversionRate = float64(v.ConversionCount) / float64(v.SentCount) * 100
	} else {
		v.CTR = 0
		v.ConversionRate = 0
	}
}

// ABResult links one customer to exactly one variation within one test and
// records funnel progression. The flags are strictly nested: clicked implies
// opened implies message_sent, and converted implies clicked.
type ABResult struct {
	ID          string `json:"id" db:"id"`
	TestID      string `json:"test_id" db:"test_id"`
	VariationID string `json:"variation_id" db:"variation_id"`
	CustomerID  string `json:"customer_id" db:"customer_id"`

	MessageSent bool       `json:"message_sent" db:"message_sent"`
	SentAt      *time.Time `json:"sent_at" db:"sent_at"`
	Opened      bool       `json:"opened" db:"opened"`
	OpenedAt    *time.Time `json:"opened_at" db:"opened_at"`
	Clicked     bool       `json:"clicked" db:"clicked"`
	ClickedAt   *time.Time `json:"clicked_at" db:"clicked_at"`
	Converted   bool       `json:"converted" db:"converted"`
	ConvertedAt *time.Time `json:"converted_at" db:"converted_at"`
	Replied     bool       `json:"replied" db:"replied"`
	RepliedAt   *time.Time `json:"replied_at" db:"replied_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
