package domain

import "time"

// SnapshotVersion identifies the Snapshot wire layout. Bump it whenever the
// struct changes so stale cache entries are never decoded into a newer shape.
const SnapshotVersion = 1

// SentimentMix buckets customers by inferred sentiment.
type SentimentMix struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Snapshot is the computed analytics summary for one user. It is the typed,
// versioned payload stored in the analytics cache.
type Snapshot struct {
	Version int `json:"version"`

	TotalCustomers int     `json:"total_customers"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalCost      float64 `json:"total_cost"`
	ROI            float64 `json:"roi"`
	AvgCTR         float64 `json:"avg_ctr"`

	Sentiment SentimentMix `json:"sentiment"`

	ComputedAt time.Time `json:"computed_at"`
}
