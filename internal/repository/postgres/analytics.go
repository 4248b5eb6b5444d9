package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/marketpulse/campaignhub/internal/service/analytics"
)

// AnalyticsRepo computes the raw aggregates behind the business summary.
type AnalyticsRepo struct{ db *sql.DB }

// NewAnalyticsRepo creates a Postgres-backed analytics repository.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

// Aggregates runs the summary queries for one user. Sentiment bands are
// derived in SQL: complained customers are negative, customers who
// accepted three or more campaigns are positive, the rest neutral.
func (r *AnalyticsRepo) Aggregates(ctx context.Context, userID string) (*analytics.Aggregates, error) {
	agg := &analytics.Aggregates{}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_spent), 0),
		       COUNT(*) FILTER (WHERE NOT complained AND campaigns_accepted >= 3),
		       COUNT(*) FILTER (WHERE NOT complained AND campaigns_accepted < 3),
		       COUNT(*) FILTER (WHERE complained)
		FROM customers
		WHERE user_id = $1
	`, userID).Scan(&agg.TotalCustomers, &agg.TotalRevenue, &agg.Positive, &agg.Neutral, &agg.Negative)
	if err != nil {
		return nil, fmt.Errorf("customer aggregates: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(sent_count), 0),
		       COALESCE(SUM(CASE WHEN sent_count > 0
		                         THEN clicked_count::float / sent_count * 100
		                         ELSE 0 END), 0),
		       COUNT(*) FILTER (WHERE sent_count > 0)
		FROM campaigns
		WHERE user_id = $1
	`, userID).Scan(&agg.TotalSent, &agg.SumCTR, &agg.CampaignsWithSends)
	if err == sql.ErrNoRows {
		return agg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("campaign aggregates: %w", err)
	}
	return agg, nil
}
