package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/service/abtest"
)

// ABTestRepo implements abtest.Repository against PostgreSQL.
type ABTestRepo struct{ db *sql.DB }

// NewABTestRepo creates a Postgres-backed A/B test repository.
func NewABTestRepo(db *sql.DB) *ABTestRepo { return &ABTestRepo{db: db} }

const abTestCols = `id, user_id, campaign_id, name, traffic_split, status,
	       winner_variation_id, confidence_level, started_at, completed_at, created_at`

func scanABTest(row interface{ Scan(...interface{}) error }, t *domain.ABTest) error {
	return row.Scan(
		&t.ID, &t.UserID, &t.CampaignID, &t.Name, &t.TrafficSplit, &t.Status,
		&t.WinnerVariationID, &t.ConfidenceLevel, &t.StartedAt, &t.CompletedAt, &t.CreatedAt,
	)
}

func (r *ABTestRepo) Get(ctx context.Context, userID, id string) (*domain.ABTest, []domain.ABVariation, error) {
	t := &domain.ABTest{}
	err := scanABTest(r.db.QueryRowContext(ctx, `
		SELECT `+abTestCols+`
		FROM ab_tests
		WHERE id = $1 AND user_id = $2
	`, id, userID), t)
	if err == sql.ErrNoRows {
		return nil, nil, abtest.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get ab test: %w", err)
	}

	variations, err := r.variations(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return t, variations, nil
}

func (r *ABTestRepo) variations(ctx context.Context, testID string) ([]domain.ABVariation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, test_id, variation_name, template,
		       audience_count, sent_count, opened_count, clicked_count,
		       conversion_count, ctr, conversion_rate
		FROM ab_test_variations
		WHERE test_id = $1
		ORDER BY variation_name
	`, testID)
	if err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	defer rows.Close()

	var out []domain.ABVariation
	for rows.Next() {
		var v domain.ABVariation
		if err := rows.Scan(
			&v.ID, &v.TestID, &v.Name, &v.Template,
			&v.AudienceCount, &v.SentCount, &v.OpenedCount, &v.ClickedCount,
			&v.ConversionCount, &v.CTR, &v.ConversionRate,
		); err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *ABTestRepo) GetByCampaign(ctx context.Context, userID, campaignID string) (*domain.ABTest, error) {
	t := &domain.ABTest{}
	err := scanABTest(r.db.QueryRowContext(ctx, `
		SELECT `+abTestCols+`
		FROM ab_tests
		WHERE campaign_id = $1 AND user_id = $2
	`, campaignID, userID), t)
	if err == sql.ErrNoRows {
		return nil, abtest.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ab test by campaign: %w", err)
	}
	return t, nil
}

func (r *ABTestRepo) List(ctx context.Context, userID string, limit, offset int) ([]domain.ABTest, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ab_tests WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ab tests: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+abTestCols+`
		FROM ab_tests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ab tests: %w", err)
	}
	defer rows.Close()

	var out []domain.ABTest
	for rows.Next() {
		var t domain.ABTest
		if err := scanABTest(rows, &t); err != nil {
			return nil, 0, fmt.Errorf("scan ab test: %w", err)
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *ABTestRepo) Create(ctx context.Context, t *domain.ABTest, variations []domain.ABVariation) (string, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin create ab test: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ab_tests (id, user_id, campaign_id, name, traffic_split, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, t.ID, t.UserID, t.CampaignID, t.Name, t.TrafficSplit, t.Status)
	if err != nil {
		return "", fmt.Errorf("create ab test: %w", err)
	}

	for i := range variations {
		v := &variations[i]
		if v.ID == "" {
			v.ID = uuid.New().String()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ab_test_variations (id, test_id, variation_name, template)
			VALUES ($1, $2, $3, $4)
		`, v.ID, t.ID, v.Name, v.Template)
		if err != nil {
			return "", fmt.Errorf("create variation %s: %w", v.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit create ab test: %w", err)
	}
	return t.ID, nil
}

// SaveAssignment persists one assignment run atomically. Result rows,
// variation aggregates, and the test's status, winner, and confidence all
// commit in a single transaction.
func (r *ABTestRepo) SaveAssignment(ctx context.Context, userID string, run *abtest.AssignmentRun) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment: %w", err)
	}
	defer tx.Rollback()

	t := run.Test
	res, err := tx.ExecContext(ctx, `
		UPDATE ab_tests
		SET status = $1, winner_variation_id = $2, confidence_level = $3, started_at = $4
		WHERE id = $5 AND user_id = $6
	`, t.Status, t.WinnerVariationID, t.ConfidenceLevel, t.StartedAt, t.ID, userID)
	if err != nil {
		return fmt.Errorf("update ab test: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return abtest.ErrNotFound
	}

	for i := range run.Variations {
		v := &run.Variations[i]
		_, err = tx.ExecContext(ctx, `
			UPDATE ab_test_variations
			SET audience_count = $1, sent_count = $2, opened_count = $3,
			    clicked_count = $4, conversion_count = $5, ctr = $6, conversion_rate = $7
			WHERE id = $8 AND test_id = $9
		`, v.AudienceCount, v.SentCount, v.OpenedCount,
			v.ClickedCount, v.ConversionCount, v.CTR, v.ConversionRate, v.ID, t.ID)
		if err != nil {
			return fmt.Errorf("update variation %s: %w", v.Name, err)
		}
	}

	for i := range run.Results {
		res := &run.Results[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ab_test_results
				(id, test_id, variation_id, customer_id,
				 message_sent, sent_at, opened, opened_at, clicked, clicked_at,
				 converted, converted_at, replied, replied_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`, res.ID, res.TestID, res.VariationID, res.CustomerID,
			res.MessageSent, res.SentAt, res.Opened, res.OpenedAt, res.Clicked, res.ClickedAt,
			res.Converted, res.ConvertedAt, res.Replied, res.RepliedAt, res.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment: %w", err)
	}
	return nil
}

func (r *ABTestRepo) MarkStopped(ctx context.Context, userID, id string, stoppedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ab_tests SET status = $1, completed_at = $2
		WHERE id = $3 AND user_id = $4
	`, domain.ABTestStopped, stoppedAt, id, userID)
	if err != nil {
		return fmt.Errorf("stop ab test: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return abtest.ErrNotFound
	}
	return nil
}

func (r *ABTestRepo) Results(ctx context.Context, userID, testID string) ([]domain.ABResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.test_id, r.variation_id, r.customer_id,
		       r.message_sent, r.sent_at, r.opened, r.opened_at,
		       r.clicked, r.clicked_at, r.converted, r.converted_at,
		       r.replied, r.replied_at, r.created_at
		FROM ab_test_results r
		JOIN ab_tests t ON t.id = r.test_id
		WHERE r.test_id = $1 AND t.user_id = $2
	`, testID, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []domain.ABResult
	for rows.Next() {
		var res domain.ABResult
		if err := rows.Scan(
			&res.ID, &res.TestID, &res.VariationID, &res.CustomerID,
			&res.MessageSent, &res.SentAt, &res.Opened, &res.OpenedAt,
			&res.Clicked, &res.ClickedAt, &res.Converted, &res.ConvertedAt,
			&res.Replied, &res.RepliedAt, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *ABTestRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM ab_tests WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete ab test: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return abtest.ErrNotFound
	}
	return nil
}
