package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketpulse/campaignhub/internal/domain"
)

// DeliveryLogRepo stores append-only delivery log rows.
type DeliveryLogRepo struct{ db *sql.DB }

// NewDeliveryLogRepo creates a Postgres-backed delivery log store.
func NewDeliveryLogRepo(db *sql.DB) *DeliveryLogRepo { return &DeliveryLogRepo{db: db} }

func (r *DeliveryLogRepo) Append(ctx context.Context, l *domain.DeliveryLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaign_logs
			(id, user_id, campaign_id, customer_id, channel, recipient,
			 message, status, error_message, provider_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`, l.ID, l.UserID, l.CampaignID, l.CustomerID, l.Channel, l.Recipient,
		l.Message, l.Status, l.ErrorMessage, l.ProviderMessageID)
	if err != nil {
		return fmt.Errorf("append delivery log: %w", err)
	}
	return nil
}

// ListByCampaign returns the log rows for one campaign, newest first.
func (r *DeliveryLogRepo) ListByCampaign(ctx context.Context, userID, campaignID string, limit int) ([]domain.DeliveryLog, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, campaign_id, customer_id, channel, recipient,
		       message, status, COALESCE(error_message,''), COALESCE(provider_message_id,''), created_at
		FROM campaign_logs
		WHERE user_id = $1 AND campaign_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("list delivery logs: %w", err)
	}
	defer rows.Close()

	var out []domain.DeliveryLog
	for rows.Next() {
		var l domain.DeliveryLog
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.CampaignID, &l.CustomerID, &l.Channel, &l.Recipient,
			&l.Message, &l.Status, &l.ErrorMessage, &l.ProviderMessageID, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
