package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/service/customer"
)

// CustomerRepo implements customer.Repository against PostgreSQL.
type CustomerRepo struct{ db *sql.DB }

// NewCustomerRepo creates a Postgres-backed customer repository.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerCols = `id, user_id, full_name, COALESCE(email,''), COALESCE(phone,''),
	       COALESCE(company,''), COALESCE(location,''), COALESCE(country,''), COALESCE(city,''),
	       income, total_spent, total_purchases, campaigns_accepted,
	       opt_out, complained, created_at, updated_at`

func scanCustomer(row interface{ Scan(...interface{}) error }, c *domain.Customer) error {
	return row.Scan(
		&c.ID, &c.UserID, &c.FullName, &c.Email, &c.Phone,
		&c.Company, &c.Location, &c.Country, &c.City,
		&c.Income, &c.TotalSpent, &c.TotalPurchases, &c.CampaignsAccepted,
		&c.OptOut, &c.Complained, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (r *CustomerRepo) Get(ctx context.Context, userID, id string) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := scanCustomer(r.db.QueryRowContext(ctx, `
		SELECT `+customerCols+`
		FROM customers
		WHERE id = $1 AND user_id = $2
	`, id, userID), c)
	if err == sql.ErrNoRows {
		return nil, customer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepo) List(ctx context.Context, userID string, f customer.ListFilter) ([]domain.Customer, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "WHERE user_id = $1"
	args := []interface{}{userID}
	idx := 2

	if f.Search != "" {
		where += fmt.Sprintf(" AND (full_name ILIKE $%d OR email ILIKE $%d)", idx, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}
	if f.Country != "" {
		where += fmt.Sprintf(" AND country = $%d", idx)
		args = append(args, f.Country)
		idx++
	}
	if f.OptOut != nil {
		where += fmt.Sprintf(" AND opt_out = $%d", idx)
		args = append(args, *f.OptOut)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	q := fmt.Sprintf(`SELECT `+customerCols+` FROM customers %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers
			(id, user_id, full_name, email, phone, company, location, country, city,
			 income, total_spent, total_purchases, campaigns_accepted,
			 opt_out, complained, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	`, c.ID, c.UserID, c.FullName, c.Email, c.Phone, c.Company, c.Location, c.Country, c.City,
		c.Income, c.TotalSpent, c.TotalPurchases, c.CampaignsAccepted, c.OptOut, c.Complained)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return c.ID, nil
}

// CreateBatch bulk-inserts customers with pq.CopyIn. Used by seeding.
func (r *CustomerRepo) CreateBatch(ctx context.Context, customers []domain.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("customers",
		"id", "user_id", "full_name", "email", "phone", "company", "location",
		"country", "city", "income", "total_spent", "total_purchases",
		"campaigns_accepted", "opt_out", "complained"))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	for i := range customers {
		c := &customers[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.UserID, c.FullName, c.Email, c.Phone, c.Company, c.Location,
			c.Country, c.City, c.Income, c.TotalSpent, c.TotalPurchases,
			c.CampaignsAccepted, c.OptOut, c.Complained); err != nil {
			return fmt.Errorf("copy customer: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}
	return tx.Commit()
}

func (r *CustomerRepo) Update(ctx context.Context, userID, id string, u customer.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.FullName != nil {
		add("full_name", *u.FullName)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.Phone != nil {
		add("phone", *u.Phone)
	}
	if u.Company != nil {
		add("company", *u.Company)
	}
	if u.Location != nil {
		add("location", *u.Location)
	}
	if u.Country != nil {
		add("country", *u.Country)
	}
	if u.City != nil {
		add("city", *u.City)
	}
	if u.Income != nil {
		add("income", *u.Income)
	}
	if u.TotalSpent != nil {
		add("total_spent", *u.TotalSpent)
	}
	if u.TotalPurchases != nil {
		add("total_purchases", *u.TotalPurchases)
	}
	if u.CampaignsAccepted != nil {
		add("campaigns_accepted", *u.CampaignsAccepted)
	}
	if u.Complained != nil {
		add("complained", *u.Complained)
	}

	if len(sets) == 0 {
		return nil
	}

	q := fmt.Sprintf("UPDATE customers SET %s, updated_at = NOW() WHERE id = $%d AND user_id = $%d",
		joinComma(sets), idx, idx+1)
	args = append(args, id, userID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM customers WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) SetOptOut(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers SET opt_out = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("set opt out: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) ListEligible(ctx context.Context, userID string, limit int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+customerCols+`
		FROM customers
		WHERE user_id = $1 AND opt_out = FALSE
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list eligible: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
