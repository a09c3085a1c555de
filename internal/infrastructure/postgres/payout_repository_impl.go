package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/internal/domain/repository"
)

type PayoutRepository struct {
	pool *pgxpool.Pool
}

func NewPayoutRepository(pool *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{pool: pool}
}

const payoutColumns = `id, creator_id, amount_cents, currency, status, paypal_email, reference, note, created_at, paid_at`

func scanPayout(row interface{ Scan(...any) error }) (*entity.Payout, error) {
	p := &entity.Payout{}
	if err := row.Scan(&p.ID, &p.CreatorID, &p.AmountCents, &p.Currency, &p.Status, &p.PayPalEmail,
		&p.Reference, &p.Note, &p.CreatedAt, &p.PaidAt); err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *PayoutRepository) Create(ctx context.Context, p *entity.Payout) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payouts (creator_id, amount_cents, currency, status, paypal_email, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, p.CreatorID, p.AmountCents, p.Currency, p.Status, p.PayPalEmail, p.Note)
	return mapErr(row.Scan(&p.ID, &p.CreatedAt))
}

func (r *PayoutRepository) GetByID(ctx context.Context, id string) (*entity.Payout, error) {
	return scanPayout(r.pool.QueryRow(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE id = $1`, id))
}

func (r *PayoutRepository) list(ctx context.Context, query string, args ...any) ([]entity.Payout, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []entity.Payout{}
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PayoutRepository) ListByCreator(ctx context.Context, creatorID string) ([]entity.Payout, error) {
	return r.list(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE creator_id = $1 ORDER BY created_at DESC`, creatorID)
}

func (r *PayoutRepository) ListByStatus(ctx context.Context, status entity.PayoutStatus, limit, offset int) ([]entity.Payout, error) {
	return r.list(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`,
		status, limit, offset)
}

func (r *PayoutRepository) MarkPaid(ctx context.Context, id, reference string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payouts SET status = 'paid', reference = $1, paid_at = $2
		WHERE id = $3 AND status = 'pending'
	`, reference, at, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrConflict
	}
	return nil
}

var _ repository.PayoutRepository = (*PayoutRepository)(nil)
