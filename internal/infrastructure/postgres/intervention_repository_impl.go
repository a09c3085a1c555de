package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/internal/domain/repository"
)

type InterventionRepository struct {
	pool *pgxpool.Pool
}

func NewInterventionRepository(pool *pgxpool.Pool) *InterventionRepository {
	return &InterventionRepository{pool: pool}
}

const interventionColumns = `id, listing_id, external_product_id, reason, detail, status, attempts, created_at, resolved_at`

func scanIntervention(row interface{ Scan(...any) error }) (*entity.SyncIntervention, error) {
	in := &entity.SyncIntervention{}
	if err := row.Scan(&in.ID, &in.ListingID, &in.ExternalProductID, &in.Reason, &in.Detail, &in.Status,
		&in.Attempts, &in.CreatedAt, &in.ResolvedAt); err != nil {
		return nil, mapErr(err)
	}
	return in, nil
}

func (r *InterventionRepository) Create(ctx context.Context, in *entity.SyncIntervention) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO sync_interventions (listing_id, external_product_id, reason, detail, status, attempts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, in.ListingID, in.ExternalProductID, in.Reason, in.Detail, in.Status, in.Attempts)
	return mapErr(row.Scan(&in.ID, &in.CreatedAt))
}

func (r *InterventionRepository) GetByID(ctx context.Context, id string) (*entity.SyncIntervention, error) {
	return scanIntervention(r.pool.QueryRow(ctx, `SELECT `+interventionColumns+` FROM sync_interventions WHERE id = $1`, id))
}

func (r *InterventionRepository) List(ctx context.Context, status entity.InterventionStatus, limit, offset int) ([]entity.SyncIntervention, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+interventionColumns+` FROM sync_interventions
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []entity.SyncIntervention{}
	for rows.Next() {
		in, err := scanIntervention(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

func (r *InterventionRepository) RecordAttempt(ctx context.Context, id, detail string) error {
	return affected(r.pool.Exec(ctx, `
		UPDATE sync_interventions SET attempts = attempts + 1, detail = $1 WHERE id = $2
	`, detail, id))
}

func (r *InterventionRepository) Resolve(ctx context.Context, id string, at time.Time) error {
	return affected(r.pool.Exec(ctx, `
		UPDATE sync_interventions SET status = 'resolved', resolved_at = $1 WHERE id = $2
	`, at, id))
}

var _ repository.InterventionRepository = (*InterventionRepository)(nil)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, a *entity.AuditLog) error {
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return err
	}
	if a.Metadata == nil {
		meta = []byte("{}")
	}
	var userID any
	if a.UserID != "" {
		userID = a.UserID
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO audit_logs (user_id, action, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, userID, a.Action, a.IP, a.UserAgent, meta)
	return mapErr(row.Scan(&a.ID, &a.CreatedAt))
}

var _ repository.AuditRepository = (*AuditRepository)(nil)
