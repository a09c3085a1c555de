package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/internal/domain/repository"
)

type CreatorRepository struct {
	pool *pgxpool.Pool
}

func NewCreatorRepository(pool *pgxpool.Pool) *CreatorRepository {
	return &CreatorRepository{pool: pool}
}

const creatorColumns = `id, user_id, username, display_name, bio, avatar_url, avatar_path,
	paypal_email, paypal_verified_at, created_at, updated_at`

func scanCreator(row interface{ Scan(...any) error }) (*entity.Creator, error) {
	c := &entity.Creator{}
	if err := row.Scan(&c.ID, &c.UserID, &c.Username, &c.DisplayName, &c.Bio, &c.AvatarURL, &c.AvatarPath,
		&c.PayPalEmail, &c.PayPalVerifiedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

func (r *CreatorRepository) Create(ctx context.Context, c *entity.Creator) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO creators (user_id, username, display_name, bio, avatar_url, avatar_path)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, c.UserID, c.Username, c.DisplayName, c.Bio, c.AvatarURL, c.AvatarPath)
	return mapErr(row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt))
}

func (r *CreatorRepository) GetByID(ctx context.Context, id string) (*entity.Creator, error) {
	return scanCreator(r.pool.QueryRow(ctx, `SELECT `+creatorColumns+` FROM creators WHERE id = $1`, id))
}

func (r *CreatorRepository) GetByUserID(ctx context.Context, userID string) (*entity.Creator, error) {
	return scanCreator(r.pool.QueryRow(ctx, `SELECT `+creatorColumns+` FROM creators WHERE user_id = $1`, userID))
}

func (r *CreatorRepository) GetByUsername(ctx context.Context, username string) (*entity.Creator, error) {
	return scanCreator(r.pool.QueryRow(ctx, `SELECT `+creatorColumns+` FROM creators WHERE username = lower($1)`, username))
}

func (r *CreatorRepository) Update(ctx context.Context, c *entity.Creator) error {
	c.UpdatedAt = time.Now()
	return affected(r.pool.Exec(ctx, `
		UPDATE creators
		SET username = $1, display_name = $2, bio = $3, avatar_url = $4, avatar_path = $5, updated_at = $6
		WHERE id = $7
	`, c.Username, c.DisplayName, c.Bio, c.AvatarURL, c.AvatarPath, c.UpdatedAt, c.ID))
}

func (r *CreatorRepository) SetPayPal(ctx context.Context, id, email string, verifiedAt time.Time) error {
	return affected(r.pool.Exec(ctx, `
		UPDATE creators SET paypal_email = $1, paypal_verified_at = $2, updated_at = now() WHERE id = $3
	`, email, verifiedAt, id))
}

var _ repository.CreatorRepository = (*CreatorRepository)(nil)

type VerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

// Upsert keeps one row per creator and platform. An unverified link never
// downgrades a verified row with the same profile URL, nor blanks its handle.
func (r *VerificationRepository) Upsert(ctx context.Context, v *entity.CreatorVerification) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO creator_verifications (creator_id, platform, handle, profile_url, verified, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (creator_id, platform) DO UPDATE SET
			handle      = CASE
				WHEN NOT EXCLUDED.verified AND creator_verifications.verified
					AND creator_verifications.profile_url = EXCLUDED.profile_url THEN creator_verifications.handle
				ELSE EXCLUDED.handle END,
			profile_url = EXCLUDED.profile_url,
			verified    = EXCLUDED.verified OR (creator_verifications.verified AND creator_verifications.profile_url = EXCLUDED.profile_url),
			verified_at = CASE
				WHEN EXCLUDED.verified THEN EXCLUDED.verified_at
				WHEN creator_verifications.profile_url = EXCLUDED.profile_url THEN creator_verifications.verified_at
				ELSE NULL END,
			updated_at  = now()
		RETURNING id, handle, verified, verified_at, created_at, updated_at
	`, v.CreatorID, v.Platform, v.Handle, v.ProfileURL, v.Verified, v.VerifiedAt)
	return mapErr(row.Scan(&v.ID, &v.Handle, &v.Verified, &v.VerifiedAt, &v.CreatedAt, &v.UpdatedAt))
}

func (r *VerificationRepository) ListByCreator(ctx context.Context, creatorID string) ([]entity.CreatorVerification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, creator_id, platform, handle, profile_url, verified, verified_at, created_at, updated_at
		FROM creator_verifications WHERE creator_id = $1 ORDER BY platform
	`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.CreatorVerification{}
	for rows.Next() {
		var v entity.CreatorVerification
		if err := rows.Scan(&v.ID, &v.CreatorID, &v.Platform, &v.Handle, &v.ProfileURL, &v.Verified,
			&v.VerifiedAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VerificationRepository) Delete(ctx context.Context, creatorID, platform string) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM creator_verifications WHERE creator_id = $1 AND platform = $2`, creatorID, platform))
}

var _ repository.VerificationRepository = (*VerificationRepository)(nil)
