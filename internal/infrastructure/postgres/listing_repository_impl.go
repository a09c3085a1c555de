package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/internal/domain/repository"
)

type ListingRepository struct {
	pool   *pgxpool.Pool
	photos *ListingPhotoRepository
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool, photos: NewListingPhotoRepository(pool)}
}

const listingColumns = `id, creator_id, title, category, condition, story, price_cents, status,
	rejection_reason, external_product_id, sync_status, created_at, updated_at, approved_at`

func scanListing(row interface{ Scan(...any) error }) (*entity.Listing, error) {
	l := &entity.Listing{}
	if err := row.Scan(&l.ID, &l.CreatorID, &l.Title, &l.Category, &l.Condition, &l.Story, &l.PriceCents,
		&l.Status, &l.RejectionReason, &l.ExternalProductID, &l.SyncStatus, &l.CreatedAt, &l.UpdatedAt,
		&l.ApprovedAt); err != nil {
		return nil, mapErr(err)
	}
	return l, nil
}

func collectListings(rows pgx.Rows, err error) ([]entity.Listing, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []entity.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *ListingRepository) Create(ctx context.Context, l *entity.Listing) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO listings (creator_id, title, category, condition, story, price_cents, status, sync_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, l.CreatorID, l.Title, l.Category, l.Condition, l.Story, l.PriceCents, l.Status, l.SyncStatus)
	return mapErr(row.Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt))
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	l, err := scanListing(r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if l.Photos, err = r.photos.ListByListing(ctx, l.ID); err != nil {
		return nil, err
	}
	return l, nil
}

// ListByCreator returns the creator's listings; an empty status returns all of them.
func (r *ListingRepository) ListByCreator(ctx context.Context, creatorID string, status entity.ListingStatus) ([]entity.Listing, error) {
	out, err := collectListings(r.pool.Query(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE creator_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`, creatorID, string(status)))
	if err != nil {
		return nil, err
	}
	return out, r.attachPhotos(ctx, out)
}

func (r *ListingRepository) ListByStatus(ctx context.Context, status entity.ListingStatus, limit, offset int) ([]entity.Listing, error) {
	out, err := collectListings(r.pool.Query(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset))
	if err != nil {
		return nil, err
	}
	return out, r.attachPhotos(ctx, out)
}

func (r *ListingRepository) attachPhotos(ctx context.Context, listings []entity.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	ids := make([]string, len(listings))
	index := make(map[string]int, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
		index[l.ID] = i
	}
	rows, err := r.pool.Query(ctx, `SELECT `+photoColumns+` FROM listing_photos
		WHERE listing_id = ANY($1::uuid[]) ORDER BY listing_id, position`, ids)
	if err != nil {
		return err
	}
	photos, err := pgx.CollectRows(rows, pgx.RowToStructByPos[entity.ListingPhoto])
	if err != nil {
		return err
	}
	for _, p := range photos {
		i := index[p.ListingID]
		listings[i].Photos = append(listings[i].Photos, p)
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id))
}

func (r *ListingRepository) SetExternalProduct(ctx context.Context, id, externalID string, sync entity.SyncStatus) error {
	return affected(r.pool.Exec(ctx, `
		UPDATE listings SET external_product_id = $1, sync_status = $2, updated_at = now() WHERE id = $3
	`, externalID, sync, id))
}

func (r *ListingRepository) SetSyncStatus(ctx context.Context, id string, sync entity.SyncStatus) error {
	return affected(r.pool.Exec(ctx, `UPDATE listings SET sync_status = $1, updated_at = now() WHERE id = $2`, sync, id))
}

func (r *ListingRepository) Transition(ctx context.Context, id string, from, to entity.ListingStatus, reason string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE listings
		SET status = $1,
		    rejection_reason = $2,
		    approved_at = CASE WHEN $1 = 'active' THEN $3::timestamptz ELSE approved_at END,
		    updated_at = $3
		WHERE id = $4 AND status = $5
	`, to, reason, at, id, from)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`, id).Scan(&exists); err != nil {
			return mapErr(err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}

var _ repository.ListingRepository = (*ListingRepository)(nil)

type ListingPhotoRepository struct {
	pool *pgxpool.Pool
}

func NewListingPhotoRepository(pool *pgxpool.Pool) *ListingPhotoRepository {
	return &ListingPhotoRepository{pool: pool}
}

// photoColumns follows the field order of entity.ListingPhoto.
const photoColumns = `id, listing_id, storage_path, url, content_type, width, height, position, created_at`

func (r *ListingPhotoRepository) Create(ctx context.Context, p *entity.ListingPhoto) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO listing_photos (listing_id, storage_path, url, content_type, width, height, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, p.ListingID, p.StoragePath, p.URL, p.ContentType, p.Width, p.Height, p.Position)
	return mapErr(row.Scan(&p.ID, &p.CreatedAt))
}

func (r *ListingPhotoRepository) ListByListing(ctx context.Context, listingID string) ([]entity.ListingPhoto, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+photoColumns+` FROM listing_photos WHERE listing_id = $1 ORDER BY position`, listingID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[entity.ListingPhoto])
}

func (r *ListingPhotoRepository) DeleteByListing(ctx context.Context, listingID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM listing_photos WHERE listing_id = $1`, listingID)
	return mapErr(err)
}

var _ repository.ListingPhotoRepository = (*ListingPhotoRepository)(nil)
