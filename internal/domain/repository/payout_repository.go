package repository

import (
	"context"
	"time"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
)

type PayoutRepository interface {
	Create(ctx context.Context, p *entity.Payout) error
	GetByID(ctx context.Context, id string) (*entity.Payout, error)
	ListByCreator(ctx context.Context, creatorID string) ([]entity.Payout, error)
	ListByStatus(ctx context.Context, status entity.PayoutStatus, limit, offset int) ([]entity.Payout, error)
	// MarkPaid only affects pending payouts; otherwise it returns ErrConflict.
	MarkPaid(ctx context.Context, id, reference string, at time.Time) error
}
