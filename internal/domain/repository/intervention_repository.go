package repository

import (
	"context"
	"time"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
)

type InterventionRepository interface {
	Create(ctx context.Context, in *entity.SyncIntervention) error
	GetByID(ctx context.Context, id string) (*entity.SyncIntervention, error)
	List(ctx context.Context, status entity.InterventionStatus, limit, offset int) ([]entity.SyncIntervention, error)
	RecordAttempt(ctx context.Context, id, detail string) error
	Resolve(ctx context.Context, id string, at time.Time) error
}

type AuditRepository interface {
	Insert(ctx context.Context, a *entity.AuditLog) error
}
