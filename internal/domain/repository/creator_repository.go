package repository

import (
	"context"
	"time"

	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
)

type CreatorRepository interface {
	Create(ctx context.Context, c *entity.Creator) error
	GetByID(ctx context.Context, id string) (*entity.Creator, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Creator, error)
	GetByUsername(ctx context.Context, username string) (*entity.Creator, error)
	// Update writes the profile fields (username, display name, bio, avatar).
	Update(ctx context.Context, c *entity.Creator) error
	SetPayPal(ctx context.Context, id, email string, verifiedAt time.Time) error
}

type VerificationRepository interface {
	Upsert(ctx context.Context, v *entity.CreatorVerification) error
	ListByCreator(ctx context.Context, creatorID string) ([]entity.CreatorVerification, error)
	Delete(ctx context.Context, creatorID, platform string) error
}
