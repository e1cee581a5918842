package repository

import (
	"context"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

// ProfileRepository exposes the profile upsert the profile analyzer job
// uses; a profile is always overwritten wholesale, never patched.
type ProfileRepository interface {
	Upsert(ctx context.Context, p *entity.Profile) (bool, error)
	Get(ctx context.Context, accountID int64) (*entity.Profile, error)
}

// ReportRepository exposes the append-only report insert.
type ReportRepository interface {
	Insert(ctx context.Context, r *entity.Report) (bool, error)
}
