package repository

import (
	"context"

	"localxplore/internal/domain/entity"
)

type ExperienceRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Experience, error)
}
