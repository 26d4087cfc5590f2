package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"localxplore/internal/domain/entity"
	"localxplore/internal/domain/repository"
	"localxplore/pkg/errors"
)

type firestoreExperienceRepository struct {
	client *firestore.Client
}

func NewFirestoreExperienceRepository(client *firestore.Client) repository.ExperienceRepository {
	return &firestoreExperienceRepository{
		client: client,
	}
}

func (r *firestoreExperienceRepository) GetByID(ctx context.Context, id string) (*entity.Experience, error) {
	doc, err := r.client.Collection("experiences").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Experience", err)
		}
		return nil, errors.Internal("Failed to get experience", err)
	}

	var experience entity.Experience
	if err := doc.DataTo(&experience); err != nil {
		return nil, errors.Internal("Failed to parse experience data", err)
	}
	experience.ID = doc.Ref.ID

	return &experience, nil
}
