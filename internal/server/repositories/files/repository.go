// Package files implements the ownership index: metadata for stored blobs
// keyed by the identity that uploaded them.
package files

import (
	"context"

	"filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.StoredFile) error
	GetByID(ctx context.Context, id string) (*models.StoredFile, error)
	GetByFilename(ctx context.Context, filename string) (*models.StoredFile, error)
	ListByOwner(ctx context.Context, identity models.Identity) ([]*models.StoredFile, error)
	Delete(ctx context.Context, id string) error
}
