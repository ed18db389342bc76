// Package refreshtokens provides persistence for refresh tokens used by the
// credential login/refresh flow.
package refreshtokens

import (
	"context"
	"time"

	"filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}
