package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/storefront/internal/models"
)

// SnapshotRepository persists the lines of a session cart between process
// restarts. Load returns models.ErrNotFound for an unknown session.
type SnapshotRepository interface {
	Load(ctx context.Context, sessionID string) (*models.CartDocument, error)
	Save(ctx context.Context, doc *models.CartDocument) error
	Delete(ctx context.Context, sessionID string) error
}

// EventPublisher announces cart changes to other services.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, sessionID string, snap models.Snapshot) error
}
