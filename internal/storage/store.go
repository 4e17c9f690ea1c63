package storage

import (
	"context"

	"github.com/ivstanko/cryptoscan/internal/models"
)

// SignalStore persists the performance tracker's document. The whole
// document is rewritten on every save; there is no partial update.
type SignalStore interface {
	// Load returns the stored document, or a fresh empty one when
	// nothing has been persisted yet.
	Load(ctx context.Context) (*models.PerformanceDocument, error)
	// Save replaces the stored document.
	Save(ctx context.Context, doc *models.PerformanceDocument) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
