package repo

import (
	"context"

	"github.com/hamed0406/alertapi/internal/domain"
)

// AlertStore is the connection provider every handler goes through.
// Implementations must be safe for concurrent use.
type AlertStore interface {
	// Insert appends one row and returns its assigned id. Rows are never
	// updated afterwards.
	Insert(ctx context.Context, rec *domain.AlertRecord) (int64, error)
	// Recent returns at most limit rows, newest first by created_at.
	Recent(ctx context.Context, limit int) ([]domain.AlertRecord, error)
	// Ping acquires a connection, does one round trip and releases it.
	Ping(ctx context.Context) error
	Close() error
}

// SchemaInitializer creates the alerts table and its indexes if absent.
// Calling it more than once is a no-op.
type SchemaInitializer interface {
	InitSchema(ctx context.Context) error
}
