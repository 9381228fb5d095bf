package ports

import (
	"context"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

type AuditService interface {
	Audit(ctx context.Context) (*domain.AuditReport, error)
}

// StateSnapshotter reads voters, candidates and ballots in one consistent
// view of the store.
type StateSnapshotter interface {
	Snapshot(ctx context.Context) (*domain.StoreSnapshot, error)
}
