package ports

import (
	"context"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

// VoterRepository returns (nil, nil) from the lookups when no voter matches.
type VoterRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Voter, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Voter, error)
	Create(ctx context.Context, voter *domain.Voter) error
	List(ctx context.Context) ([]domain.Voter, error)
}
