package ports

import (
	"context"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

type CandidateRepository interface {
	// Seed stores the candidates in the given order unless candidates were
	// already seeded. It reports whether anything was written.
	Seed(ctx context.Context, candidates []domain.Candidate) (bool, error)
	// List returns the candidates in seed order.
	List(ctx context.Context) ([]domain.Candidate, error)
}

type CandidateSource interface {
	Candidates() ([]domain.Candidate, error)
}
