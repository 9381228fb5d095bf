package ports

import (
	"context"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

type BallotRepository interface {
	// Cast appends the ballot, increments the referenced candidate's count
	// and marks the voter as voted, all in one atomic unit. Preconditions are
	// checked again inside that unit and reported as domain.ErrUnknownVoter,
	// domain.ErrAlreadyVoted or domain.ErrUnknownCandidate.
	Cast(ctx context.Context, ballot *domain.Ballot) error
	List(ctx context.Context) ([]domain.Ballot, error)
}

// BallotStore is the only mutation path for voters' vote status, candidate
// counts and ballots.
type BallotStore interface {
	RegisterVoter(ctx context.Context, profile domain.VoterProfile) (*domain.Voter, error)
	Authenticate(ctx context.Context, externalID, oneTimeCode string) (*domain.Voter, error)
	CastBallot(ctx context.Context, voterID, candidateID string) (*domain.Ballot, error)
	GetTally(ctx context.Context) ([]domain.Candidate, error)
	GetResultsSummary(ctx context.Context) (*domain.ResultsSummary, error)
	Voter(ctx context.Context, id string) (*domain.Voter, error)
	Seed(ctx context.Context, candidates []domain.Candidate) error
}
