package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type ballotStore struct {
	voterRepo     ports.VoterRepository
	candidateRepo ports.CandidateRepository
	ballotRepo    ports.BallotRepository
	verifier      ports.IdentityVerifier

	voterLocks    *keyedMutex
	externalLocks *keyedMutex

	now   func() time.Time
	newID func() string
}

func NewBallotStore(
	voterRepo ports.VoterRepository,
	candidateRepo ports.CandidateRepository,
	ballotRepo ports.BallotRepository,
	verifier ports.IdentityVerifier,
) ports.BallotStore {
	return &ballotStore{
		voterRepo:     voterRepo,
		candidateRepo: candidateRepo,
		ballotRepo:    ballotRepo,
		verifier:      verifier,
		voterLocks:    newKeyedMutex(),
		externalLocks: newKeyedMutex(),
		now:           time.Now,
		newID:         func() string { return uuid.New().String() },
	}
}

func (s *ballotStore) Seed(ctx context.Context, candidates []domain.Candidate) error {
	seeded, err := s.candidateRepo.Seed(ctx, candidates)
	if err != nil {
		return fmt.Errorf("failed to seed candidates: %w", err)
	}
	if seeded {
		slog.Info("candidates seeded", "count", len(candidates))
	}
	return nil
}

func (s *ballotStore) RegisterVoter(ctx context.Context, profile domain.VoterProfile) (*domain.Voter, error) {
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return s.findOrCreateVoter(ctx, profile)
}

func (s *ballotStore) Authenticate(ctx context.Context, externalID, oneTimeCode string) (*domain.Voter, error) {
	externalID = domain.NormalizeExternalID(externalID)

	identity, err := s.verifier.Verify(ctx, externalID, oneTimeCode)
	if err != nil {
		slog.Debug("identity verification failed", "error", err)
		return nil, domain.ErrInvalidCode
	}

	profile := domain.VoterProfile{
		DisplayName:      identity.DisplayName,
		ExternalIDNumber: externalID,
		PhoneNumber:      identity.PhoneNumber,
	}.Normalize()
	if err := domain.ValidateExternalID(profile.ExternalIDNumber); err != nil {
		return nil, err
	}

	return s.findOrCreateVoter(ctx, profile)
}

func (s *ballotStore) findOrCreateVoter(ctx context.Context, profile domain.VoterProfile) (*domain.Voter, error) {
	unlock := s.externalLocks.Lock(profile.ExternalIDNumber)
	defer unlock()

	existing, err := s.voterRepo.GetByExternalID(ctx, profile.ExternalIDNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get voter: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	voter := &domain.Voter{
		ID:               s.newID(),
		DisplayName:      profile.DisplayName,
		ExternalIDNumber: profile.ExternalIDNumber,
		PhoneNumber:      profile.PhoneNumber,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.voterRepo.Create(ctx, voter); err != nil {
		if errors.Is(err, domain.ErrVoterExists) {
			// another process registered the same id first
			return s.voterRepo.GetByExternalID(ctx, profile.ExternalIDNumber)
		}
		return nil, fmt.Errorf("failed to create voter: %w", err)
	}

	slog.Info("voter registered", "voter_id", voter.ID)
	return voter, nil
}

func (s *ballotStore) CastBallot(ctx context.Context, voterID, candidateID string) (*domain.Ballot, error) {
	unlock := s.voterLocks.Lock(voterID)
	defer unlock()

	voter, err := s.voterRepo.GetByID(ctx, voterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get voter: %w", err)
	}
	if voter == nil {
		return nil, domain.ErrUnknownVoter
	}
	if voter.HasVoted {
		return nil, domain.ErrAlreadyVoted
	}

	candidates, err := s.candidateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	if domain.FindCandidate(candidates, candidateID) < 0 {
		return nil, domain.ErrUnknownCandidate
	}

	ballot := &domain.Ballot{
		ID:          s.newID(),
		VoterID:     voterID,
		CandidateID: candidateID,
		CastAt:      s.now().UTC(),
	}
	if err := s.ballotRepo.Cast(ctx, ballot); err != nil {
		if domain.IsCastFailure(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to cast ballot: %w", err)
	}

	slog.Info("ballot cast", "ballot_id", ballot.ID, "voter_id", voterID, "candidate_id", candidateID)
	return ballot, nil
}

func (s *ballotStore) GetTally(ctx context.Context) ([]domain.Candidate, error) {
	candidates, err := s.candidateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

func (s *ballotStore) GetResultsSummary(ctx context.Context) (*domain.ResultsSummary, error) {
	tally, err := s.GetTally(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Summarize(tally)
}

func (s *ballotStore) Voter(ctx context.Context, id string) (*domain.Voter, error) {
	voter, err := s.voterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get voter: %w", err)
	}
	if voter == nil {
		return nil, domain.ErrUnknownVoter
	}
	return voter, nil
}
