// Package cache keeps recent tally reads in memory for the results screens.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

const tallyKey = "tally"

// cachedStore serves GetTally and GetResultsSummary from a short-lived cache.
// A successful cast through this process drops the cached tally at once;
// casts made by other processes show up after at most ttl.
type cachedStore struct {
	ports.BallotStore
	cache *gocache.Cache
}

func NewCachedStore(store ports.BallotStore, ttl time.Duration) ports.BallotStore {
	return &cachedStore{
		BallotStore: store,
		cache:       gocache.New(ttl, 2*ttl),
	}
}

func (s *cachedStore) CastBallot(ctx context.Context, voterID, candidateID string) (*domain.Ballot, error) {
	ballot, err := s.BallotStore.CastBallot(ctx, voterID, candidateID)
	if err == nil {
		s.cache.Delete(tallyKey)
	}
	return ballot, err
}

func (s *cachedStore) Seed(ctx context.Context, candidates []domain.Candidate) error {
	err := s.BallotStore.Seed(ctx, candidates)
	s.cache.Delete(tallyKey)
	return err
}

func (s *cachedStore) GetTally(ctx context.Context) ([]domain.Candidate, error) {
	if cached, ok := s.cache.Get(tallyKey); ok {
		return copyTally(cached.([]domain.Candidate)), nil
	}

	tally, err := s.BallotStore.GetTally(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(tallyKey, copyTally(tally))
	return tally, nil
}

func (s *cachedStore) GetResultsSummary(ctx context.Context) (*domain.ResultsSummary, error) {
	tally, err := s.GetTally(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Summarize(tally)
}

func copyTally(tally []domain.Candidate) []domain.Candidate {
	return append([]domain.Candidate(nil), tally...)
}
