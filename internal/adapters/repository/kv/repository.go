package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

const (
	usersKey      = "users"
	candidatesKey = "candidates"
	votesKey      = "votes"
	sessionKey    = "user"
)

func readList[T any](ctx context.Context, tx Tx, key string) ([]T, error) {
	raw, ok, err := tx.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []T{}, nil
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return list, nil
}

func writeJSON(tx Tx, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	tx.Put(key, raw)
	return nil
}

func findVoter(voters []domain.Voter, match func(v domain.Voter) bool) int {
	for i := range voters {
		if match(voters[i]) {
			return i
		}
	}
	return -1
}

type voterRepository struct {
	store Store
}

func NewVoterRepository(store Store) ports.VoterRepository {
	return &voterRepository{store: store}
}

func (r *voterRepository) lookup(ctx context.Context, match func(v domain.Voter) bool) (*domain.Voter, error) {
	var voter *domain.Voter
	err := r.store.View(ctx, func(tx Tx) error {
		voter = nil
		voters, err := readList[domain.Voter](ctx, tx, usersKey)
		if err != nil {
			return err
		}
		if i := findVoter(voters, match); i >= 0 {
			voter = &voters[i]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voter, nil
}

func (r *voterRepository) GetByID(ctx context.Context, id string) (*domain.Voter, error) {
	return r.lookup(ctx, func(v domain.Voter) bool { return v.ID == id })
}

func (r *voterRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Voter, error) {
	return r.lookup(ctx, func(v domain.Voter) bool { return v.ExternalIDNumber == externalID })
}

func (r *voterRepository) Create(ctx context.Context, voter *domain.Voter) error {
	return r.store.Update(ctx, func(tx Tx) error {
		voters, err := readList[domain.Voter](ctx, tx, usersKey)
		if err != nil {
			return err
		}
		if findVoter(voters, func(v domain.Voter) bool { return v.ExternalIDNumber == voter.ExternalIDNumber }) >= 0 {
			return domain.ErrVoterExists
		}
		if findVoter(voters, func(v domain.Voter) bool { return v.ID == voter.ID }) >= 0 {
			return fmt.Errorf("voter id %s is already taken", voter.ID)
		}
		return writeJSON(tx, usersKey, append(voters, *voter))
	})
}

func (r *voterRepository) List(ctx context.Context) ([]domain.Voter, error) {
	var voters []domain.Voter
	err := r.store.View(ctx, func(tx Tx) error {
		var err error
		voters, err = readList[domain.Voter](ctx, tx, usersKey)
		return err
	})
	return voters, err
}

type candidateRepository struct {
	store Store
}

func NewCandidateRepository(store Store) ports.CandidateRepository {
	return &candidateRepository{store: store}
}

func (r *candidateRepository) Seed(ctx context.Context, candidates []domain.Candidate) (bool, error) {
	var seeded bool
	err := r.store.Update(ctx, func(tx Tx) error {
		seeded = false
		existing, err := readList[domain.Candidate](ctx, tx, candidatesKey)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		fresh := make([]domain.Candidate, 0, len(candidates))
		for _, c := range candidates {
			if domain.FindCandidate(fresh, c.ID) >= 0 {
				return fmt.Errorf("duplicate candidate id %s in seed", c.ID)
			}
			c.VoteCount = 0
			fresh = append(fresh, c)
		}
		seeded = true
		return writeJSON(tx, candidatesKey, fresh)
	})
	return seeded, err
}

func (r *candidateRepository) List(ctx context.Context) ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	err := r.store.View(ctx, func(tx Tx) error {
		var err error
		candidates, err = readList[domain.Candidate](ctx, tx, candidatesKey)
		return err
	})
	return candidates, err
}

type ballotRepository struct {
	store Store
}

func NewBallotRepository(store Store) ports.BallotRepository {
	return &ballotRepository{store: store}
}

func (r *ballotRepository) Cast(ctx context.Context, ballot *domain.Ballot) error {
	return r.store.Update(ctx, func(tx Tx) error {
		voters, err := readList[domain.Voter](ctx, tx, usersKey)
		if err != nil {
			return err
		}
		candidates, err := readList[domain.Candidate](ctx, tx, candidatesKey)
		if err != nil {
			return err
		}
		votes, err := readList[domain.Ballot](ctx, tx, votesKey)
		if err != nil {
			return err
		}

		vi := findVoter(voters, func(v domain.Voter) bool { return v.ID == ballot.VoterID })
		if vi < 0 {
			return domain.ErrUnknownVoter
		}
		if err := voters[vi].MarkVoted(ballot.ID); err != nil {
			return err
		}
		ci := domain.FindCandidate(candidates, ballot.CandidateID)
		if ci < 0 {
			return domain.ErrUnknownCandidate
		}
		for _, b := range votes {
			if b.ID == ballot.ID {
				return fmt.Errorf("ballot id %s is already taken", ballot.ID)
			}
		}

		candidates[ci].VoteCount++
		votes = append(votes, *ballot)

		if err := writeJSON(tx, votesKey, votes); err != nil {
			return err
		}
		if err := writeJSON(tx, candidatesKey, candidates); err != nil {
			return err
		}
		return writeJSON(tx, usersKey, voters)
	})
}

func (r *ballotRepository) List(ctx context.Context) ([]domain.Ballot, error) {
	var ballots []domain.Ballot
	err := r.store.View(ctx, func(tx Tx) error {
		var err error
		ballots, err = readList[domain.Ballot](ctx, tx, votesKey)
		return err
	})
	return ballots, err
}

type sessionRepository struct {
	store Store
}

func NewSessionRepository(store Store) ports.SessionRepository {
	return &sessionRepository{store: store}
}

func (r *sessionRepository) SaveSession(ctx context.Context, voter *domain.Voter) error {
	return r.store.Update(ctx, func(tx Tx) error {
		return writeJSON(tx, sessionKey, voter)
	})
}

func (r *sessionRepository) CurrentSession(ctx context.Context) (*domain.Voter, error) {
	var voter *domain.Voter
	err := r.store.View(ctx, func(tx Tx) error {
		voter = nil
		raw, ok, err := tx.Get(ctx, sessionKey)
		if err != nil || !ok {
			return err
		}
		voter = &domain.Voter{}
		if err := json.Unmarshal(raw, voter); err != nil {
			return fmt.Errorf("failed to decode %q: %w", sessionKey, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voter, nil
}

func (r *sessionRepository) ClearSession(ctx context.Context) error {
	return r.store.Update(ctx, func(tx Tx) error {
		tx.Delete(sessionKey)
		return nil
	})
}

type snapshotter struct {
	store Store
}

func NewSnapshotter(store Store) ports.StateSnapshotter {
	return &snapshotter{store: store}
}

func (s *snapshotter) Snapshot(ctx context.Context) (*domain.StoreSnapshot, error) {
	snapshot := &domain.StoreSnapshot{}
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		if snapshot.Voters, err = readList[domain.Voter](ctx, tx, usersKey); err != nil {
			return err
		}
		if snapshot.Candidates, err = readList[domain.Candidate](ctx, tx, candidatesKey); err != nil {
			return err
		}
		snapshot.Ballots, err = readList[domain.Ballot](ctx, tx, votesKey)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
