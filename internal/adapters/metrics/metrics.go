// Package metrics instruments the ballot store with prometheus counters.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type Collectors struct {
	BallotsCast      *prometheus.CounterVec
	CastFailures     *prometheus.CounterVec
	Authentications  *prometheus.CounterVec
	VotersRegistered prometheus.Counter
}

func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		BallotsCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ballot",
			Name:      "ballots_cast_total",
			Help:      "Ballots successfully cast, by candidate.",
		}, []string{"candidate"}),
		CastFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ballot",
			Name:      "cast_failures_total",
			Help:      "Rejected casts, by reason.",
		}, []string{"reason"}),
		Authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ballot",
			Name:      "authentications_total",
			Help:      "Authentication attempts, by result.",
		}, []string{"result"}),
		VotersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ballot",
			Name:      "registrations_total",
			Help:      "Successful voter registrations, including repeated ones.",
		}),
	}
	reg.MustRegister(c.BallotsCast, c.CastFailures, c.Authentications, c.VotersRegistered)
	return c
}

type instrumentedStore struct {
	ports.BallotStore
	c *Collectors
}

func Instrument(store ports.BallotStore, c *Collectors) ports.BallotStore {
	return &instrumentedStore{BallotStore: store, c: c}
}

func (s *instrumentedStore) RegisterVoter(ctx context.Context, profile domain.VoterProfile) (*domain.Voter, error) {
	voter, err := s.BallotStore.RegisterVoter(ctx, profile)
	if err == nil {
		s.c.VotersRegistered.Inc()
	}
	return voter, err
}

func (s *instrumentedStore) Authenticate(ctx context.Context, externalID, oneTimeCode string) (*domain.Voter, error) {
	voter, err := s.BallotStore.Authenticate(ctx, externalID, oneTimeCode)
	s.c.Authentications.WithLabelValues(authResult(err)).Inc()
	return voter, err
}

func (s *instrumentedStore) CastBallot(ctx context.Context, voterID, candidateID string) (*domain.Ballot, error) {
	ballot, err := s.BallotStore.CastBallot(ctx, voterID, candidateID)
	if err != nil {
		s.c.CastFailures.WithLabelValues(castReason(err)).Inc()
		return nil, err
	}
	s.c.BallotsCast.WithLabelValues(candidateID).Inc()
	return ballot, nil
}

func authResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, domain.ErrInvalidProfile):
		return "invalid_profile"
	default:
		return "error"
	}
}

func castReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownVoter):
		return "unknown_voter"
	case errors.Is(err, domain.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, domain.ErrUnknownCandidate):
		return "unknown_candidate"
	default:
		return "error"
	}
}
