package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

var ErrInvalidToken = errors.New("invalid access token")

type SessionService struct {
	store     ports.BallotStore
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewSessionService(store ports.BallotStore, jwtSecret []byte, ttl time.Duration) *SessionService {
	return &SessionService{
		store:     store,
		jwtSecret: jwtSecret,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

func (s *SessionService) Login(ctx context.Context, externalID, oneTimeCode string) (string, *domain.Voter, error) {
	voter, err := s.store.Authenticate(ctx, externalID, oneTimeCode)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateAccessToken(voter)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, voter, nil
}

func (s *SessionService) Register(ctx context.Context, profile domain.VoterProfile) (string, *domain.Voter, error) {
	voter, err := s.store.RegisterVoter(ctx, profile)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateAccessToken(voter)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, voter, nil
}

// ParseToken validates an access token and returns the voter id it was
// issued for.
func (s *SessionService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (s *SessionService) generateAccessToken(voter *domain.Voter) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": voter.ID,
		"exp": now.Add(s.ttl).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// DeviceSession restores and clears the single-device session kept in the
// session repository.
type DeviceSession struct {
	store    ports.BallotStore
	sessions ports.SessionRepository
}

func NewDeviceSession(store ports.BallotStore, sessions ports.SessionRepository) *DeviceSession {
	return &DeviceSession{store: store, sessions: sessions}
}

func (d *DeviceSession) Login(ctx context.Context, externalID, oneTimeCode string) (*domain.Voter, error) {
	voter, err := d.store.Authenticate(ctx, externalID, oneTimeCode)
	if err != nil {
		return nil, err
	}
	if err := d.sessions.SaveSession(ctx, voter); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return voter, nil
}

// Current returns the session voter as the store currently knows it, so a
// snapshot taken before a cast never reports a stale vote status.
func (d *DeviceSession) Current(ctx context.Context) (*domain.Voter, error) {
	snapshot, err := d.sessions.CurrentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if snapshot == nil {
		return nil, domain.ErrNoSession
	}

	voter, err := d.store.Voter(ctx, snapshot.ID)
	if errors.Is(err, domain.ErrUnknownVoter) {
		return nil, d.dropSession(ctx, err)
	}
	if err != nil {
		return nil, err
	}
	if err := d.sessions.SaveSession(ctx, voter); err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return voter, nil
}

func (d *DeviceSession) Register(ctx context.Context, profile domain.VoterProfile) (*domain.Voter, error) {
	voter, err := d.store.RegisterVoter(ctx, profile)
	if err != nil {
		return nil, err
	}
	if err := d.sessions.SaveSession(ctx, voter); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return voter, nil
}

// Cast records a ballot for the session voter. A session whose voter or
// candidate no longer exists is dropped and the caller must log in again.
func (d *DeviceSession) Cast(ctx context.Context, candidateID string) (*domain.Ballot, error) {
	voter, err := d.Current(ctx)
	if err != nil {
		return nil, err
	}

	ballot, err := d.store.CastBallot(ctx, voter.ID, candidateID)
	switch {
	case errors.Is(err, domain.ErrUnknownVoter), errors.Is(err, domain.ErrUnknownCandidate):
		return nil, d.dropSession(ctx, err)
	case err != nil:
		return nil, err
	}

	if _, err := d.Current(ctx); err != nil {
		return nil, err
	}
	return ballot, nil
}

func (d *DeviceSession) dropSession(ctx context.Context, cause error) error {
	if err := d.sessions.ClearSession(ctx); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to clear session: %w", err))
	}
	return cause
}

// Logout only drops the session pointer.
func (d *DeviceSession) Logout(ctx context.Context) error {
	return d.sessions.ClearSession(ctx)
}
