package ports

import (
	"context"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

// VerifiedIdentity is what an identity provider vouches for after a
// successful one-time code check.
type VerifiedIdentity struct {
	ExternalIDNumber string
	DisplayName      string
	PhoneNumber      string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, externalID, code string) (*VerifiedIdentity, error)
}

// SessionRepository keeps the snapshot of the currently authenticated voter
// on a single device.
type SessionRepository interface {
	SaveSession(ctx context.Context, voter *domain.Voter) error
	CurrentSession(ctx context.Context) (*domain.Voter, error)
	ClearSession(ctx context.Context) error
}

type SessionService interface {
	Login(ctx context.Context, externalID, oneTimeCode string) (string, *domain.Voter, error) // returns access_token, voter, error
	Register(ctx context.Context, profile domain.VoterProfile) (string, *domain.Voter, error)
	ParseToken(tokenString string) (string, error) // returns voter id
}
