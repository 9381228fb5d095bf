package google

import (
	"context"
	"errors"

	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"google.golang.org/api/idtoken"
)

// GoogleVerifier treats the one-time code as a Google ID token. The token
// supplies the profile fields the demo verifier makes up.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewVerifier(clientID string) ports.IdentityVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, externalID string, code string) (*ports.VerifiedIdentity, error) {
	payload, err := v.validate(ctx, code, v.clientID)
	if err != nil {
		return nil, err
	}
	if verified, _ := payload.Claims["email_verified"].(bool); !verified {
		return nil, errors.New("email not verified")
	}
	name, ok := payload.Claims["name"].(string)
	if !ok {
		return nil, errors.New("name not found in claims")
	}
	phone, _ := payload.Claims["phone_number"].(string)
	return &ports.VerifiedIdentity{
		ExternalIDNumber: externalID,
		DisplayName:      name,
		PhoneNumber:      phone,
	}, nil
}
