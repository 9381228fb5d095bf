// Package identity holds the stand-in identity provider used by the demo.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

const (
	DefaultCode        = "123456"
	DefaultDisplayName = "Demo Voter"
	DefaultPhoneNumber = "+91-0000000000"
)

var ErrCodeMismatch = errors.New("one-time code does not match")

// DemoVerifier accepts a single fixed code for every external id and vouches
// for a placeholder profile.
type DemoVerifier struct {
	code        string
	displayName string
	phoneNumber string
}

func NewDemoVerifier(code string) *DemoVerifier {
	if code == "" {
		code = DefaultCode
	}
	return &DemoVerifier{
		code:        code,
		displayName: DefaultDisplayName,
		phoneNumber: DefaultPhoneNumber,
	}
}

func (v *DemoVerifier) Verify(_ context.Context, externalID, code string) (*ports.VerifiedIdentity, error) {
	if subtle.ConstantTimeCompare([]byte(code), []byte(v.code)) != 1 {
		return nil, ErrCodeMismatch
	}
	return &ports.VerifiedIdentity{
		ExternalIDNumber: externalID,
		DisplayName:      v.displayName,
		PhoneNumber:      v.phoneNumber,
	}, nil
}
