package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ExternalIDLength is the number of digits of a national id number.
const ExternalIDLength = 12

type Voter struct {
	ID               string    `json:"id"`
	DisplayName      string    `json:"display_name"`
	ExternalIDNumber string    `json:"external_id_number"`
	PhoneNumber      string    `json:"phone_number"`
	HasVoted         bool      `json:"has_voted"`
	VoteID           *string   `json:"vote_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// MarkVoted flips the voter into the voted state. It fails when the voter
// already holds a ballot.
func (v *Voter) MarkVoted(ballotID string) error {
	if v.HasVoted {
		return ErrAlreadyVoted
	}
	v.HasVoted = true
	v.VoteID = &ballotID
	return nil
}

type VoterProfile struct {
	DisplayName      string `json:"display_name"`
	ExternalIDNumber string `json:"external_id_number"`
	PhoneNumber      string `json:"phone_number"`
}

// NormalizeExternalID strips the grouping whitespace the registration form
// inserts ("1234 5678 9012").
func NormalizeExternalID(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, id)
}

// ValidateExternalID checks a normalized external id number.
func ValidateExternalID(id string) error {
	if len(id) != ExternalIDLength {
		return fmt.Errorf("%w: external id number must have %d digits", ErrInvalidProfile, ExternalIDLength)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: external id number must contain only digits", ErrInvalidProfile)
		}
	}
	return nil
}

// Normalize returns a copy of the profile with trimmed fields and a
// normalized external id number.
func (p VoterProfile) Normalize() VoterProfile {
	return VoterProfile{
		DisplayName:      strings.TrimSpace(p.DisplayName),
		ExternalIDNumber: NormalizeExternalID(p.ExternalIDNumber),
		PhoneNumber:      strings.TrimSpace(p.PhoneNumber),
	}
}

// Validate expects a normalized profile.
func (p VoterProfile) Validate() error {
	if p.DisplayName == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.PhoneNumber == "" {
		return fmt.Errorf("%w: phone number is required", ErrInvalidProfile)
	}
	return ValidateExternalID(p.ExternalIDNumber)
}
