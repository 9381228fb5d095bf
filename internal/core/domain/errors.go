package domain

import "errors"

var (
	ErrInvalidCode      = errors.New("invalid one-time code")
	ErrInvalidProfile   = errors.New("invalid voter profile")
	ErrVoterExists      = errors.New("voter already registered")
	ErrUnknownVoter     = errors.New("unknown voter")
	ErrUnknownCandidate = errors.New("unknown candidate")
	ErrAlreadyVoted     = errors.New("voter has already voted")
	ErrNoCandidates     = errors.New("no candidates seeded")
	ErrNoSession        = errors.New("no active session")
	ErrInternal         = errors.New("internal server error")
)

// IsCastFailure reports whether err is one of the named failures CastBallot
// returns when a precondition does not hold.
func IsCastFailure(err error) bool {
	return errors.Is(err, ErrUnknownVoter) ||
		errors.Is(err, ErrAlreadyVoted) ||
		errors.Is(err, ErrUnknownCandidate)
}
