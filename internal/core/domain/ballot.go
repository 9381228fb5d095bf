package domain

import "time"

// Ballot links one voter to one candidate. Ballots are append-only.
type Ballot struct {
	ID          string    `json:"id"`
	VoterID     string    `json:"voter_id"`
	CandidateID string    `json:"candidate_id"`
	CastAt      time.Time `json:"cast_at"`
}
