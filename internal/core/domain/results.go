package domain

type ResultsSummary struct {
	TotalBallots      int64     `json:"total_ballots"`
	LeadingCandidate  Candidate `json:"leading_candidate"`
	LeadingVoteCount  int64     `json:"leading_vote_count"`
	LeadingPercentage float64   `json:"leading_percentage"`
}

// Summarize derives the results summary from a tally in seed order. Ties go
// to the candidate that comes first in seed order.
func Summarize(tally []Candidate) (*ResultsSummary, error) {
	if len(tally) == 0 {
		return nil, ErrNoCandidates
	}

	var total int64
	leader := tally[0]
	for _, c := range tally {
		total += c.VoteCount
		if c.VoteCount > leader.VoteCount {
			leader = c
		}
	}

	return &ResultsSummary{
		TotalBallots:      total,
		LeadingCandidate:  leader,
		LeadingVoteCount:  leader.VoteCount,
		LeadingPercentage: Percentage(leader.VoteCount, total),
	}, nil
}

// Percentage returns part/total*100, or 0 when total is 0.
func Percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return (float64(part) / float64(total)) * 100
}
