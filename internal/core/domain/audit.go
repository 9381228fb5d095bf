package domain

import (
	"fmt"
	"time"
)

type AuditIssueKind string

const (
	IssueTallyMismatch     AuditIssueKind = "tally_mismatch"
	IssueTotalMismatch     AuditIssueKind = "total_mismatch"
	IssueFlagWithoutBallot AuditIssueKind = "flag_without_ballot"
	IssueBallotWithoutFlag AuditIssueKind = "ballot_without_flag"
	IssueMultipleBallots   AuditIssueKind = "multiple_ballots"
	IssueVoteIDMismatch    AuditIssueKind = "vote_id_mismatch"
	IssueUnknownVoter      AuditIssueKind = "unknown_voter_reference"
	IssueUnknownCandidate  AuditIssueKind = "unknown_candidate_reference"
	IssueDuplicateID       AuditIssueKind = "duplicate_id"
	IssueNegativeCount     AuditIssueKind = "negative_vote_count"
)

type AuditIssue struct {
	Kind    AuditIssueKind `json:"kind"`
	Subject string         `json:"subject"`
	Detail  string         `json:"detail"`
}

// AuditReport is the outcome of recomputing the tallies from the ballot log.
type AuditReport struct {
	CheckedAt  time.Time    `json:"checked_at"`
	Voters     int          `json:"voters"`
	Candidates int          `json:"candidates"`
	Ballots    int          `json:"ballots"`
	Issues     []AuditIssue `json:"issues"`
}

func (r *AuditReport) Consistent() bool {
	return len(r.Issues) == 0
}

func (r *AuditReport) add(kind AuditIssueKind, subject, detail string) {
	r.Issues = append(r.Issues, AuditIssue{Kind: kind, Subject: subject, Detail: detail})
}

// Audit checks the voter, candidate and ballot collections against each
// other and reports every inconsistency it finds.
func Audit(voters []Voter, candidates []Candidate, ballots []Ballot, now time.Time) *AuditReport {
	report := &AuditReport{
		CheckedAt:  now,
		Voters:     len(voters),
		Candidates: len(candidates),
		Ballots:    len(ballots),
		Issues:     []AuditIssue{},
	}

	voterIdx := make(map[string]int, len(voters))
	for i, v := range voters {
		if _, dup := voterIdx[v.ID]; dup {
			report.add(IssueDuplicateID, "voter:"+v.ID, "voter id is not unique")
			continue
		}
		voterIdx[v.ID] = i
	}

	candidateIdx := make(map[string]int, len(candidates))
	for i, c := range candidates {
		if _, dup := candidateIdx[c.ID]; dup {
			report.add(IssueDuplicateID, "candidate:"+c.ID, "candidate id is not unique")
			continue
		}
		candidateIdx[c.ID] = i
		if c.VoteCount < 0 {
			report.add(IssueNegativeCount, "candidate:"+c.ID, fmt.Sprintf("vote count is %d", c.VoteCount))
		}
	}

	counted := make(map[string]int64, len(candidates))
	byVoter := make(map[string][]string)
	ballotIDs := make(map[string]struct{}, len(ballots))
	for _, b := range ballots {
		if _, dup := ballotIDs[b.ID]; dup {
			report.add(IssueDuplicateID, "ballot:"+b.ID, "ballot id is not unique")
		}
		ballotIDs[b.ID] = struct{}{}

		if _, ok := candidateIdx[b.CandidateID]; !ok {
			report.add(IssueUnknownCandidate, "ballot:"+b.ID, "references candidate "+b.CandidateID)
		}
		if _, ok := voterIdx[b.VoterID]; !ok {
			report.add(IssueUnknownVoter, "ballot:"+b.ID, "references voter "+b.VoterID)
		}
		counted[b.CandidateID]++
		byVoter[b.VoterID] = append(byVoter[b.VoterID], b.ID)
	}

	var recordedTotal int64
	for _, c := range candidates {
		recordedTotal += c.VoteCount
		if got := counted[c.ID]; got != c.VoteCount {
			report.add(IssueTallyMismatch, "candidate:"+c.ID,
				fmt.Sprintf("recorded %d votes, ballot log has %d", c.VoteCount, got))
		}
	}
	if recordedTotal != int64(len(ballots)) {
		report.add(IssueTotalMismatch, "tally",
			fmt.Sprintf("candidate counts sum to %d, ballot log has %d", recordedTotal, len(ballots)))
	}

	for _, v := range voters {
		cast := byVoter[v.ID]
		switch {
		case len(cast) > 1:
			report.add(IssueMultipleBallots, "voter:"+v.ID, fmt.Sprintf("%d ballots cast", len(cast)))
		case v.HasVoted && len(cast) == 0:
			report.add(IssueFlagWithoutBallot, "voter:"+v.ID, "marked as voted but no ballot exists")
		case !v.HasVoted && len(cast) == 1:
			report.add(IssueBallotWithoutFlag, "voter:"+v.ID, "ballot "+cast[0]+" exists but voter is not marked as voted")
		}
		if v.HasVoted && len(cast) == 1 && (v.VoteID == nil || *v.VoteID != cast[0]) {
			report.add(IssueVoteIDMismatch, "voter:"+v.ID, "vote id does not reference the voter's ballot")
		}
	}

	return report
}

type StoreSnapshot struct {
	Voters     []Voter
	Candidates []Candidate
	Ballots    []Ballot
}
