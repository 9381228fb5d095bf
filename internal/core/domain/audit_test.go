package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func consistentState() ([]Voter, []Candidate, []Ballot) {
	voters := []Voter{
		{ID: "v1", HasVoted: true, VoteID: strPtr("b1")},
		{ID: "v2"},
	}
	candidates := []Candidate{{ID: "1", VoteCount: 1}, {ID: "2"}}
	ballots := []Ballot{{ID: "b1", VoterID: "v1", CandidateID: "1"}}
	return voters, candidates, ballots
}

func issueKinds(r *AuditReport) []AuditIssueKind {
	kinds := make([]AuditIssueKind, 0, len(r.Issues))
	for _, i := range r.Issues {
		kinds = append(kinds, i.Kind)
	}
	return kinds
}

func TestAudit_Consistent(t *testing.T) {
	voters, candidates, ballots := consistentState()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	report := Audit(voters, candidates, ballots, now)

	assert.True(t, report.Consistent())
	assert.Equal(t, now, report.CheckedAt)
	assert.Equal(t, 2, report.Voters)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, report.Ballots)
}

func TestAudit_TallyMismatch(t *testing.T) {
	voters, candidates, ballots := consistentState()
	candidates[1].VoteCount = 1

	report := Audit(voters, candidates, ballots, time.Now())

	assert.False(t, report.Consistent())
	assert.ElementsMatch(t, []AuditIssueKind{IssueTallyMismatch, IssueTotalMismatch}, issueKinds(report))
}

func TestAudit_FlagWithoutBallot(t *testing.T) {
	voters, candidates, ballots := consistentState()
	voters[1].HasVoted = true
	voters[1].VoteID = strPtr("missing")

	report := Audit(voters, candidates, ballots, time.Now())

	assert.Equal(t, []AuditIssueKind{IssueFlagWithoutBallot}, issueKinds(report))
}

func TestAudit_BallotWithoutFlag(t *testing.T) {
	voters, candidates, ballots := consistentState()
	ballots = append(ballots, Ballot{ID: "b2", VoterID: "v2", CandidateID: "2"})
	candidates[1].VoteCount = 1

	report := Audit(voters, candidates, ballots, time.Now())

	assert.Equal(t, []AuditIssueKind{IssueBallotWithoutFlag}, issueKinds(report))
}

func TestAudit_MultipleBallots(t *testing.T) {
	voters, candidates, ballots := consistentState()
	ballots = append(ballots, Ballot{ID: "b2", VoterID: "v1", CandidateID: "1"})
	candidates[0].VoteCount = 2

	report := Audit(voters, candidates, ballots, time.Now())

	assert.Equal(t, []AuditIssueKind{IssueMultipleBallots}, issueKinds(report))
}

func TestAudit_VoteIDMismatch(t *testing.T) {
	voters, candidates, ballots := consistentState()
	voters[0].VoteID = strPtr("other")

	report := Audit(voters, candidates, ballots, time.Now())

	assert.Equal(t, []AuditIssueKind{IssueVoteIDMismatch}, issueKinds(report))
}

func TestAudit_DanglingReferences(t *testing.T) {
	voters, candidates, ballots := consistentState()
	ballots = append(ballots, Ballot{ID: "b2", VoterID: "ghost", CandidateID: "9"})

	report := Audit(voters, candidates, ballots, time.Now())

	kinds := issueKinds(report)
	assert.Contains(t, kinds, IssueUnknownVoter)
	assert.Contains(t, kinds, IssueUnknownCandidate)
	assert.Contains(t, kinds, IssueTotalMismatch)
}

func TestAudit_DuplicateIDsAndNegativeCount(t *testing.T) {
	voters, candidates, ballots := consistentState()
	voters = append(voters, Voter{ID: "v2"})
	candidates = append(candidates, Candidate{ID: "3", VoteCount: -1})

	report := Audit(voters, candidates, ballots, time.Now())

	kinds := issueKinds(report)
	assert.Contains(t, kinds, IssueDuplicateID)
	assert.Contains(t, kinds, IssueNegativeCount)
}
