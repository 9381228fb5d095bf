package http

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type ResultsHandler struct {
	store ports.BallotStore
}

func NewResultsHandler(store ports.BallotStore) *ResultsHandler {
	return &ResultsHandler{
		store: store,
	}
}

type candidateResult struct {
	domain.Candidate
	Percentage float64 `json:"percentage"`
}

type resultsResponse struct {
	Summary    *domain.ResultsSummary `json:"summary"`
	Candidates []candidateResult      `json:"candidates"`
}

// ListCandidates returns the tally in seed order, or by descending vote
// count with ?sort=votes.
func (h *ResultsHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	tally, err := h.store.GetTally(r.Context())
	if err != nil {
		slog.Error("failed to get tally", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get candidates")
		return
	}

	if r.URL.Query().Get("sort") == "votes" {
		sortByVotes(tally)
	}
	writeJSON(w, http.StatusOK, tally)
}

func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	tally, err := h.store.GetTally(r.Context())
	if err != nil {
		slog.Error("failed to get tally", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get results")
		return
	}

	resp, err := buildResults(tally, r.URL.Query().Get("sort") == "votes")
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func buildResults(tally []domain.Candidate, byVotes bool) (*resultsResponse, error) {
	summary, err := domain.Summarize(tally)
	if err != nil {
		return nil, err
	}

	if byVotes {
		sortByVotes(tally)
	}

	candidates := make([]candidateResult, 0, len(tally))
	for _, c := range tally {
		candidates = append(candidates, candidateResult{
			Candidate:  c,
			Percentage: domain.Percentage(c.VoteCount, summary.TotalBallots),
		})
	}
	return &resultsResponse{Summary: summary, Candidates: candidates}, nil
}

// sortByVotes keeps seed order among candidates with equal counts.
func sortByVotes(tally []domain.Candidate) {
	sort.SliceStable(tally, func(i, j int) bool {
		return tally[i].VoteCount > tally[j].VoteCount
	})
}
