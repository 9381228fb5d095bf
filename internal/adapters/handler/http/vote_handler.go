package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

const resultsPath = "/api/results"

type VoteHandler struct {
	store ports.BallotStore
}

func NewVoteHandler(store ports.BallotStore) *VoteHandler {
	return &VoteHandler{
		store: store,
	}
}

type voteRequest struct {
	CandidateID string `json:"candidate_id"`
}

func (h *VoteHandler) CastBallot(w http.ResponseWriter, r *http.Request) {
	voterID, ok := voterIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing voter context")
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CandidateID == "" {
		writeError(w, http.StatusBadRequest, "candidate_id is required")
		return
	}

	ballot, err := h.store.CastBallot(r.Context(), voterID, req.CandidateID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyVoted):
			// not an error for the voter: send them to the results
			http.Redirect(w, r, resultsPath, http.StatusSeeOther)
		case errors.Is(err, domain.ErrUnknownVoter), errors.Is(err, domain.ErrUnknownCandidate):
			slog.Warn("cast rejected", "error", err, "voter_id", voterID, "candidate_id", req.CandidateID)
			expireSession(w)
			writeError(w, http.StatusUnauthorized, "please log in again")
		default:
			slog.Error("failed to cast ballot", "error", err, "voter_id", voterID)
			writeError(w, http.StatusInternalServerError, "failed to cast ballot")
		}
		return
	}

	writeJSON(w, http.StatusCreated, ballot)
}
