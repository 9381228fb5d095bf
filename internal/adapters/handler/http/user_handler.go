package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type UserHandler struct {
	store ports.BallotStore
}

func NewUserHandler(store ports.BallotStore) *UserHandler {
	return &UserHandler{
		store: store,
	}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	voterID, ok := voterIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing voter context")
		return
	}

	voter, err := h.store.Voter(r.Context(), voterID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownVoter) {
			expireSession(w)
			writeError(w, http.StatusUnauthorized, "please log in again")
			return
		}
		slog.Error("failed to fetch voter", "error", err, "voter_id", voterID)
		writeError(w, http.StatusInternalServerError, "failed to fetch voter")
		return
	}

	writeJSON(w, http.StatusOK, voter)
}

func expireSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, MaxAge: -1, Path: "/"})
}
