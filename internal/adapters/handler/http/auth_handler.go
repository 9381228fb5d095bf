package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type AuthHandler struct {
	sessions       ports.SessionService
	sessionTTL     time.Duration
	secureCookies  bool
	cookieSameSite http.SameSite
}

func NewAuthHandler(sessions ports.SessionService, sessionTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		sessions:       sessions,
		sessionTTL:     sessionTTL,
		secureCookies:  secureCookies,
		cookieSameSite: http.SameSiteLaxMode,
	}
}

type loginRequest struct {
	ExternalIDNumber string `json:"external_id_number"`
	OneTimeCode      string `json:"one_time_code"`
}

type sessionResponse struct {
	AccessToken string        `json:"access_token"`
	Voter       *domain.Voter `json:"voter"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.VoterProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, voter, err := h.sessions.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidProfile) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed, please try again")
		return
	}

	h.setAccessTokenCookie(w, token)
	writeJSON(w, http.StatusCreated, sessionResponse{AccessToken: token, Voter: voter})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, voter, err := h.sessions.Login(r.Context(), req.ExternalIDNumber, req.OneTimeCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCode):
			writeError(w, http.StatusUnauthorized, "invalid one-time code, please try again")
		case errors.Is(err, domain.ErrInvalidProfile):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "login failed, please try again")
		}
		return
	}

	h.setAccessTokenCookie(w, token)
	writeJSON(w, http.StatusOK, sessionResponse{AccessToken: token, Voter: voter})
}

// Logout only drops the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	expireSession(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) setAccessTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: h.cookieSameSite,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
}
