package http

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const VoterIDKey contextKey = "voter_id"

const accessTokenCookie = "access_token"

type tokenParser interface {
	ParseToken(tokenString string) (string, error)
}

// RequireSession resolves the access token from the cookie or an
// Authorization bearer header and stores the voter id in the request context.
func RequireSession(sessions tokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing access token")
				return
			}

			voterID, err := sessions.ParseToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid access token")
				return
			}

			ctx := context.WithValue(r.Context(), VoterIDKey, voterID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func voterIDFrom(ctx context.Context) (string, bool) {
	voterID, ok := ctx.Value(VoterIDKey).(string)
	return voterID, ok && voterID != ""
}
