package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Vote    *VoteHandler
	Results *ResultsHandler
	Live    *LiveHandler
	Metrics http.Handler
}

func NewHandler(h Handlers, sessions tokenParser) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/candidates", h.Results.ListCandidates)
		r.Get("/results", h.Results.GetResults)
		if h.Live != nil {
			r.Get("/results/live", h.Live.Stream)
		}

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(sessions))
			r.Get("/me", h.User.GetMe)
			r.Post("/ballots", h.Vote.CastBallot)
		})
	})

	return r
}
