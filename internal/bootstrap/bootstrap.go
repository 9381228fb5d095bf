// Package bootstrap wires configuration into repositories and services.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/vncsmyrnk/ballot/internal/adapters/cache"
	"github.com/vncsmyrnk/ballot/internal/adapters/identity"
	"github.com/vncsmyrnk/ballot/internal/adapters/live"
	"github.com/vncsmyrnk/ballot/internal/adapters/metrics"
	"github.com/vncsmyrnk/ballot/internal/adapters/oauth/google"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/kv"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/ballot/internal/adapters/seed"
	"github.com/vncsmyrnk/ballot/internal/config"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/core/services"
)

type Repositories struct {
	Voters      ports.VoterRepository
	Candidates  ports.CandidateRepository
	Ballots     ports.BallotRepository
	Sessions    ports.SessionRepository
	Snapshotter ports.StateSnapshotter

	closers []func() error
}

func (r *Repositories) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// KVRepositories lays the repositories over one key-value store. The
// session singleton lives in the same store.
func KVRepositories(store kv.Store) *Repositories {
	return &Repositories{
		Voters:      kv.NewVoterRepository(store),
		Candidates:  kv.NewCandidateRepository(store),
		Ballots:     kv.NewBallotRepository(store),
		Sessions:    kv.NewSessionRepository(store),
		Snapshotter: kv.NewSnapshotter(store),
		closers:     []func() error{store.Close},
	}
}

func OpenRepositories(ctx context.Context, cfg config.StoreConfig) (*Repositories, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return KVRepositories(kv.NewMemoryStore()), nil

	case config.BackendSQLite:
		store, err := kv.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return KVRepositories(store), nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		return KVRepositories(kv.NewRedisStore(client, cfg.RedisPrefix)), nil

	case config.BackendPostgres:
		return openPostgres(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// openPostgres keeps the device session in a local sqlite file since the
// session pointer belongs to one device, not to the shared database.
func openPostgres(ctx context.Context, cfg config.StoreConfig) (*Repositories, error) {
	db, err := sql.Open("postgres", cfg.Postgres.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if err := postgres.ApplyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	sessions, err := kv.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Repositories{
		Voters:      postgres.NewVoterRepository(db),
		Candidates:  postgres.NewCandidateRepository(db),
		Ballots:     postgres.NewBallotRepository(db),
		Sessions:    kv.NewSessionRepository(sessions),
		Snapshotter: postgres.NewSnapshotter(db),
		closers:     []func() error{db.Close, sessions.Close},
	}, nil
}

func NewVerifier(cfg config.Config) (ports.IdentityVerifier, error) {
	switch cfg.IdentityProvider {
	case config.ProviderDemo:
		return identity.NewDemoVerifier(cfg.DemoOTP), nil
	case config.ProviderGoogle:
		return google.NewVerifier(cfg.GoogleClientID), nil
	}
	return nil, fmt.Errorf("unknown identity provider %q", cfg.IdentityProvider)
}

type App struct {
	Repos *Repositories
	Store ports.BallotStore
	Audit ports.AuditService
	Live  *live.Hub
}

func (a *App) Close() error {
	return a.Repos.Close()
}

// New opens the configured backend, seeds candidates on first boot and
// builds the ballot store. Metrics are recorded when reg is not nil.
func New(ctx context.Context, cfg config.Config, reg prometheus.Registerer) (*App, error) {
	repos, err := OpenRepositories(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	app, err := newApp(ctx, cfg, repos, reg)
	if err != nil {
		repos.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, cfg config.Config, repos *Repositories, reg prometheus.Registerer) (*App, error) {
	verifier, err := NewVerifier(cfg)
	if err != nil {
		return nil, err
	}

	store := services.NewBallotStore(repos.Voters, repos.Candidates, repos.Ballots, verifier)
	if reg != nil {
		store = metrics.Instrument(store, metrics.NewCollectors(reg))
	}
	if cfg.ResultsCacheTTL > 0 {
		store = cache.NewCachedStore(store, cfg.ResultsCacheTTL)
	}
	hub := live.NewHub()
	store = live.Notify(store, hub)

	candidates, err := seed.NewSource(cfg.CandidatesFile).Candidates()
	if err != nil {
		return nil, err
	}
	if err := store.Seed(ctx, candidates); err != nil {
		return nil, err
	}

	slog.Debug("ballot store ready", "backend", cfg.Store.Backend, "identity_provider", cfg.IdentityProvider)
	return &App{
		Repos: repos,
		Store: store,
		Audit: services.NewAuditService(repos.Snapshotter),
		Live:  hub,
	}, nil
}
