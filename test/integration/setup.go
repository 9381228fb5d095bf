package integration

import (
	"context"
	"database/sql"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vncsmyrnk/ballot/internal/adapters/handler/http"
	"github.com/vncsmyrnk/ballot/internal/adapters/identity"
	repo "github.com/vncsmyrnk/ballot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/ballot/internal/adapters/seed"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/core/services"
)

const testSecret = "test-secret"

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *stdhttp.Client
	Store       ports.BallotStore
	Audit       ports.AuditService
	DBContainer testcontainers.Container
}

func (app *TestApp) Teardown(t *testing.T) {
	t.Helper()
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %s", err)
	}
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()

	ctx := context.Background()
	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, repo.ApplyMigrations(ctx, db))

	store := services.NewBallotStore(
		repo.NewVoterRepository(db),
		repo.NewCandidateRepository(db),
		repo.NewBallotRepository(db),
		identity.NewDemoVerifier(""),
	)
	candidates, err := seed.NewSource("").Candidates()
	require.NoError(t, err)
	require.NoError(t, store.Seed(ctx, candidates))

	sessions := services.NewSessionService(store, []byte(testSecret), 15*time.Minute)
	router := http.NewHandler(http.Handlers{
		Auth:    http.NewAuthHandler(sessions, 15*time.Minute, false),
		User:    http.NewUserHandler(store),
		Vote:    http.NewVoteHandler(store),
		Results: http.NewResultsHandler(store),
	}, sessions)

	server := httptest.NewServer(router)
	client := server.Client()
	client.CheckRedirect = func(req *stdhttp.Request, via []*stdhttp.Request) error {
		return stdhttp.ErrUseLastResponse
	}

	return &TestApp{
		DB:          db,
		Server:      server,
		Client:      client,
		Store:       store,
		Audit:       services.NewAuditService(repo.NewSnapshotter(db)),
		DBContainer: dbContainer,
	}
}
