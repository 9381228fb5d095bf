package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/ballot/internal/adapters/identity"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/kv"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/core/services"
)

type testApp struct {
	server *httptest.Server
	client *http.Client
	store  ports.BallotStore
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	kvStore := kv.NewMemoryStore()
	store := services.NewBallotStore(
		kv.NewVoterRepository(kvStore),
		kv.NewCandidateRepository(kvStore),
		kv.NewBallotRepository(kvStore),
		identity.NewDemoVerifier(""),
	)
	require.NoError(t, store.Seed(context.Background(), []domain.Candidate{
		{ID: "1", DisplayName: "Candidate A", Affiliation: "Party A"},
		{ID: "2", DisplayName: "Candidate B", Affiliation: "Party B"},
		{ID: "3", DisplayName: "Candidate C", Affiliation: "Party C"},
	}))

	sessions := services.NewSessionService(store, []byte("test-secret"), 15*time.Minute)
	router := NewHandler(Handlers{
		Auth:    NewAuthHandler(sessions, 15*time.Minute, false),
		User:    NewUserHandler(store),
		Vote:    NewVoteHandler(store),
		Results: NewResultsHandler(store),
	}, sessions)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client := server.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &testApp{server: server, client: client, store: store}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	reader := bytes.NewReader(nil)
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
	}

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func cookieValue(resp *http.Response, name string) (*http.Cookie, bool) {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func (a *testApp) login(t *testing.T, externalID string) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/auth/login", "", loginRequest{ExternalIDNumber: externalID, OneTimeCode: identity.DefaultCode})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[sessionResponse](t, resp).AccessToken
}

func TestHealthz(t *testing.T) {
	app := setupTestApp(t)

	resp := app.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	app := setupTestApp(t)

	resp := app.do(t, http.MethodPost, "/auth/register", "", domain.VoterProfile{
		DisplayName:      "Asha Rao",
		ExternalIDNumber: "1234 5678 9012",
		PhoneNumber:      "+91-9876543210",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	cookie, ok := cookieValue(resp, accessTokenCookie)
	require.True(t, ok)
	assert.True(t, cookie.HttpOnly)

	session := decode[sessionResponse](t, resp)
	assert.Equal(t, cookie.Value, session.AccessToken)
	assert.Equal(t, "123456789012", session.Voter.ExternalIDNumber)
	assert.False(t, session.Voter.HasVoted)
}

func TestRegister_InvalidProfile(t *testing.T) {
	app := setupTestApp(t)

	resp := app.do(t, http.MethodPost, "/auth/register", "", domain.VoterProfile{
		DisplayName:      "Asha Rao",
		ExternalIDNumber: "1234",
		PhoneNumber:      "+91-9876543210",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	app := setupTestApp(t)

	resp := app.do(t, http.MethodPost, "/auth/login", "", loginRequest{ExternalIDNumber: "111122223333", OneTimeCode: "000000"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "invalid one-time code, please try again", body["error"])

	token := app.login(t, "111122223333")
	assert.NotEmpty(t, token)

	resp = app.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[domain.Voter](t, resp)
	assert.Equal(t, "111122223333", me.ExternalIDNumber)
	assert.Equal(t, identity.DefaultDisplayName, me.DisplayName)
}

func TestMe_Unauthorized(t *testing.T) {
	app := setupTestApp(t)

	resp := app.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_BearerToken(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t, "111122223333")

	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/api/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCastBallot(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t, "111122223333")

	resp := app.do(t, http.MethodPost, "/api/ballots", token, voteRequest{CandidateID: "2"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ballot := decode[domain.Ballot](t, resp)
	assert.Equal(t, "2", ballot.CandidateID)

	resp = app.do(t, http.MethodGet, "/api/me", token, nil)
	me := decode[domain.Voter](t, resp)
	assert.True(t, me.HasVoted)
	require.NotNil(t, me.VoteID)
	assert.Equal(t, ballot.ID, *me.VoteID)
}

func TestCastBallot_AlreadyVotedRedirectsToResults(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t, "111122223333")

	resp := app.do(t, http.MethodPost, "/api/ballots", token, voteRequest{CandidateID: "1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = app.do(t, http.MethodPost, "/api/ballots", token, voteRequest{CandidateID: "3"})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, resultsPath, resp.Header.Get("Location"))

	tally, err := app.store.GetTally(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), tally[0].VoteCount)
	assert.Equal(t, int64(0), tally[2].VoteCount)
}

func TestCastBallot_UnknownCandidateEndsSession(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t, "111122223333")

	resp := app.do(t, http.MethodPost, "/api/ballots", token, voteRequest{CandidateID: "99"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cookie, ok := cookieValue(resp, accessTokenCookie)
	require.True(t, ok)
	assert.Less(t, cookie.MaxAge, 0)

	body := decode[map[string]string](t, resp)
	assert.Equal(t, "please log in again", body["error"])
}

func TestCastBallot_Validation(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t, "111122223333")

	resp := app.do(t, http.MethodPost, "/api/ballots", token, voteRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = app.do(t, http.MethodPost, "/api/ballots", "", voteRequest{CandidateID: "1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_KeepsTally(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t, "111122223333")

	resp := app.do(t, http.MethodPost, "/api/ballots", token, voteRequest{CandidateID: "1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = app.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie, ok := cookieValue(resp, accessTokenCookie)
	require.True(t, ok)
	assert.Less(t, cookie.MaxAge, 0)

	tally, err := app.store.GetTally(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), tally[0].VoteCount)
}

func TestListCandidates(t *testing.T) {
	app := setupTestApp(t)
	for i, cand := range []string{"3", "2", "3"} {
		token := app.login(t, "11112222333"+string(rune('0'+i)))
		resp := app.do(t, http.MethodPost, "/api/ballots", token, voteRequest{CandidateID: cand})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := app.do(t, http.MethodGet, "/api/candidates", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	seedOrder := decode[[]domain.Candidate](t, resp)
	require.Len(t, seedOrder, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{seedOrder[0].ID, seedOrder[1].ID, seedOrder[2].ID})

	resp = app.do(t, http.MethodGet, "/api/candidates?sort=votes", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byVotes := decode[[]domain.Candidate](t, resp)
	assert.Equal(t, []string{"3", "2", "1"}, []string{byVotes[0].ID, byVotes[1].ID, byVotes[2].ID})
}

func TestGetResults(t *testing.T) {
	app := setupTestApp(t)

	resp := app.do(t, http.MethodGet, "/api/results", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decode[resultsResponse](t, resp)
	assert.Equal(t, int64(0), empty.Summary.TotalBallots)
	assert.Equal(t, "1", empty.Summary.LeadingCandidate.ID)
	assert.Equal(t, 0.0, empty.Summary.LeadingPercentage)
	for _, c := range empty.Candidates {
		assert.Equal(t, 0.0, c.Percentage)
	}

	for i, cand := range []string{"2", "3", "2", "1"} {
		token := app.login(t, "11112222333"+string(rune('0'+i)))
		resp := app.do(t, http.MethodPost, "/api/ballots", token, voteRequest{CandidateID: cand})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = app.do(t, http.MethodGet, "/api/results", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decode[resultsResponse](t, resp)
	assert.Equal(t, int64(4), results.Summary.TotalBallots)
	assert.Equal(t, "2", results.Summary.LeadingCandidate.ID)
	assert.Equal(t, 50.0, results.Summary.LeadingPercentage)
	require.Len(t, results.Candidates, 3)
	assert.Equal(t, 25.0, results.Candidates[0].Percentage)
	assert.Equal(t, 50.0, results.Candidates[1].Percentage)
	assert.Equal(t, 25.0, results.Candidates[2].Percentage)
}
