package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/ballot/internal/adapters/repository/kv"
)

type ctlEnv struct {
	dir    string
	dbPath string
}

func newCtlEnv(t *testing.T) *ctlEnv {
	dir := t.TempDir()
	return &ctlEnv{dir: dir, dbPath: filepath.Join(dir, "ballot.db")}
}

func (e *ctlEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	c := &cli{}
	cmd := rootCmd(c)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--env-file", filepath.Join(e.dir, "missing.env"),
		"--store", "sqlite",
		"--sqlite-path", e.dbPath,
		"--log-level", "error",
	}, args...))

	err := cmd.ExecuteContext(context.Background())
	require.NoError(t, c.close())
	return out.String(), err
}

func TestBallotctl_VotingFlow(t *testing.T) {
	env := newCtlEnv(t)

	_, err := env.run(t, "whoami")
	assert.EqualError(t, err, "not logged in")

	out, err := env.run(t, "register", "--name", "Asha Rao", "--id-number", "1234 5678 9012", "--phone", "+91-9876543210")
	require.NoError(t, err)
	assert.Contains(t, out, "Asha Rao (123456789012)")
	assert.Contains(t, out, "not voted")

	out, err = env.run(t, "vote", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded for candidate 2")

	out, err = env.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, " voted")
	assert.NotContains(t, out, "not voted")

	out, err = env.run(t, "vote", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "You have already voted.")
	assert.Contains(t, out, "Total ballots: 1")

	out, err = env.run(t, "tally", "--by-votes")
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 5)
	assert.True(t, bytes.HasPrefix(lines[1], []byte("2 ")))

	out, err = env.run(t, "results")
	require.NoError(t, err)
	assert.Contains(t, out, "with 1 votes, 100.0%")

	out, err = env.run(t, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "consistent")

	_, err = env.run(t, "logout")
	require.NoError(t, err)
	_, err = env.run(t, "whoami")
	assert.EqualError(t, err, "not logged in")

	out, err = env.run(t, "results")
	require.NoError(t, err)
	assert.Contains(t, out, "Total ballots: 1")
}

func TestBallotctl_LoginWithWrongCode(t *testing.T) {
	env := newCtlEnv(t)

	_, err := env.run(t, "login", "123456789012", "--code", "000000")
	assert.EqualError(t, err, "invalid one-time code, please try again")

	out, err := env.run(t, "login", "123456789012", "--code", "123456")
	require.NoError(t, err)
	assert.Contains(t, out, "(123456789012)")
}

func TestBallotctl_ResultsWithoutBallots(t *testing.T) {
	env := newCtlEnv(t)

	out, err := env.run(t, "results")
	require.NoError(t, err)
	assert.Contains(t, out, "Total ballots: 0")
	assert.Contains(t, out, "No ballots cast yet.")
}

func TestBallotctl_AuditFailsOnCorruption(t *testing.T) {
	env := newCtlEnv(t)

	_, err := env.run(t, "login", "123456789012", "--code", "123456")
	require.NoError(t, err)
	_, err = env.run(t, "vote", "1")
	require.NoError(t, err)

	store, err := kv.OpenSQLite(context.Background(), env.dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Update(context.Background(), func(tx kv.Tx) error {
		tx.Put("votes", []byte(`[]`))
		return nil
	}))
	require.NoError(t, store.Close())

	out, err := env.run(t, "audit")
	assert.ErrorIs(t, err, errInconsistent)
	assert.Contains(t, out, "tally_mismatch")
}
