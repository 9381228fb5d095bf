package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type ballotRepository struct {
	db *sql.DB
}

func NewBallotRepository(db *sql.DB) ports.BallotRepository {
	return &ballotRepository{
		db: db,
	}
}

// Cast locks the voter row for the duration of the transaction, so two
// concurrent casts for one voter are applied one after the other and the
// second one sees has_voted.
func (r *ballotRepository) Cast(ctx context.Context, ballot *domain.Ballot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var hasVoted bool
	err = tx.QueryRowContext(ctx, `SELECT has_voted FROM voters WHERE id = $1 FOR UPDATE`, ballot.VoterID).Scan(&hasVoted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrUnknownVoter
		}
		return fmt.Errorf("failed to lock voter: %w", err)
	}
	if hasVoted {
		return domain.ErrAlreadyVoted
	}

	res, err := tx.ExecContext(ctx, `UPDATE candidates SET vote_count = vote_count + 1 WHERE id = $1`, ballot.CandidateID)
	if err != nil {
		return fmt.Errorf("failed to increment tally: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to increment tally: %w", err)
	} else if n == 0 {
		return domain.ErrUnknownCandidate
	}

	queryBallot := `
		INSERT INTO ballots (id, voter_id, candidate_id, cast_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = tx.ExecContext(ctx, queryBallot, ballot.ID, ballot.VoterID, ballot.CandidateID, ballot.CastAt)
	if err != nil {
		if isUniqueViolation(err, "ballots_voter_id_key") {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to insert ballot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE voters SET has_voted = TRUE, vote_id = $2 WHERE id = $1`, ballot.VoterID, ballot.ID)
	if err != nil {
		return fmt.Errorf("failed to mark voter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *ballotRepository) List(ctx context.Context) ([]domain.Ballot, error) {
	return listBallots(ctx, r.db)
}

func listBallots(ctx context.Context, q querier) ([]domain.Ballot, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, voter_id, candidate_id, cast_at FROM ballots ORDER BY cast_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots: %w", err)
	}
	defer rows.Close()

	ballots := []domain.Ballot{}
	for rows.Next() {
		var b domain.Ballot
		if err := rows.Scan(&b.ID, &b.VoterID, &b.CandidateID, &b.CastAt); err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		ballots = append(ballots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ballots: %w", err)
	}
	return ballots, nil
}

type snapshotter struct {
	db *sql.DB
}

func NewSnapshotter(db *sql.DB) ports.StateSnapshotter {
	return &snapshotter{db: db}
}

func (s *snapshotter) Snapshot(ctx context.Context) (*domain.StoreSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	snapshot := &domain.StoreSnapshot{}
	if snapshot.Voters, err = listVoters(ctx, tx); err != nil {
		return nil, err
	}
	if snapshot.Candidates, err = listCandidates(ctx, tx); err != nil {
		return nil, err
	}
	if snapshot.Ballots, err = listBallots(ctx, tx); err != nil {
		return nil, err
	}
	return snapshot, nil
}
