package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

const voterColumns = `id, display_name, external_id_number, phone_number, has_voted, vote_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoter(row rowScanner) (*domain.Voter, error) {
	voter := &domain.Voter{}
	var voteID sql.NullString
	err := row.Scan(
		&voter.ID,
		&voter.DisplayName,
		&voter.ExternalIDNumber,
		&voter.PhoneNumber,
		&voter.HasVoted,
		&voteID,
		&voter.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if voteID.Valid {
		voter.VoteID = &voteID.String
	}
	return voter, nil
}

type voterRepository struct {
	db *sql.DB
}

func NewVoterRepository(db *sql.DB) ports.VoterRepository {
	return &voterRepository{db: db}
}

func (r *voterRepository) GetByID(ctx context.Context, id string) (*domain.Voter, error) {
	query := `SELECT ` + voterColumns + ` FROM voters WHERE id = $1`
	voter, err := scanVoter(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return voter, nil
}

func (r *voterRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Voter, error) {
	query := `SELECT ` + voterColumns + ` FROM voters WHERE external_id_number = $1`
	voter, err := scanVoter(r.db.QueryRowContext(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return voter, nil
}

func (r *voterRepository) Create(ctx context.Context, voter *domain.Voter) error {
	query := `
		INSERT INTO voters (id, display_name, external_id_number, phone_number, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, voter.ID, voter.DisplayName, voter.ExternalIDNumber, voter.PhoneNumber, voter.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "voters_external_id_number_key") {
			return domain.ErrVoterExists
		}
		return fmt.Errorf("failed to insert voter: %w", err)
	}
	return nil
}

func (r *voterRepository) List(ctx context.Context) ([]domain.Voter, error) {
	return listVoters(ctx, r.db)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listVoters(ctx context.Context, q querier) ([]domain.Voter, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+voterColumns+` FROM voters ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list voters: %w", err)
	}
	defer rows.Close()

	voters := []domain.Voter{}
	for rows.Next() {
		voter, err := scanVoter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voter: %w", err)
		}
		voters = append(voters, *voter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voters: %w", err)
	}
	return voters, nil
}
