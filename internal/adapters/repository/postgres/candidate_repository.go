package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type candidateRepository struct {
	db *sql.DB
}

func NewCandidateRepository(db *sql.DB) ports.CandidateRepository {
	return &candidateRepository{
		db: db,
	}
}

func (r *candidateRepository) Seed(ctx context.Context, candidates []domain.Candidate) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE candidates IN EXCLUSIVE MODE`); err != nil {
		return false, fmt.Errorf("failed to lock candidates: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count candidates: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	queryCandidate := `
		INSERT INTO candidates (id, position, display_name, affiliation, symbol, color_tag, vote_count)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
	`
	stmt, err := tx.PrepareContext(ctx, queryCandidate)
	if err != nil {
		return false, fmt.Errorf("failed to prepare candidate statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range candidates {
		_, err = stmt.ExecContext(ctx, c.ID, i, c.DisplayName, c.Affiliation, c.Symbol, c.ColorTag)
		if err != nil {
			return false, fmt.Errorf("failed to insert candidate %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func (r *candidateRepository) List(ctx context.Context) ([]domain.Candidate, error) {
	return listCandidates(ctx, r.db)
}

func listCandidates(ctx context.Context, q querier) ([]domain.Candidate, error) {
	query := `
		SELECT id, display_name, affiliation, symbol, vote_count, color_tag
		FROM candidates
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	candidates := []domain.Candidate{}
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.Affiliation, &c.Symbol, &c.VoteCount, &c.ColorTag); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return candidates, nil
}
