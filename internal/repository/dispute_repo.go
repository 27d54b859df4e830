package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bidvault/internal/engine"
	"bidvault/internal/model"
)

func (s *Store) CreateDispute(ctx context.Context, d *model.Dispute) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO disputes (project_id, raised_by, reason, resolved, outcome)
		VALUES ($1, $2, $3, false, '')
		RETURNING id, created_at`,
		d.ProjectID, d.RaisedBy, d.Reason,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dispute: %w", err)
	}
	if d.Votes == nil {
		d.Votes = map[int]bool{}
	}
	return nil
}

func (s *Store) GetDispute(ctx context.Context, id int) (*model.Dispute, error) {
	return s.getDispute(ctx, id, false)
}

func (s *Store) GetDisputeForUpdate(ctx context.Context, id int) (*model.Dispute, error) {
	return s.getDispute(ctx, id, true)
}

func (s *Store) getDispute(ctx context.Context, id int, forUpdate bool) (*model.Dispute, error) {
	query := `SELECT id, project_id, raised_by, reason, resolved, outcome, created_at
		FROM disputes WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	d := &model.Dispute{}
	err := s.q.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.ProjectID, &d.RaisedBy, &d.Reason, &d.Resolved, &d.Outcome, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select dispute: %w", err)
	}

	if err := s.loadVotes(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) loadVotes(ctx context.Context, d *model.Dispute) error {
	rows, err := s.q.Query(ctx, `
		SELECT voter, vote FROM dispute_votes WHERE dispute_id = $1`, d.ID)
	if err != nil {
		return fmt.Errorf("select votes: %w", err)
	}
	defer rows.Close()

	d.Votes = map[int]bool{}
	for rows.Next() {
		var (
			voter int
			vote  bool
		)
		if err := rows.Scan(&voter, &vote); err != nil {
			return fmt.Errorf("scan vote: %w", err)
		}
		d.Votes[voter] = vote
	}
	return rows.Err()
}

// GetOpenDispute returns the project's unresolved dispute, or nil when there
// is none. The engine allows at most one open dispute per project.
func (s *Store) GetOpenDispute(ctx context.Context, projectID int) (*model.Dispute, error) {
	var id int
	err := s.q.QueryRow(ctx, `
		SELECT id FROM disputes
		WHERE project_id = $1 AND NOT resolved
		ORDER BY id LIMIT 1`, projectID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select open dispute: %w", err)
	}
	return s.getDispute(ctx, id, false)
}

func (s *Store) AddVote(ctx context.Context, disputeID, voter int, vote bool) error {
	if _, err := s.q.Exec(ctx, `
		INSERT INTO dispute_votes (dispute_id, voter, vote)
		VALUES ($1, $2, $3)`,
		disputeID, voter, vote,
	); err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

func (s *Store) ResolveDispute(ctx context.Context, disputeID int, outcome string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE disputes SET resolved = true, outcome = $2
		WHERE id = $1`, disputeID, outcome)
	if err != nil {
		return fmt.Errorf("resolve dispute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}
