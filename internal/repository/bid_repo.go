package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bidvault/internal/engine"
	"bidvault/internal/model"
)

// CreateBid assigns the next index within the project. The caller holds the
// project row lock, so the max-index read cannot race another submission.
func (s *Store) CreateBid(ctx context.Context, b *model.Bid) error {
	err := s.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(idx) + 1, 0) FROM bids WHERE project_id = $1`,
		b.ProjectID,
	).Scan(&b.Index)
	if err != nil {
		return fmt.Errorf("next bid index: %w", err)
	}

	err = s.q.QueryRow(ctx, `
		INSERT INTO bids (project_id, idx, bidder, amount, completion_days, schedule)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		b.ProjectID, b.Index, b.Bidder, b.Amount, b.CompletionDays, b.Milestones,
	).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

func (s *Store) GetBid(ctx context.Context, projectID, index int) (*model.Bid, error) {
	b := &model.Bid{}
	err := s.q.QueryRow(ctx, `
		SELECT project_id, idx, bidder, amount, completion_days, schedule, created_at
		FROM bids WHERE project_id = $1 AND idx = $2`,
		projectID, index,
	).Scan(&b.ProjectID, &b.Index, &b.Bidder, &b.Amount, &b.CompletionDays, &b.Milestones, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrInvalidIndex
	}
	if err != nil {
		return nil, fmt.Errorf("select bid: %w", err)
	}
	return b, nil
}

func (s *Store) ListBids(ctx context.Context, projectID int) ([]model.Bid, error) {
	rows, err := s.q.Query(ctx, `
		SELECT project_id, idx, bidder, amount, completion_days, schedule, created_at
		FROM bids WHERE project_id = $1 ORDER BY idx`, projectID)
	if err != nil {
		return nil, fmt.Errorf("select bids: %w", err)
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.ProjectID, &b.Index, &b.Bidder, &b.Amount, &b.CompletionDays, &b.Milestones, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func (s *Store) HasBid(ctx context.Context, projectID, bidder int) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM bids WHERE project_id = $1 AND bidder = $2)`,
		projectID, bidder,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check bid exists: %w", err)
	}
	return exists, nil
}
