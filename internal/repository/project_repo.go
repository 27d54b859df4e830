package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"bidvault/internal/engine"
	"bidvault/internal/model"
)

const projectColumns = `id, owner_id, description, budget, deadline, selected_bidder, active, dispute_raised, created_at`

func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO projects (owner_id, description, budget, deadline, selected_bidder, active, dispute_raised)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		p.Owner, p.Description, p.Budget, p.Deadline, p.SelectedBidder, p.Active, p.DisputeRaised,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	for i, amount := range p.Milestones {
		if _, err := s.q.Exec(ctx, `
			INSERT INTO milestones (project_id, idx, amount, paid)
			VALUES ($1, $2, $3, false)`,
			p.ID, i, amount,
		); err != nil {
			return fmt.Errorf("insert milestone %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id int) (*model.Project, error) {
	return s.getProject(ctx, id, false)
}

// GetProjectForUpdate locks the project row for the rest of the transaction.
// Milestone rows are not locked separately; the project row is the
// serialization point for everything under it.
func (s *Store) GetProjectForUpdate(ctx context.Context, id int) (*model.Project, error) {
	return s.getProject(ctx, id, true)
}

func (s *Store) getProject(ctx context.Context, id int, forUpdate bool) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	p := &model.Project{}
	err := s.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Owner, &p.Description, &p.Budget, &p.Deadline,
		&p.SelectedBidder, &p.Active, &p.DisputeRaised, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select project: %w", err)
	}

	if err := s.loadMilestones(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) loadMilestones(ctx context.Context, p *model.Project) error {
	rows, err := s.q.Query(ctx, `
		SELECT amount, paid FROM milestones
		WHERE project_id = $1 ORDER BY idx`, p.ID)
	if err != nil {
		return fmt.Errorf("select milestones: %w", err)
	}
	defer rows.Close()

	p.Milestones = p.Milestones[:0]
	p.MilestonePaid = p.MilestonePaid[:0]
	for rows.Next() {
		var (
			amount int64
			paid   bool
		)
		if err := rows.Scan(&amount, &paid); err != nil {
			return fmt.Errorf("scan milestone: %w", err)
		}
		p.Milestones = append(p.Milestones, amount)
		p.MilestonePaid = append(p.MilestonePaid, paid)
	}
	return rows.Err()
}

func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.q.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(
			&p.ID, &p.Owner, &p.Description, &p.Budget, &p.Deadline,
			&p.SelectedBidder, &p.Active, &p.DisputeRaised, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		if err := s.loadMilestones(ctx, &projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (s *Store) SetSelectedBidder(ctx context.Context, projectID, bidder int) error {
	return s.updateProject(ctx, `UPDATE projects SET selected_bidder = $2 WHERE id = $1`, projectID, bidder)
}

func (s *Store) SetDeadline(ctx context.Context, projectID int, deadline time.Time) error {
	return s.updateProject(ctx, `UPDATE projects SET deadline = $2 WHERE id = $1`, projectID, deadline)
}

func (s *Store) SetActive(ctx context.Context, projectID int, active bool) error {
	return s.updateProject(ctx, `UPDATE projects SET active = $2 WHERE id = $1`, projectID, active)
}

func (s *Store) SetDisputeRaised(ctx context.Context, projectID int, raised bool) error {
	return s.updateProject(ctx, `UPDATE projects SET dispute_raised = $2 WHERE id = $1`, projectID, raised)
}

func (s *Store) updateProject(ctx context.Context, query string, args ...any) error {
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (s *Store) MarkMilestonePaid(ctx context.Context, projectID, index int) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE milestones SET paid = true
		WHERE project_id = $1 AND idx = $2`, projectID, index)
	if err != nil {
		return fmt.Errorf("mark milestone paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrInvalidIndex
	}
	return nil
}
