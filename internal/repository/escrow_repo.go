package repository

import (
	"context"
	"fmt"

	"bidvault/internal/engine"
)

func (s *Store) EscrowBalance(ctx context.Context, projectID int) (int64, error) {
	var balance int64
	err := s.q.QueryRow(ctx, `
		SELECT COALESCE(
			(SELECT balance FROM escrow_accounts WHERE project_id = $1), 0)`,
		projectID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("select escrow balance: %w", err)
	}
	return balance, nil
}

func (s *Store) CreditEscrow(ctx context.Context, projectID int, amount int64) error {
	if _, err := s.q.Exec(ctx, `
		INSERT INTO escrow_accounts (project_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (project_id)
		DO UPDATE SET balance = escrow_accounts.balance + EXCLUDED.balance`,
		projectID, amount,
	); err != nil {
		return fmt.Errorf("credit escrow: %w", err)
	}
	return nil
}

// DebitEscrow decrements atomically; the WHERE clause makes an overdraft
// impossible even if a caller skipped the balance check.
func (s *Store) DebitEscrow(ctx context.Context, projectID int, amount int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE escrow_accounts SET balance = balance - $2
		WHERE project_id = $1 AND balance >= $2`,
		projectID, amount,
	)
	if err != nil {
		return fmt.Errorf("debit escrow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrInsufficientFunds
	}
	return nil
}

func (s *Store) CreditParty(ctx context.Context, userID int, amount int64) error {
	if _, err := s.q.Exec(ctx, `
		INSERT INTO party_balances (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET balance = party_balances.balance + EXCLUDED.balance`,
		userID, amount,
	); err != nil {
		return fmt.Errorf("credit party: %w", err)
	}
	return nil
}

func (s *Store) PartyBalance(ctx context.Context, userID int) (int64, error) {
	var balance int64
	err := s.q.QueryRow(ctx, `
		SELECT COALESCE(
			(SELECT balance FROM party_balances WHERE user_id = $1), 0)`,
		userID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("select party balance: %w", err)
	}
	return balance, nil
}
