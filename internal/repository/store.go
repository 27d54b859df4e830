// Package repository is the Postgres implementation of engine.Storage plus
// the user and audit-log repositories. All engine writes run inside InTx;
// domain events land in the outbox table within the same transaction.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bidvault/internal/engine"
	"bidvault/pkg/outbox"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// same query methods serve both the pooled and the transaction-bound store.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool   *pgxpool.Pool
	outbox *outbox.Repository

	// q is the pool outside a transaction and the pgx.Tx inside one.
	q  querier
	tx pgx.Tx
}

var _ engine.Storage = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, ob *outbox.Repository) *Store {
	return &Store{pool: pool, outbox: ob, q: pool}
}

// InTx runs fn against a transaction-bound copy of the store. fn returning
// an error rolls everything back, including staged outbox events.
func (s *Store) InTx(ctx context.Context, fn func(engine.Storage) error) error {
	if s.tx != nil {
		return errors.New("nested transactions are not supported")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	bound := &Store{pool: s.pool, outbox: s.outbox, q: tx, tx: tx}
	if err := fn(bound); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AppendEvent stages a domain event in the outbox table so it commits or
// rolls back with the state change that produced it.
func (s *Store) AppendEvent(ctx context.Context, aggregateType string, aggregateID int64, routingKey string, payload any) error {
	if s.tx == nil {
		return errors.New("AppendEvent requires an open transaction")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	return s.outbox.InsertEvent(ctx, s.tx, &outbox.Event{
		AggregateType: aggregateType,
		AggregateID:   &aggregateID,
		RoutingKey:    routingKey,
		Payload:       body,
		Status:        "pending",
	})
}
