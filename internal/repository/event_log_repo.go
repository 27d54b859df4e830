package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"bidvault/internal/model"
)

// EventLogRepo persists the audit trail built by the worker from consumed
// broker messages. Separate from Store: the worker never participates in
// engine transactions.
type EventLogRepo struct {
	db *pgxpool.Pool
}

func NewEventLogRepo(db *pgxpool.Pool) *EventLogRepo {
	return &EventLogRepo{db: db}
}

// Record inserts one consumed event. event_id carries the consumer's dedup
// key; ON CONFLICT makes a redelivered message a no-op at the database level
// as well.
func (r *EventLogRepo) Record(ctx context.Context, eventID int64, routingKey string, payload json.RawMessage) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO event_log (event_id, routing_key, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING`,
		eventID, routingKey, payload,
	); err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first.
func (r *EventLogRepo) Recent(ctx context.Context, limit int) ([]model.EventLogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, event_id, routing_key, payload, recorded_at
		FROM event_log ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select event log: %w", err)
	}
	defer rows.Close()

	var entries []model.EventLogEntry
	for rows.Next() {
		var e model.EventLogEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.RoutingKey, &e.Payload, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan event log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
