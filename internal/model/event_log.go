package model

import (
	"encoding/json"
	"time"
)

// EventLogEntry is one audited engine event, written by the worker.
type EventLogEntry struct {
	ID         int64           `json:"id"`
	EventID    int64           `json:"event_id"`
	RoutingKey string          `json:"routing_key"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}
