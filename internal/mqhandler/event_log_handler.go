// Package mqhandler holds the worker-side message handlers.
package mqhandler

import (
	"context"
	"encoding/json"
	"hash/fnv"

	"go.uber.org/zap"

	"bidvault/internal/repository"
	"bidvault/pkg/metrics"
	"bidvault/pkg/util"
)

// EventLogHandler consumes every engine event off the broker and records it
// in the audit trail. Delivery is at-least-once; the Redis deduper plus the
// event_log unique key make the record effectively exactly-once.
type EventLogHandler struct {
	repo    *repository.EventLogRepo
	deduper *util.Deduper
	logger  *zap.Logger
}

func NewEventLogHandler(repo *repository.EventLogRepo, deduper *util.Deduper, logger *zap.Logger) *EventLogHandler {
	return &EventLogHandler{repo: repo, deduper: deduper, logger: logger}
}

// Handle implements mq.MessageHandler.
func (h *EventLogHandler) Handle(ctx context.Context, routingKey string, data json.RawMessage) error {
	eventID := fingerprint(routingKey, data)

	if !h.deduper.AcquireOnce(ctx, "event_log", eventID) {
		h.logger.Debug("Duplicate event skipped",
			zap.String("routing_key", routingKey),
			zap.Int64("event_id", eventID),
		)
		return nil
	}

	if err := h.repo.Record(ctx, eventID, routingKey, data); err != nil {
		return err
	}

	metrics.IncrementAuditEvent(routingKey)
	h.logger.Info("Event recorded",
		zap.String("routing_key", routingKey),
		zap.Int64("event_id", eventID),
	)
	return nil
}

// fingerprint derives a stable id from the routing key and body. Published
// messages carry no envelope id, so identity is content-based.
func fingerprint(routingKey string, body []byte) int64 {
	f := fnv.New64a()
	f.Write([]byte(routingKey))
	f.Write([]byte{0})
	f.Write(body)
	return int64(f.Sum64())
}
