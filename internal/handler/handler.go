// Package handler holds the gin handlers of the HTTP API. Handlers decode
// and validate transport concerns only; every domain decision is the
// engine's.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bidvault/internal/engine"
	"bidvault/internal/model"
	"bidvault/internal/service/auth"
	"bidvault/internal/service/query"
)

type Handler struct {
	registry *engine.ProjectRegistry
	ledger   *engine.BidLedger
	vault    *engine.EscrowVault
	arb      *engine.DisputeArbitration
	query    *query.Service
	auth     *auth.Service
	logger   *zap.Logger
}

func New(
	registry *engine.ProjectRegistry,
	ledger *engine.BidLedger,
	vault *engine.EscrowVault,
	arb *engine.DisputeArbitration,
	querySvc *query.Service,
	authSvc *auth.Service,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		registry: registry,
		ledger:   ledger,
		vault:    vault,
		arb:      arb,
		query:    querySvc,
		auth:     authSvc,
		logger:   logger,
	}
}

// callerID returns the authenticated user id set by the auth middleware.
func callerID(c *gin.Context) int {
	return c.GetInt("user_id")
}

func pathInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

// writeEngineError maps engine sentinels onto HTTP statuses: role failures
// are 403, missing records 404, state conflicts 409, bad input 400.
func (h *Handler) writeEngineError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrInvalidIndex):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidState),
		errors.Is(err, engine.ErrAlreadyPaid),
		errors.Is(err, engine.ErrAlreadyResolved),
		errors.Is(err, engine.ErrDuplicateVote),
		errors.Is(err, engine.ErrDuplicateBid),
		errors.Is(err, engine.ErrInsufficientFunds):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrInvalidSchedule),
		errors.Is(err, engine.ErrInvalidDeadline),
		errors.Is(err, engine.ErrInvalidAmount):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusOf derives the lifecycle label clients see.
func statusOf(p *model.Project) string {
	switch {
	case !p.Active:
		return "closed"
	case p.DisputeRaised:
		return "disputed"
	case p.SelectedBidder != model.NoBidder:
		return "in_progress"
	default:
		return "open"
	}
}
