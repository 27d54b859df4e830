// Package httpserver assembles the gin router: middleware, the API routes
// and the operational endpoints.
package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bidvault/internal/handler"
)

// ReadinessCheck reports whether downstream dependencies are reachable.
type ReadinessCheck func(ctx context.Context) error

func NewRouter(h *handler.Handler, jwtSecret string, logger *zap.Logger, ready ReadinessCheck) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), LoggingMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	api := r.Group("/", AuthMiddleware(jwtSecret))
	{
		api.POST("/projects", h.PostProject)
		api.GET("/projects", h.ListProjects)
		api.GET("/projects/:id", h.GetProject)
		api.POST("/projects/:id/select/:bidIndex", h.SelectBid)
		api.POST("/projects/:id/deadline", h.ExtendDeadline)

		api.POST("/projects/:id/bids", h.SubmitBid)
		api.GET("/projects/:id/bids", h.ListBids)

		api.POST("/projects/:id/deposit", h.Deposit)
		api.GET("/projects/:id/escrow", h.EscrowBalance)
		api.POST("/projects/:id/milestones/:index/release", h.ReleaseMilestone)
		api.POST("/projects/:id/penalize", h.PenalizeBidder)
		api.GET("/balance", h.PartyBalance)

		api.POST("/projects/:id/disputes", h.RaiseDispute)
		api.GET("/disputes/:id", h.GetDispute)
		api.POST("/disputes/:id/vote", h.VoteOnDispute)
	}

	return r
}
