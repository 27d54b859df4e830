package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type postProjectRequest struct {
	Description string    `json:"description" binding:"required"`
	Budget      int64     `json:"budget" binding:"required,gt=0"`
	Deadline    time.Time `json:"deadline" binding:"required"`
	Milestones  []int64   `json:"milestones" binding:"required,min=1"`
}

func (h *Handler) PostProject(c *gin.Context) {
	var req postProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.registry.PostProject(c.Request.Context(), callerID(c),
		req.Description, req.Budget, req.Deadline, req.Milestones)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": p, "status": statusOf(p)})
}

func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.query.ListProjects(c.Request.Context())
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}

	view, err := h.query.GetProject(c.Request.Context(), id)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": view, "status": statusOf(&view.Project)})
}

func (h *Handler) SelectBid(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	bidIndex, ok := pathInt(c, "bidIndex")
	if !ok {
		return
	}

	if err := h.registry.SelectBid(c.Request.Context(), callerID(c), id, bidIndex); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bid selected"})
}

type extendDeadlineRequest struct {
	Deadline time.Time `json:"deadline" binding:"required"`
}

func (h *Handler) ExtendDeadline(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req extendDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.ExtendDeadline(c.Request.Context(), callerID(c), id, req.Deadline); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deadline extended"})
}

type submitBidRequest struct {
	Amount         int64   `json:"amount" binding:"required,gt=0"`
	CompletionDays int     `json:"completion_days" binding:"required,gt=0"`
	Milestones     []int64 `json:"milestones" binding:"required,min=1"`
}

func (h *Handler) SubmitBid(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req submitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.ledger.SubmitBid(c.Request.Context(), callerID(c), id,
		req.Amount, req.CompletionDays, req.Milestones)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bid": bid})
}

func (h *Handler) ListBids(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}

	bids, err := h.ledger.Bids(c.Request.Context(), id)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}
