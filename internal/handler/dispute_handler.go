package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type raiseDisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) RaiseDispute(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req raiseDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.arb.RaiseDispute(c.Request.Context(), callerID(c), id, req.Reason)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"dispute": d})
}

func (h *Handler) GetDispute(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}

	d, err := h.query.GetDispute(c.Request.Context(), id)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispute": d})
}

type voteRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

func (h *Handler) VoteOnDispute(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.arb.VoteOnDispute(c.Request.Context(), callerID(c), id, *req.Approve)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispute": d})
}
