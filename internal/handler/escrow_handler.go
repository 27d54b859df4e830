package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type depositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

func (h *Handler) Deposit(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.vault.Deposit(c.Request.Context(), callerID(c), id, req.Amount); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "funds deposited"})
}

func (h *Handler) ReleaseMilestone(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	index, ok := pathInt(c, "index")
	if !ok {
		return
	}

	if err := h.vault.ReleaseMilestonePayment(c.Request.Context(), callerID(c), id, index); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "milestone paid"})
}

func (h *Handler) PenalizeBidder(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}

	if err := h.vault.PenalizeBidder(c.Request.Context(), callerID(c), id); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bidder penalized"})
}

func (h *Handler) EscrowBalance(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}

	balance, err := h.query.EscrowBalance(c.Request.Context(), id)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": id, "balance": balance})
}

// PartyBalance returns the caller's withdrawable balance, accumulated from
// milestone payouts and forfeitures.
func (h *Handler) PartyBalance(c *gin.Context) {
	balance, err := h.query.PartyBalance(c.Request.Context(), callerID(c))
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": callerID(c), "balance": balance})
}
