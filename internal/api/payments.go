package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

func (h *Handler) requestPayment(c *gin.Context) {
	var req struct {
		OrderID int64 `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.payments.RequestPayment(c.Request.Context(), currentUser(c), req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// verifyPayment is the gateway callback target. It is a browser endpoint:
// the outcome is always a redirect, never JSON.
func (h *Handler) verifyPayment(c *gin.Context) {
	authority := c.Query("Authority")
	status := c.Query("Status")
	if authority == "" {
		h.redirectFailure(c, "missing payment authority")
		return
	}

	outcome, err := h.payments.VerifyCallback(c.Request.Context(), authority, status)
	if err != nil {
		h.redirectFailure(c, "payment verification failed")
		return
	}
	if !outcome.Success {
		h.redirectFailure(c, outcome.FailReason)
		return
	}

	c.Redirect(http.StatusFound, h.cfg.Payment.SuccessURL+"?refId="+url.QueryEscape(outcome.RefID))
}

func (h *Handler) redirectFailure(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, h.cfg.Payment.FailureURL+"?error="+url.QueryEscape(reason))
}

func (h *Handler) listTransactions(c *gin.Context) {
	page, limit := pagination(c)
	txs, err := h.payments.ListUserTransactions(c.Request.Context(), currentUser(c).ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (h *Handler) listAllTransactions(c *gin.Context) {
	page, limit := pagination(c)
	txs, err := h.payments.ListAllTransactions(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
