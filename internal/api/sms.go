package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// sendVerification starts the code flow for an arbitrary phone number
func (h *Handler) sendVerification(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.sms.SendCodeToPhone(c.Request.Context(), req.Phone); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

// verifyCode checks a code sent to an arbitrary phone number
func (h *Handler) verifyCode(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.sms.CheckCode(c.Request.Context(), req.Phone, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Code verified"})
}

// verifyPhone sends a code to the authenticated user's own phone
func (h *Handler) verifyPhone(c *gin.Context) {
	if err := h.sms.SendVerificationCode(c.Request.Context(), currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

// confirmPhone checks the code and marks the user's phone verified
func (h *Handler) confirmPhone(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.sms.ConfirmPhone(c.Request.Context(), currentUser(c), req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone verified"})
}

// adminSendSMS sends an arbitrary message to one or many recipients
func (h *Handler) adminSendSMS(c *gin.Context) {
	var req struct {
		Phones  []string `json:"phones" binding:"required,min=1"`
		Message string   `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var err error
	if len(req.Phones) == 1 {
		err = h.sms.Send(c.Request.Context(), req.Phones[0], req.Message)
	} else {
		err = h.sms.SendBulk(c.Request.Context(), req.Phones, req.Message)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "SMS sent"})
}

func (h *Handler) smsCredit(c *gin.Context) {
	credit, err := h.sms.Credit(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credit": credit})
}
