package handler

import (
	"checkout-payments/internal/adapter/http/dto"
	"checkout-payments/internal/core/ports"
	"checkout-payments/pkg/apperror"
	"checkout-payments/pkg/response"

	"github.com/gin-gonic/gin"
)

// CardHandler handles saved-card endpoints.
type CardHandler struct {
	cardSvc ports.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardSvc ports.CardService) *CardHandler {
	return &CardHandler{cardSvc: cardSvc}
}

// GetPaymentMethod handles GET /payment-method/:id.
func (h *CardHandler) GetPaymentMethod(c *gin.Context) {
	pm, err := h.cardSvc.GetPaymentMethod(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pm)
}

// SetDefaultCard handles POST /set-default-card.
func (h *CardHandler) SetDefaultCard(c *gin.Context) {
	var req dto.SetDefaultCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.cardSvc.SetDefaultCard(c.Request.Context(), req.CustomerID, req.PaymentMethodID, req.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SuccessResponse{Success: true, Message: "Default card updated"})
}

// ListCards handles GET /cards/:userId.
func (h *CardHandler) ListCards(c *gin.Context) {
	cards, err := h.cardSvc.ListCards(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cards)
}

// AttachPaymentMethod handles POST /attach-payment-method.
func (h *CardHandler) AttachPaymentMethod(c *gin.Context) {
	var req dto.AttachPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	pm, err := h.cardSvc.AttachPaymentMethod(c.Request.Context(), req.PaymentMethodID, req.CustomerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pm)
}

// RemoveCard handles DELETE /card/:paymentMethodId. The owning user comes
// in the request body.
func (h *CardHandler) RemoveCard(c *gin.Context) {
	var req dto.RemoveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.cardSvc.RemoveCard(c.Request.Context(), req.UserID, c.Param("paymentMethodId")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SuccessResponse{Success: true, Message: "Card removed"})
}
