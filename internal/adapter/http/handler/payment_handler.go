package handler

import (
	"checkout-payments/internal/adapter/http/dto"
	"checkout-payments/internal/core/ports"
	"checkout-payments/pkg/apperror"
	"checkout-payments/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles checkout intent endpoints.
type PaymentHandler struct {
	intentSvc ports.PaymentIntentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(intentSvc ports.PaymentIntentService) *PaymentHandler {
	return &PaymentHandler{intentSvc: intentSvc}
}

// CreatePaymentIntent handles POST /create-payment-intent.
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req dto.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.intentSvc.CreatePaymentIntent(c.Request.Context(), ports.CreatePaymentIntentRequest{
		Amount:          req.Amount,
		OrderID:         req.OrderID,
		UserID:          req.UserID,
		PaymentMethodID: req.PaymentMethodID,
		WalletAmount:    req.WalletAmount,
		Currency:        req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.CreatePaymentIntentResponse{
		ClientSecret:         result.ClientSecret,
		PaymentIntentID:      result.PaymentIntentID,
		WalletOnly:           result.WalletOnly,
		Status:               result.Status,
		RequiresConfirmation: result.RequiresConfirmation,
	})
}

// CreateSetupIntent handles POST /create-setup-intent.
func (h *PaymentHandler) CreateSetupIntent(c *gin.Context) {
	var req dto.CreateSetupIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.intentSvc.CreateSetupIntent(c.Request.Context(), req.UserID, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.CreateSetupIntentResponse{
		ClientSecret:  result.ClientSecret,
		SetupIntentID: result.SetupIntentID,
	})
}
