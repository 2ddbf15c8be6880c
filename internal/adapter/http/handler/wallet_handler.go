package handler

import (
	"checkout-payments/internal/adapter/http/dto"
	"checkout-payments/internal/core/ports"
	"checkout-payments/pkg/apperror"
	"checkout-payments/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// AddMoney handles POST /add-money-to-wallet.
func (h *WalletHandler) AddMoney(c *gin.Context) {
	var req dto.AddMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.walletSvc.AddMoney(c.Request.Context(), ports.AddMoneyRequest{
		Amount:          req.Amount,
		UserID:          req.UserID,
		PaymentMethodID: req.PaymentMethodID,
		SaveCard:        req.SaveCard,
		Currency:        req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.AddMoneyResponse{
		Success:              true,
		PaymentIntentID:      result.PaymentIntentID,
		Status:               result.Status,
		RequiresConfirmation: result.RequiresConfirmation,
	}
	// Balance fields are only meaningful once the top-up actually credited.
	if result.Credited {
		resp.AmountAdded = &result.AmountAdded
		resp.NewBalance = &result.NewBalance
	}

	response.OK(c, resp)
}

// GetWallet handles GET /wallet/:userId.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	view, err := h.walletSvc.GetWallet(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}
