package dto

// CreatePaymentIntentRequest is the request body for intent creation.
// Amount and wallet fields are validated by the service so the documented
// error shapes apply; binding only constrains the identifier format.
type CreatePaymentIntentRequest struct {
	Amount          int64  `json:"amount"`
	OrderID         string `json:"orderId" binding:"omitempty,safe_id"`
	UserID          string `json:"userId" binding:"omitempty,safe_id"`
	PaymentMethodID string `json:"paymentMethodId,omitempty" binding:"omitempty,safe_id"`
	WalletAmount    int64  `json:"walletAmount"`
	Currency        string `json:"currency,omitempty" binding:"omitempty,currency"`
}

// CreatePaymentIntentResponse is the response for intent creation. The
// wallet-only short circuit omits the processor intent fields.
type CreatePaymentIntentResponse struct {
	ClientSecret         string `json:"clientSecret,omitempty"`
	PaymentIntentID      string `json:"paymentIntentId,omitempty"`
	WalletOnly           bool   `json:"walletOnly"`
	Status               string `json:"status,omitempty"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
}

// CreateSetupIntentRequest is the request body for setup-intent creation.
type CreateSetupIntentRequest struct {
	UserID string `json:"userId" binding:"omitempty,safe_id"`
	Email  string `json:"email,omitempty"`
}

// CreateSetupIntentResponse is the response for setup-intent creation.
type CreateSetupIntentResponse struct {
	ClientSecret  string `json:"clientSecret"`
	SetupIntentID string `json:"setupIntentId"`
}

// SetDefaultCardRequest is the request body for changing the default card.
type SetDefaultCardRequest struct {
	CustomerID      string `json:"customerId" binding:"omitempty,safe_id"`
	PaymentMethodID string `json:"paymentMethodId" binding:"omitempty,safe_id"`
	UserID          string `json:"userId" binding:"omitempty,safe_id"`
}

// AttachPaymentMethodRequest is the request body for attaching a method.
type AttachPaymentMethodRequest struct {
	PaymentMethodID string `json:"paymentMethodId" binding:"omitempty,safe_id"`
	CustomerID      string `json:"customerId" binding:"omitempty,safe_id"`
}

// RemoveCardRequest is the request body accompanying card removal.
type RemoveCardRequest struct {
	UserID string `json:"userId" binding:"omitempty,safe_id"`
}

// AddMoneyRequest is the request body for a wallet top-up.
type AddMoneyRequest struct {
	Amount          int64  `json:"amount"`
	UserID          string `json:"userId" binding:"omitempty,safe_id"`
	PaymentMethodID string `json:"paymentMethodId,omitempty" binding:"omitempty,safe_id"`
	SaveCard        bool   `json:"saveCard"`
	Currency        string `json:"currency,omitempty" binding:"omitempty,currency"`
}

// AddMoneyResponse is the response for a wallet top-up. AmountAdded and
// NewBalance appear only when this request applied the credit.
type AddMoneyResponse struct {
	Success              bool   `json:"success"`
	PaymentIntentID      string `json:"paymentIntentId"`
	Status               string `json:"status"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	AmountAdded          *int64 `json:"amountAdded,omitempty"`
	NewBalance           *int64 `json:"newBalance,omitempty"`
}

// SuccessResponse is the generic acknowledgement body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
