package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`     // Processor-reported message, when present
	RemoteCode string `json:"remote_code,omitempty"` // Processor-reported error code, when present
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Payment Business Logic (PAY) ----

func ErrInvalidAmount() *AppError {
	return New("PAY_001", "Invalid amount", http.StatusBadRequest)
}

func ErrMissingFields(fields string) *AppError {
	return New("PAY_002", fmt.Sprintf("Missing required fields: %s", fields), http.StatusBadRequest)
}

func ErrUserNotFound() *AppError {
	return New("PAY_003", "User not found", http.StatusNotFound)
}

// ErrOrderNotFound is only ever logged; webhook handling drops the event
// and still acknowledges receipt.
func ErrOrderNotFound(orderID string) *AppError {
	return New("PAY_004", fmt.Sprintf("Order %s not found", orderID), http.StatusNotFound)
}

// ErrInsufficientWalletBalance is only ever logged; the order payment
// proceeds without the wallet deduction.
func ErrInsufficientWalletBalance() *AppError {
	return New("PAY_005", "Insufficient wallet balance", http.StatusPaymentRequired)
}

func ErrAttachFailed(details string) *AppError {
	e := New("PAY_006", "Could not attach payment method", http.StatusBadRequest)
	e.Details = details
	return e
}

func ErrCardNotFound() *AppError {
	return New("PAY_007", "Card not found", http.StatusNotFound)
}

// ---- Webhook Security (SEC) ----

func ErrSignatureVerification(err error) *AppError {
	return Wrap("SEC_001", "Webhook signature verification failed", http.StatusBadRequest, err)
}

// ---- External Processor (EXT) ----

// ErrProcessor wraps a payment-processor failure, preserving the
// processor-reported type, code and message for the response body.
func ErrProcessor(errType, code, message string, err error) *AppError {
	m := "Payment processor error"
	if errType != "" {
		m = fmt.Sprintf("Payment processor error: %s", errType)
	}
	return &AppError{
		Code:       "EXT_001",
		Message:    m,
		Details:    message,
		RemoteCode: code,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a PAY_002-style validation error.
func Validation(message string) *AppError {
	return New("PAY_002", message, http.StatusBadRequest)
}
