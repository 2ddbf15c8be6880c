package ports

import (
	"context"
	"fmt"
	"strings"

	"checkout-payments/internal/core/domain"
)

// CreateIntentParams carries a payment-intent request to the processor.
type CreateIntentParams struct {
	Amount          int64
	Currency        string
	CustomerID      string
	PaymentMethodID string // optional
	Confirm         bool
	OffSession      bool
	Metadata        map[string]string
}

// PaymentIntent is the processor's view of a created intent.
type PaymentIntent struct {
	ID             string
	ClientSecret   string
	Status         string
	Amount         int64
	LatestChargeID string
}

// SetupIntent is the processor's view of a created setup intent.
type SetupIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// PaymentProcessor is the outbound port to the payment provider. One
// client instance is constructed at startup and injected everywhere.
type PaymentProcessor interface {
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
	CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error)
	CreateSetupIntent(ctx context.Context, customerID, userID string) (*SetupIntent, error)
	GetPaymentMethod(ctx context.Context, paymentMethodID string) (*domain.PaymentMethod, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*domain.PaymentMethod, error)
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	ListPaymentMethods(ctx context.Context, customerID string) ([]domain.SavedCard, error)
}

// WebhookVerifier authenticates a raw webhook payload. The payload must
// be the unparsed request bytes; any re-serialization invalidates the
// signature.
type WebhookVerifier interface {
	Verify(payload []byte, signatureHeader string) (*domain.WebhookEvent, error)
}

// EventPublisher broadcasts domain events after commit, best-effort.
// A nil publisher disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
	Close()
}

// Integration event types, appended to the configured subject prefix.
const (
	EventOrderPaid      = "order.paid"
	EventOrderFailed    = "order.failed"
	EventWalletCredited = "wallet.credited"
	EventCardSaved      = "card.saved"
)

// ProcessorError carries the processor-reported error triple across the
// port boundary so services can map it without importing the SDK.
type ProcessorError struct {
	Type    string
	Code    string
	Message string
	Err     error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor error [%s/%s]: %s", e.Type, e.Code, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}

// IsResourceMissing reports the processor could not find the referenced
// object (e.g. an unknown payment-method id).
func (e *ProcessorError) IsResourceMissing() bool {
	return e.Code == "resource_missing"
}

// IsAlreadyAttached reports an attach of a payment method that is already
// bound to a customer. Callers treating attach as idempotent swallow it.
func (e *ProcessorError) IsAlreadyAttached() bool {
	return strings.Contains(e.Message, "already been attached")
}
