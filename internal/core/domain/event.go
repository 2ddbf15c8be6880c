package domain

import "strconv"

// EventType discriminates the closed set of processor notifications the
// reconciliation engine understands. Anything else maps to
// EventTypeUnknown and is ignored.
type EventType string

const (
	EventTypePaymentIntentSucceeded EventType = "payment_intent.succeeded"
	EventTypePaymentIntentFailed    EventType = "payment_intent.payment_failed"
	EventTypeSetupIntentSucceeded   EventType = "setup_intent.succeeded"
	EventTypeUnknown                EventType = "unknown"
)

// Metadata keys written by the intent issuer and read back from webhook
// events. The processor stores metadata as string pairs.
const (
	MetadataOrderID      = "orderId"
	MetadataUserID       = "userId"
	MetadataWalletAmount = "walletAmount"
	MetadataType         = "type"
	MetadataSaveCard     = "saveCard"

	MetadataTypeWalletTopup = "wallet_topup"
)

// WebhookEvent is a verified processor event. Exactly one of the snapshot
// fields is populated, according to Type.
type WebhookEvent struct {
	ID            string
	Type          EventType
	PaymentIntent *PaymentIntentSnapshot
	SetupIntent   *SetupIntentSnapshot
}

// PaymentIntentSnapshot carries the intent fields the engine consumes.
type PaymentIntentSnapshot struct {
	ID              string
	Amount          int64
	Currency        string
	Status          string
	CustomerID      string
	PaymentMethodID string
	LatestChargeID  string
	FailureMessage  string
	Metadata        map[string]string
}

// OrderID returns the order identity from the intent metadata, or "".
func (p *PaymentIntentSnapshot) OrderID() string {
	return p.Metadata[MetadataOrderID]
}

// UserID returns the user identity from the intent metadata, or "".
func (p *PaymentIntentSnapshot) UserID() string {
	return p.Metadata[MetadataUserID]
}

// WalletAmount returns the wallet offset recorded at intent creation, in
// minor units. Missing or malformed values parse as 0.
func (p *PaymentIntentSnapshot) WalletAmount() int64 {
	raw, ok := p.Metadata[MetadataWalletAmount]
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// IsWalletTopup reports whether the intent was issued by the wallet
// top-up path rather than an order checkout.
func (p *PaymentIntentSnapshot) IsWalletTopup() bool {
	return p.Metadata[MetadataType] == MetadataTypeWalletTopup
}

// SaveCardRequested reports whether the top-up asked for the card used to
// be stored on success.
func (p *PaymentIntentSnapshot) SaveCardRequested() bool {
	return p.Metadata[MetadataSaveCard] == "true"
}

// SetupIntentSnapshot carries the setup-intent fields the engine consumes.
type SetupIntentSnapshot struct {
	ID              string
	CustomerID      string
	PaymentMethodID string
	Metadata        map[string]string
}
