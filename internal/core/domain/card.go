package domain

import "time"

// SavedCard is the per-user summary of a stored payment method. Identity
// is the processor's payment-method id, unique within one user's list.
type SavedCard struct {
	ID        string    `json:"id"`
	Brand     string    `json:"brand"`
	Last4     string    `json:"last4"`
	ExpMonth  int64     `json:"expMonth"`
	ExpYear   int64     `json:"expYear"`
	CreatedAt time.Time `json:"createdAt"`
}

// CardDetails carries the card fields of a processor payment method.
type CardDetails struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"expMonth"`
	ExpYear  int64  `json:"expYear"`
}

// PaymentMethod is the processor-side payment method as this service
// exposes it to clients.
type PaymentMethod struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	CustomerID string       `json:"customerId,omitempty"`
	Card       *CardDetails `json:"card,omitempty"`
	Created    int64        `json:"created,omitempty"` // Unix seconds, processor-assigned
}

// Summary converts a card-type payment method into the saved-card shape.
// The stored creation time is assigned at persistence.
func (pm *PaymentMethod) Summary() SavedCard {
	sc := SavedCard{ID: pm.ID}
	if pm.Card != nil {
		sc.Brand = pm.Card.Brand
		sc.Last4 = pm.Card.Last4
		sc.ExpMonth = pm.Card.ExpMonth
		sc.ExpYear = pm.Card.ExpYear
	}
	return sc
}
