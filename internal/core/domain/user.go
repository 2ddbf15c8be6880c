package domain

import "time"

// User is the client application's account record, keyed by the
// application's own user id. Users are created externally; this service
// only mutates payment-related fields and never deletes the record.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email,omitempty"`
	StripeCustomerID *string   `json:"stripeCustomerId,omitempty"` // Created lazily on first payment
	WalletBalance    int64     `json:"walletBalance"`              // Minor currency units, never negative
	DefaultCardID    *string   `json:"defaultCardId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CustomerID returns the linked processor customer id, or "" when none
// has been created yet.
func (u *User) CustomerID() string {
	if u.StripeCustomerID == nil {
		return ""
	}
	return *u.StripeCustomerID
}

// CanCover reports whether the wallet can absorb a deduction of amount
// without going negative.
func (u *User) CanCover(amount int64) bool {
	return u.WalletBalance >= amount
}
