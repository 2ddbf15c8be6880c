package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletTransactionType represents the kind of wallet movement recorded
// in the ledger. Order-payment deductions mutate the balance directly and
// are not recorded as ledger rows.
type WalletTransactionType string

const (
	WalletTransactionDeposit WalletTransactionType = "deposit"
)

// WalletTransactionStatus represents the state of a ledger entry.
type WalletTransactionStatus string

const (
	WalletTransactionCompleted WalletTransactionStatus = "completed"
)

// WalletTransaction is an append-only ledger entry for a user's wallet.
// PaymentIntentID is unique across the ledger when set; that uniqueness is
// the dedupe gate between the synchronous top-up credit and the webhook
// delivery of the same intent.
type WalletTransaction struct {
	ID              uuid.UUID               `json:"id"`
	UserID          string                  `json:"-"`
	Type            WalletTransactionType   `json:"type"`
	Amount          int64                   `json:"amount"`
	PreviousBalance int64                   `json:"previousBalance"`
	NewBalance      int64                   `json:"newBalance"`
	Status          WalletTransactionStatus `json:"status"`
	Description     string                  `json:"description"`
	PaymentIntentID string                  `json:"paymentIntentId,omitempty"`
	ChargeID        string                  `json:"chargeId,omitempty"`
	Method          string                  `json:"method"` // e.g. "card"
	SavedCard       bool                    `json:"savedCard"`
	CreatedAt       time.Time               `json:"createdAt"`
}

// Consistent verifies the deposit arithmetic of the entry.
func (t *WalletTransaction) Consistent() bool {
	return t.NewBalance == t.PreviousBalance+t.Amount
}
