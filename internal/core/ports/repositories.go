package ports

import (
	"context"
	"time"

	"checkout-payments/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for user records.
// Methods accepting pgx.Tx run inside reconciliation transaction blocks.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByCustomerID(ctx context.Context, customerID string) (*domain.User, error)
	// SetStripeCustomerID is a field-level merge; no other column is touched.
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	// SetDefaultCard mirrors the processor-side default. nil clears it.
	SetDefaultCard(ctx context.Context, userID string, paymentMethodID *string) error
	// BalanceForUpdate locks the user row and returns the current balance.
	BalanceForUpdate(ctx context.Context, tx pgx.Tx, userID string) (int64, error)
	// CreditWallet adds amount and returns the new balance.
	CreditWallet(ctx context.Context, tx pgx.Tx, userID string, amount int64) (int64, error)
	// DeductWallet subtracts amount only when the balance stays non-negative.
	// Returns false when the balance was insufficient; nothing is written.
	DeductWallet(ctx context.Context, tx pgx.Tx, userID string, amount int64) (bool, error)
	// AppendOrderHistory unions orderID into the user's order history.
	// Returns false when the order was already recorded.
	AppendOrderHistory(ctx context.Context, tx pgx.Tx, userID, orderID string) (bool, error)
	OrderHistory(ctx context.Context, userID string) ([]string, error)
}

// CardRepository defines persistence operations for saved-card summaries.
type CardRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.SavedCard, error)
	Exists(ctx context.Context, userID, paymentMethodID string) (bool, error)
	// Add appends the summary. Returns false when the id was already saved
	// for this user.
	Add(ctx context.Context, userID string, card domain.SavedCard) (bool, error)
	// Remove filters the id out of the user's list. Returns false when the
	// id was not present.
	Remove(ctx context.Context, userID, paymentMethodID string) (bool, error)
	// ReplaceAll rewrites the user's saved list from the processor's view
	// inside the caller's transaction (read-repair after a partial card
	// removal).
	ReplaceAll(ctx context.Context, tx pgx.Tx, userID string, cards []domain.SavedCard) error
}

// MarkPaidParams carries the processor identities recorded on the paid
// transition.
type MarkPaidParams struct {
	OrderID         string
	PaymentIntentID string
	ChargeID        string
}

// OrderRepository defines persistence operations for orders. Orders are
// created by the storefront; only payment fields are written here.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// MarkPaid performs the conditional paid transition
	// (payment_status <> 'paid' guard). Returns false when the order was
	// already paid, i.e. a duplicate delivery.
	MarkPaid(ctx context.Context, tx pgx.Tx, params MarkPaidParams) (bool, error)
	// MarkFailed records the failure unconditionally. Returns false when
	// no such order exists.
	MarkFailed(ctx context.Context, orderID, reason, paymentIntentID string) (bool, error)
}

// WalletTransactionRepository defines persistence for the deposit ledger.
type WalletTransactionRepository interface {
	// Create appends a ledger row. Returns false when a row for the same
	// payment intent already exists (duplicate credit attempt).
	Create(ctx context.Context, tx pgx.Tx, wtx *domain.WalletTransaction) (bool, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.WalletTransaction, error)
}

// ReconciliationLogRepository persists the webhook audit trail.
type ReconciliationLogRepository interface {
	Create(ctx context.Context, rec *domain.ReconciliationRecord) error
}

// EventSeenStore is the Redis fast-path duplicate filter for webhook
// events. It is an optimization only; the conditional writes in Postgres
// remain the authoritative idempotency gates.
type EventSeenStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	// MarkSeen is called only after an event was handled successfully, so
	// a crash mid-processing leaves the event eligible for redelivery.
	MarkSeen(ctx context.Context, eventID string, ttl time.Duration) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
