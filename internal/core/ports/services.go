package ports

import (
	"context"
	"time"

	"checkout-payments/internal/core/domain"
)

// CustomerService resolves processor customer identities, creating one
// lazily on first use.
type CustomerService interface {
	GetOrCreateCustomer(ctx context.Context, userID, email string) (string, error)
}

// PaymentIntentService issues processor intents for order checkout.
type PaymentIntentService interface {
	CreatePaymentIntent(ctx context.Context, req CreatePaymentIntentRequest) (*PaymentIntentResult, error)
	CreateSetupIntent(ctx context.Context, userID, email string) (*SetupIntentResult, error)
}

// CreatePaymentIntentRequest holds validated input for intent creation.
type CreatePaymentIntentRequest struct {
	Amount          int64
	OrderID         string
	UserID          string
	PaymentMethodID string // optional
	WalletAmount    int64
	Currency        string // defaulted upstream when empty
}

// PaymentIntentResult is the synchronous outcome of intent creation.
// WalletOnly means the wallet covers the full amount and no processor
// intent was issued; the wallet debit happens later, at reconciliation.
type PaymentIntentResult struct {
	ClientSecret         string
	PaymentIntentID      string
	WalletOnly           bool
	Status               string
	RequiresConfirmation bool
}

// SetupIntentResult is the outcome of setup-intent creation.
type SetupIntentResult struct {
	ClientSecret  string
	SetupIntentID string
}

// WalletService handles wallet top-ups and reads.
type WalletService interface {
	AddMoney(ctx context.Context, req AddMoneyRequest) (*AddMoneyResult, error)
	GetWallet(ctx context.Context, userID string) (*WalletView, error)
}

// AddMoneyRequest holds validated input for a wallet top-up.
type AddMoneyRequest struct {
	Amount          int64
	UserID          string
	PaymentMethodID string // optional; auto-confirms off-session when set
	SaveCard        bool
	Currency        string
}

// AddMoneyResult is the synchronous outcome of a top-up. Credited is true
// only when the intent already succeeded and the wallet was mutated.
type AddMoneyResult struct {
	PaymentIntentID      string
	Status               string
	RequiresConfirmation bool
	Credited             bool
	AmountAdded          int64
	NewBalance           int64
}

// WalletView is the read model for a user's wallet.
type WalletView struct {
	Balance      int64                      `json:"balance"`
	Transactions []domain.WalletTransaction `json:"transactions"`
}

// CardService covers saved-card mutations and reads.
type CardService interface {
	SetDefaultCard(ctx context.Context, customerID, paymentMethodID, userID string) error
	RemoveCard(ctx context.Context, userID, paymentMethodID string) error
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*domain.PaymentMethod, error)
	ListCards(ctx context.Context, userID string) ([]domain.SavedCard, error)
	GetPaymentMethod(ctx context.Context, paymentMethodID string) (*domain.PaymentMethod, error)
}

// ReconciliationService applies one verified webhook event. The returned
// outcome is what the engine decided; err is non-nil only for storage or
// processor failures that redelivery might heal.
type ReconciliationService interface {
	HandleEvent(ctx context.Context, evt *domain.WebhookEvent) (domain.ReconcileOutcome, error)
}

// TokenService validates client-application bearer tokens.
type TokenService interface {
	Generate(userID string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID string
}

// AuditService records reconciliation outcomes asynchronously
// (fire-and-forget; never blocks event handling).
type AuditService interface {
	Record(ctx context.Context, rec *domain.ReconciliationRecord)
}
