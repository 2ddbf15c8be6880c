package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"checkout-payments/internal/core/domain"
	"checkout-payments/internal/core/ports"
	"checkout-payments/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	depositDescription = "Wallet top-up"
	depositMethod      = "card"

	walletHistoryLimit = 50
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	userRepo     ports.UserRepository
	cardRepo     ports.CardRepository
	walletTxRepo ports.WalletTransactionRepository
	customers    ports.CustomerService
	processor    ports.PaymentProcessor
	transactor   ports.DBTransactor
	publisher    ports.EventPublisher
	currency     string
	log          zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl. publisher may be nil.
func NewWalletService(
	userRepo ports.UserRepository,
	cardRepo ports.CardRepository,
	walletTxRepo ports.WalletTransactionRepository,
	customers ports.CustomerService,
	processor ports.PaymentProcessor,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	currency string,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		userRepo:     userRepo,
		cardRepo:     cardRepo,
		walletTxRepo: walletTxRepo,
		customers:    customers,
		processor:    processor,
		transactor:   transactor,
		publisher:    publisher,
		currency:     currency,
		log:          log,
	}
}

// AddMoney charges the full amount through the processor and, only when
// the intent comes back already succeeded (off-session confirm with a
// stored card), credits the wallet immediately. Any other status leaves
// the credit to the success webhook. The ledger's unique intent-id gate
// keeps the two paths from double-crediting.
func (s *WalletServiceImpl) AddMoney(ctx context.Context, req ports.AddMoneyRequest) (*ports.AddMoneyResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.UserID == "" {
		return nil, apperror.ErrMissingFields("userId")
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}

	customerID, err := s.customers.GetOrCreateCustomer(ctx, req.UserID, user.Email)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	params := ports.CreateIntentParams{
		Amount:     req.Amount,
		Currency:   currency,
		CustomerID: customerID,
		Metadata: map[string]string{
			domain.MetadataUserID:   req.UserID,
			domain.MetadataType:     domain.MetadataTypeWalletTopup,
			domain.MetadataSaveCard: strconv.FormatBool(req.SaveCard),
		},
	}
	if req.PaymentMethodID != "" {
		params.PaymentMethodID = req.PaymentMethodID
		params.Confirm = true
		params.OffSession = true
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, processorError(err)
	}

	// Anything short of succeeded still needs the client to finish the
	// flow (confirmation, 3DS action), so the flag is status-negated
	// rather than the issuer's two-status derivation.
	res := &ports.AddMoneyResult{
		PaymentIntentID:      intent.ID,
		Status:               intent.Status,
		RequiresConfirmation: intent.Status != intentStatusSucceeded,
	}

	if intent.Status != intentStatusSucceeded {
		s.log.Info().
			Str("payment_intent_id", intent.ID).
			Str("user_id", req.UserID).
			Str("status", intent.Status).
			Msg("top-up awaiting confirmation, wallet not credited yet")
		return res, nil
	}

	newBalance, credited, err := s.credit(ctx, req.UserID, req.Amount, intent, req.SaveCard)
	if err != nil {
		return nil, err
	}
	res.Credited = true
	res.AmountAdded = req.Amount
	res.NewBalance = newBalance

	if credited {
		s.log.Info().
			Str("payment_intent_id", intent.ID).
			Str("user_id", req.UserID).
			Int64("amount", req.Amount).
			Int64("new_balance", newBalance).
			Msg("wallet credited")
		s.publish(ctx, ports.EventWalletCredited, map[string]interface{}{
			"userId":     req.UserID,
			"amount":     req.Amount,
			"newBalance": newBalance,
		})
	}

	if req.SaveCard && req.PaymentMethodID != "" {
		s.saveCard(ctx, req.UserID, req.PaymentMethodID)
	}

	return res, nil
}

// credit appends the deposit ledger row and moves the balance inside one
// transaction. Returns the resulting balance and whether this call was
// the one that applied the credit (false when the webhook got there
// first).
func (s *WalletServiceImpl) credit(ctx context.Context, userID string, amount int64, intent *ports.PaymentIntent, saveCard bool) (int64, bool, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, false, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	prev, err := s.userRepo.BalanceForUpdate(ctx, tx, userID)
	if err != nil {
		return 0, false, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}

	entry := &domain.WalletTransaction{
		ID:              uuid.New(),
		UserID:          userID,
		Type:            domain.WalletTransactionDeposit,
		Amount:          amount,
		PreviousBalance: prev,
		NewBalance:      prev + amount,
		Status:          domain.WalletTransactionCompleted,
		Description:     depositDescription,
		PaymentIntentID: intent.ID,
		ChargeID:        intent.LatestChargeID,
		Method:          depositMethod,
		SavedCard:       saveCard,
		CreatedAt:       time.Now().UTC(),
	}
	inserted, err := s.walletTxRepo.Create(ctx, tx, entry)
	if err != nil {
		return 0, false, apperror.InternalError(fmt.Errorf("append wallet ledger: %w", err))
	}
	if !inserted {
		// The webhook delivery of this intent credited the wallet first;
		// prev already includes the amount.
		s.log.Info().
			Str("payment_intent_id", intent.ID).
			Str("user_id", userID).
			Msg("wallet already credited for this intent")
		return prev, false, nil
	}

	newBalance, err := s.userRepo.CreditWallet(ctx, tx, userID, amount)
	if err != nil {
		return 0, false, apperror.InternalError(fmt.Errorf("credit wallet: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, false, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	return newBalance, true, nil
}

// GetWallet returns the current balance with the most recent ledger rows.
func (s *WalletServiceImpl) GetWallet(ctx context.Context, userID string) (*ports.WalletView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}

	txs, err := s.walletTxRepo.ListByUser(ctx, userID, walletHistoryLimit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallet transactions: %w", err))
	}

	return &ports.WalletView{
		Balance:      user.WalletBalance,
		Transactions: txs,
	}, nil
}

// saveCard stores the card used for a top-up when the caller asked for
// it. Best effort: failures are logged, duplicates skipped by the store.
func (s *WalletServiceImpl) saveCard(ctx context.Context, userID, paymentMethodID string) {
	pm, err := s.processor.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("payment_method_id", paymentMethodID).
			Msg("could not fetch payment method to save")
		return
	}

	card := pm.Summary()
	card.CreatedAt = time.Now().UTC()
	added, err := s.cardRepo.Add(ctx, userID, card)
	if err != nil {
		s.log.Warn().Err(err).
			Str("payment_method_id", paymentMethodID).
			Str("user_id", userID).
			Msg("could not save card")
		return
	}
	if added {
		s.log.Info().
			Str("payment_method_id", paymentMethodID).
			Str("user_id", userID).
			Msg("card saved after top-up")
		s.publish(ctx, ports.EventCardSaved, map[string]interface{}{
			"userId":          userID,
			"paymentMethodId": paymentMethodID,
		})
	}
}

// publish fires a broker notification when a publisher is wired.
// Failures are logged and never propagate.
func (s *WalletServiceImpl) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("event publish failed")
	}
}
