package service

import (
	"context"
	"fmt"
	"time"

	"checkout-payments/internal/core/domain"
	"checkout-payments/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// seenTTL bounds the Redis fast-path dedupe window. The conditional
// writes below remain the authoritative gate after expiry.
const seenTTL = 24 * time.Hour

// ReconcileServiceImpl implements ports.ReconciliationService: given a
// verified processor event it applies exactly one state transition to
// the order, wallet and saved-card records, idempotently. Preconditions
// that redelivery cannot fix (missing metadata, order or user) drop the
// event; only storage failures surface as errors so the processor
// redelivers.
type ReconcileServiceImpl struct {
	orderRepo    ports.OrderRepository
	userRepo     ports.UserRepository
	cardRepo     ports.CardRepository
	walletTxRepo ports.WalletTransactionRepository
	seen         ports.EventSeenStore
	transactor   ports.DBTransactor
	processor    ports.PaymentProcessor
	audit        ports.AuditService
	publisher    ports.EventPublisher
	log          zerolog.Logger
}

// NewReconcileService creates a new ReconcileServiceImpl. audit and
// publisher may be nil.
func NewReconcileService(
	orderRepo ports.OrderRepository,
	userRepo ports.UserRepository,
	cardRepo ports.CardRepository,
	walletTxRepo ports.WalletTransactionRepository,
	seen ports.EventSeenStore,
	transactor ports.DBTransactor,
	processor ports.PaymentProcessor,
	audit ports.AuditService,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		cardRepo:     cardRepo,
		walletTxRepo: walletTxRepo,
		seen:         seen,
		transactor:   transactor,
		processor:    processor,
		audit:        audit,
		publisher:    publisher,
		log:          log,
	}
}

// HandleEvent dispatches one verified webhook event through the state
// machine and records the outcome. A non-nil error means storage failed
// mid-transition and the caller should have the processor redeliver.
func (s *ReconcileServiceImpl) HandleEvent(ctx context.Context, evt *domain.WebhookEvent) (domain.ReconcileOutcome, error) {
	// Fast-path dupe check; a broken cache degrades to processing because
	// the conditional writes stay authoritative.
	seen, err := s.seen.Seen(ctx, evt.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", evt.ID).Msg("seen-cache check failed, continuing without it")
	}
	if seen {
		s.log.Info().Str("event_id", evt.ID).Msg("event already processed, skipping")
		s.record(ctx, evt, domain.OutcomeDuplicate, "event already processed")
		return domain.OutcomeDuplicate, nil
	}

	var (
		outcome domain.ReconcileOutcome
		detail  string
	)
	switch evt.Type {
	case domain.EventTypePaymentIntentSucceeded:
		outcome, detail, err = s.applySucceeded(ctx, evt.PaymentIntent)
	case domain.EventTypePaymentIntentFailed:
		outcome, detail, err = s.applyFailed(ctx, evt.PaymentIntent)
	case domain.EventTypeSetupIntentSucceeded:
		outcome, detail, err = s.applySetup(ctx, evt.SetupIntent)
	default:
		outcome, detail = domain.OutcomeIgnored, "unhandled event type"
		s.log.Debug().
			Str("event_id", evt.ID).
			Str("event_type", string(evt.Type)).
			Msg("ignoring unhandled event type")
	}
	if err != nil {
		s.record(ctx, evt, domain.OutcomeFailed, err.Error())
		return domain.OutcomeFailed, err
	}

	s.record(ctx, evt, outcome, detail)
	if merr := s.seen.MarkSeen(ctx, evt.ID, seenTTL); merr != nil {
		s.log.Warn().Err(merr).Str("event_id", evt.ID).Msg("could not mark event seen")
	}
	return outcome, nil
}

// applySucceeded routes a succeeded intent to the order-payment or
// wallet top-up arm according to its metadata.
func (s *ReconcileServiceImpl) applySucceeded(ctx context.Context, pi *domain.PaymentIntentSnapshot) (domain.ReconcileOutcome, string, error) {
	if pi == nil {
		return domain.OutcomeDropped, "event carries no intent payload", nil
	}
	if pi.IsWalletTopup() {
		return s.applyTopup(ctx, pi)
	}
	return s.applyOrderPaid(ctx, pi)
}

// applyOrderPaid finalizes an order payment. The paid transition is a
// conditional write on payment_status; zero rows affected means an
// earlier delivery already applied it and the whole event is a no-op.
func (s *ReconcileServiceImpl) applyOrderPaid(ctx context.Context, pi *domain.PaymentIntentSnapshot) (domain.ReconcileOutcome, string, error) {
	orderID, userID := pi.OrderID(), pi.UserID()
	if orderID == "" || userID == "" {
		s.log.Warn().
			Str("payment_intent_id", pi.ID).
			Msg("intent metadata missing orderId or userId, dropping event")
		return domain.OutcomeDropped, "metadata missing orderId or userId", nil
	}

	// The two reads have no ordering dependency; fan out and join.
	var (
		order *domain.Order
		user  *domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		order, err = s.orderRepo.GetByID(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.userRepo.GetByID(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("loading order and user: %w", err)
	}

	if order == nil {
		s.log.Warn().
			Str("order_id", orderID).
			Str("payment_intent_id", pi.ID).
			Msg("order not found, dropping event")
		return domain.OutcomeDropped, "order not found", nil
	}
	if user == nil {
		s.log.Warn().
			Str("user_id", userID).
			Str("order_id", orderID).
			Msg("user not found, dropping event")
		return domain.OutcomeDropped, "user not found", nil
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	applied, err := s.orderRepo.MarkPaid(ctx, tx, ports.MarkPaidParams{
		OrderID:         orderID,
		PaymentIntentID: pi.ID,
		ChargeID:        pi.LatestChargeID,
	})
	if err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("marking order paid: %w", err)
	}
	if !applied {
		s.log.Info().
			Str("order_id", orderID).
			Str("payment_intent_id", pi.ID).
			Msg("order already paid, duplicate delivery")
		return domain.OutcomeDuplicate, "order already paid", nil
	}

	detail := "order marked paid"
	if walletAmount := pi.WalletAmount(); walletAmount > 0 {
		deducted, err := s.userRepo.DeductWallet(ctx, tx, userID, walletAmount)
		if err != nil {
			return domain.OutcomeFailed, "", fmt.Errorf("deducting wallet: %w", err)
		}
		if !deducted {
			// The balance cannot cover the recorded offset. The order is
			// still finalized; the shortfall is advisory, not blocking.
			s.log.Error().
				Str("user_id", userID).
				Str("order_id", orderID).
				Int64("wallet_amount", walletAmount).
				Int64("balance", user.WalletBalance).
				Msg("insufficient wallet balance, deduction skipped")
			detail = "order marked paid, wallet deduction skipped"
		}
	}

	if _, err := s.userRepo.AppendOrderHistory(ctx, tx, userID, orderID); err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("appending order history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("commit tx: %w", err)
	}

	s.log.Info().
		Str("order_id", orderID).
		Str("user_id", userID).
		Str("payment_intent_id", pi.ID).
		Msg("order reconciled as paid")
	s.publish(ctx, ports.EventOrderPaid, map[string]interface{}{
		"orderId":         orderID,
		"userId":          userID,
		"paymentIntentId": pi.ID,
	})
	return domain.OutcomeApplied, detail, nil
}

// applyTopup credits a wallet top-up delivered by webhook. The ledger's
// unique intent-id index is the dedupe gate against the synchronous
// credit path and against redelivery.
func (s *ReconcileServiceImpl) applyTopup(ctx context.Context, pi *domain.PaymentIntentSnapshot) (domain.ReconcileOutcome, string, error) {
	userID := pi.UserID()
	if userID == "" {
		s.log.Warn().
			Str("payment_intent_id", pi.ID).
			Msg("top-up metadata missing userId, dropping event")
		return domain.OutcomeDropped, "metadata missing userId", nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		s.log.Warn().
			Str("user_id", userID).
			Str("payment_intent_id", pi.ID).
			Msg("user not found for top-up, dropping event")
		return domain.OutcomeDropped, "user not found", nil
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	prev, err := s.userRepo.BalanceForUpdate(ctx, tx, userID)
	if err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("lock wallet: %w", err)
	}

	entry := &domain.WalletTransaction{
		ID:              uuid.New(),
		UserID:          userID,
		Type:            domain.WalletTransactionDeposit,
		Amount:          pi.Amount,
		PreviousBalance: prev,
		NewBalance:      prev + pi.Amount,
		Status:          domain.WalletTransactionCompleted,
		Description:     depositDescription,
		PaymentIntentID: pi.ID,
		ChargeID:        pi.LatestChargeID,
		Method:          depositMethod,
		SavedCard:       pi.SaveCardRequested(),
		CreatedAt:       time.Now().UTC(),
	}
	inserted, err := s.walletTxRepo.Create(ctx, tx, entry)
	if err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("append wallet ledger: %w", err)
	}
	if !inserted {
		s.log.Info().
			Str("payment_intent_id", pi.ID).
			Str("user_id", userID).
			Msg("top-up already credited for this intent")
		return domain.OutcomeDuplicate, "top-up already credited", nil
	}

	newBalance, err := s.userRepo.CreditWallet(ctx, tx, userID, pi.Amount)
	if err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("credit wallet: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("commit tx: %w", err)
	}

	s.log.Info().
		Str("payment_intent_id", pi.ID).
		Str("user_id", userID).
		Int64("amount", pi.Amount).
		Int64("new_balance", newBalance).
		Msg("wallet credited from webhook")
	s.publish(ctx, ports.EventWalletCredited, map[string]interface{}{
		"userId":     userID,
		"amount":     pi.Amount,
		"newBalance": newBalance,
	})

	if pi.SaveCardRequested() && pi.PaymentMethodID != "" {
		if added, err := s.appendCard(ctx, userID, pi.PaymentMethodID); err != nil {
			s.log.Warn().Err(err).
				Str("payment_method_id", pi.PaymentMethodID).
				Str("user_id", userID).
				Msg("could not save top-up card")
		} else if added {
			s.publish(ctx, ports.EventCardSaved, map[string]interface{}{
				"userId":          userID,
				"paymentMethodId": pi.PaymentMethodID,
			})
		}
	}

	return domain.OutcomeApplied, "wallet credited", nil
}

// applyFailed records a failed payment on the order. The write is
// unconditional; only the paid transition carries a status guard.
func (s *ReconcileServiceImpl) applyFailed(ctx context.Context, pi *domain.PaymentIntentSnapshot) (domain.ReconcileOutcome, string, error) {
	if pi == nil {
		return domain.OutcomeDropped, "event carries no intent payload", nil
	}
	orderID, userID := pi.OrderID(), pi.UserID()
	if orderID == "" || userID == "" {
		s.log.Warn().
			Str("payment_intent_id", pi.ID).
			Msg("intent metadata missing orderId or userId, dropping event")
		return domain.OutcomeDropped, "metadata missing orderId or userId", nil
	}

	applied, err := s.orderRepo.MarkFailed(ctx, orderID, pi.FailureMessage, pi.ID)
	if err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("marking order failed: %w", err)
	}
	if !applied {
		s.log.Warn().
			Str("order_id", orderID).
			Str("payment_intent_id", pi.ID).
			Msg("order not found for failed payment, dropping event")
		return domain.OutcomeDropped, "order not found", nil
	}

	s.log.Info().
		Str("order_id", orderID).
		Str("payment_intent_id", pi.ID).
		Str("reason", pi.FailureMessage).
		Msg("order marked failed")
	s.publish(ctx, ports.EventOrderFailed, map[string]interface{}{
		"orderId": orderID,
		"userId":  userID,
		"reason":  pi.FailureMessage,
	})
	return domain.OutcomeApplied, "order marked failed", nil
}

// applySetup stores the card captured by a succeeded setup intent on the
// user whose stored customer identity matches.
func (s *ReconcileServiceImpl) applySetup(ctx context.Context, si *domain.SetupIntentSnapshot) (domain.ReconcileOutcome, string, error) {
	if si == nil {
		return domain.OutcomeDropped, "event carries no intent payload", nil
	}
	if si.CustomerID == "" || si.PaymentMethodID == "" {
		s.log.Warn().
			Str("setup_intent_id", si.ID).
			Msg("setup intent missing customer or payment method, dropping event")
		return domain.OutcomeDropped, "setup intent missing customer or payment method", nil
	}

	user, err := s.userRepo.GetByCustomerID(ctx, si.CustomerID)
	if err != nil {
		return domain.OutcomeFailed, "", fmt.Errorf("loading user by customer: %w", err)
	}
	if user == nil {
		s.log.Warn().
			Str("customer_id", si.CustomerID).
			Str("setup_intent_id", si.ID).
			Msg("no user with this customer identity, dropping event")
		return domain.OutcomeDropped, "no user with this customer identity", nil
	}

	added, err := s.appendCard(ctx, user.ID, si.PaymentMethodID)
	if err != nil {
		return domain.OutcomeFailed, "", err
	}
	if !added {
		s.log.Info().
			Str("payment_method_id", si.PaymentMethodID).
			Str("user_id", user.ID).
			Msg("card already saved, duplicate delivery")
		return domain.OutcomeDuplicate, "card already saved", nil
	}

	s.log.Info().
		Str("payment_method_id", si.PaymentMethodID).
		Str("user_id", user.ID).
		Msg("card saved from setup intent")
	s.publish(ctx, ports.EventCardSaved, map[string]interface{}{
		"userId":          user.ID,
		"paymentMethodId": si.PaymentMethodID,
	})
	return domain.OutcomeApplied, "card saved", nil
}

// appendCard fetches the method's card details from the processor and
// appends the summary to the user's saved list. Returns whether a new
// row was added.
func (s *ReconcileServiceImpl) appendCard(ctx context.Context, userID, paymentMethodID string) (bool, error) {
	pm, err := s.processor.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return false, fmt.Errorf("get payment method: %w", err)
	}

	card := pm.Summary()
	card.CreatedAt = time.Now().UTC()
	added, err := s.cardRepo.Add(ctx, userID, card)
	if err != nil {
		return false, fmt.Errorf("save card: %w", err)
	}
	return added, nil
}

// record writes the audit row for a handled event.
func (s *ReconcileServiceImpl) record(ctx context.Context, evt *domain.WebhookEvent, outcome domain.ReconcileOutcome, detail string) {
	if s.audit == nil {
		return
	}
	rec := &domain.ReconciliationRecord{
		EventID:   evt.ID,
		EventType: string(evt.Type),
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if pi := evt.PaymentIntent; pi != nil {
		rec.OrderID = pi.OrderID()
		rec.UserID = pi.UserID()
	}
	if si := evt.SetupIntent; si != nil {
		rec.UserID = si.Metadata[domain.MetadataUserID]
	}
	s.audit.Record(ctx, rec)
}

// publish fires a broker notification when a publisher is wired.
// Failures are logged and never propagate.
func (s *ReconcileServiceImpl) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("event publish failed")
	}
}
