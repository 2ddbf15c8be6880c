package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"checkout-payments/internal/core/domain"
	"checkout-payments/internal/core/ports"
	"checkout-payments/pkg/apperror"

	"github.com/rs/zerolog"
)

// CardServiceImpl implements ports.CardService.
type CardServiceImpl struct {
	userRepo   ports.UserRepository
	cardRepo   ports.CardRepository
	processor  ports.PaymentProcessor
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewCardService creates a new CardServiceImpl.
func NewCardService(
	userRepo ports.UserRepository,
	cardRepo ports.CardRepository,
	processor ports.PaymentProcessor,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *CardServiceImpl {
	return &CardServiceImpl{
		userRepo:   userRepo,
		cardRepo:   cardRepo,
		processor:  processor,
		transactor: transactor,
		log:        log,
	}
}

// SetDefaultCard updates the processor customer's default payment method
// and mirrors the identity onto the user record.
func (s *CardServiceImpl) SetDefaultCard(ctx context.Context, customerID, paymentMethodID, userID string) error {
	var missing []string
	if customerID == "" {
		missing = append(missing, "customerId")
	}
	if paymentMethodID == "" {
		missing = append(missing, "paymentMethodId")
	}
	if userID == "" {
		missing = append(missing, "userId")
	}
	if len(missing) > 0 {
		return apperror.ErrMissingFields(strings.Join(missing, ", "))
	}

	if err := s.processor.SetDefaultPaymentMethod(ctx, customerID, paymentMethodID); err != nil {
		return processorError(err)
	}
	if err := s.userRepo.SetDefaultCard(ctx, userID, &paymentMethodID); err != nil {
		return apperror.InternalError(fmt.Errorf("persist default card: %w", err))
	}

	s.log.Info().
		Str("user_id", userID).
		Str("payment_method_id", paymentMethodID).
		Msg("default card updated")
	return nil
}

// RemoveCard detaches the method at the processor, then filters it out of
// the user's saved list, clearing the stored default when it pointed at
// the removed card. The two steps are a saga: when the local update fails
// after a successful detach, the list is rewritten from the processor's
// view instead of being left with a dangling reference.
func (s *CardServiceImpl) RemoveCard(ctx context.Context, userID, paymentMethodID string) error {
	var missing []string
	if userID == "" {
		missing = append(missing, "userId")
	}
	if paymentMethodID == "" {
		missing = append(missing, "paymentMethodId")
	}
	if len(missing) > 0 {
		return apperror.ErrMissingFields(strings.Join(missing, ", "))
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return apperror.ErrUserNotFound()
	}

	if err := s.processor.DetachPaymentMethod(ctx, paymentMethodID); err != nil {
		var pe *ports.ProcessorError
		if errors.As(err, &pe) && pe.IsResourceMissing() {
			return apperror.ErrCardNotFound()
		}
		return processorError(err)
	}

	if _, err := s.cardRepo.Remove(ctx, userID, paymentMethodID); err != nil {
		s.log.Error().Err(err).
			Str("user_id", userID).
			Str("payment_method_id", paymentMethodID).
			Msg("local card removal failed after detach, repairing from processor view")
		if rerr := s.repairCards(ctx, user); rerr != nil {
			return apperror.InternalError(fmt.Errorf("card list repair: %w", rerr))
		}
	}

	if user.DefaultCardID != nil && *user.DefaultCardID == paymentMethodID {
		if err := s.userRepo.SetDefaultCard(ctx, userID, nil); err != nil {
			return apperror.InternalError(fmt.Errorf("clear default card: %w", err))
		}
	}

	s.log.Info().
		Str("user_id", userID).
		Str("payment_method_id", paymentMethodID).
		Msg("card removed")
	return nil
}

// repairCards rewrites the user's saved list from the processor's current
// view of attached methods.
func (s *CardServiceImpl) repairCards(ctx context.Context, user *domain.User) error {
	customerID := user.CustomerID()
	if customerID == "" {
		return nil
	}

	cards, err := s.processor.ListPaymentMethods(ctx, customerID)
	if err != nil {
		return fmt.Errorf("list processor methods: %w", err)
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.cardRepo.ReplaceAll(ctx, tx, user.ID, cards); err != nil {
		return fmt.Errorf("replace card list: %w", err)
	}
	return tx.Commit(ctx)
}

// AttachPaymentMethod attaches a method to a customer. Processor
// "resource missing" and already-attached failures come back as a client
// error rather than a server one.
func (s *CardServiceImpl) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*domain.PaymentMethod, error) {
	var missing []string
	if paymentMethodID == "" {
		missing = append(missing, "paymentMethodId")
	}
	if customerID == "" {
		missing = append(missing, "customerId")
	}
	if len(missing) > 0 {
		return nil, apperror.ErrMissingFields(strings.Join(missing, ", "))
	}

	pm, err := s.processor.AttachPaymentMethod(ctx, paymentMethodID, customerID)
	if err != nil {
		var pe *ports.ProcessorError
		if errors.As(err, &pe) && (pe.IsResourceMissing() || pe.IsAlreadyAttached()) {
			return nil, apperror.ErrAttachFailed(pe.Message)
		}
		return nil, processorError(err)
	}

	s.log.Info().
		Str("payment_method_id", paymentMethodID).
		Str("customer_id", customerID).
		Msg("payment method attached")
	return pm, nil
}

// ListCards returns the user's saved card summaries.
func (s *CardServiceImpl) ListCards(ctx context.Context, userID string) ([]domain.SavedCard, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}

	cards, err := s.cardRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list cards: %w", err))
	}
	return cards, nil
}

// GetPaymentMethod returns the processor's view of a payment method.
func (s *CardServiceImpl) GetPaymentMethod(ctx context.Context, paymentMethodID string) (*domain.PaymentMethod, error) {
	if paymentMethodID == "" {
		return nil, apperror.ErrMissingFields("paymentMethodId")
	}

	pm, err := s.processor.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return nil, processorError(err)
	}
	return pm, nil
}
