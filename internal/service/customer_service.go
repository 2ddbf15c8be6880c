package service

import (
	"context"
	"errors"
	"fmt"

	"checkout-payments/internal/core/ports"
	"checkout-payments/pkg/apperror"

	"github.com/rs/zerolog"
)

// CustomerServiceImpl implements ports.CustomerService.
type CustomerServiceImpl struct {
	userRepo  ports.UserRepository
	processor ports.PaymentProcessor
	log       zerolog.Logger
}

// NewCustomerService creates a new CustomerServiceImpl.
func NewCustomerService(userRepo ports.UserRepository, processor ports.PaymentProcessor, log zerolog.Logger) *CustomerServiceImpl {
	return &CustomerServiceImpl{
		userRepo:  userRepo,
		processor: processor,
		log:       log,
	}
}

// GetOrCreateCustomer returns the user's processor customer id, creating
// one lazily on first use. Two concurrent first calls for the same user
// can each create a processor customer; the later write wins and the
// orphan stays unreferenced (accepted trade-off).
func (s *CustomerServiceImpl) GetOrCreateCustomer(ctx context.Context, userID, email string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return "", apperror.ErrUserNotFound()
	}

	if id := user.CustomerID(); id != "" {
		return id, nil
	}

	if email == "" {
		email = user.Email
	}
	if email == "" {
		email = fmt.Sprintf("user_%s@example.com", userID)
	}

	customerID, err := s.processor.CreateCustomer(ctx, email, userID)
	if err != nil {
		return "", processorError(err)
	}

	// Merge-style write: only the customer id column changes.
	if err := s.userRepo.SetStripeCustomerID(ctx, userID, customerID); err != nil {
		return "", apperror.InternalError(fmt.Errorf("persist customer id: %w", err))
	}

	s.log.Info().
		Str("user_id", userID).
		Str("customer_id", customerID).
		Msg("processor customer created")

	return customerID, nil
}

// processorError maps a payment-processor failure onto the client-facing
// taxonomy, preserving the processor-reported type/code/message.
func processorError(err error) *apperror.AppError {
	var pe *ports.ProcessorError
	if errors.As(err, &pe) {
		return apperror.ErrProcessor(pe.Type, pe.Code, pe.Message, err)
	}
	return apperror.InternalError(err)
}
