package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"checkout-payments/internal/core/domain"
	"checkout-payments/internal/core/ports"
	"checkout-payments/pkg/apperror"

	"github.com/rs/zerolog"
)

// Processor intent statuses that still need a client-side confirm step.
const (
	intentStatusSucceeded             = "succeeded"
	intentStatusRequiresConfirmation  = "requires_confirmation"
	intentStatusRequiresPaymentMethod = "requires_payment_method"
)

// IntentServiceImpl implements ports.PaymentIntentService.
type IntentServiceImpl struct {
	userRepo  ports.UserRepository
	customers ports.CustomerService
	processor ports.PaymentProcessor
	currency  string
	log       zerolog.Logger
}

// NewIntentService creates a new IntentServiceImpl. currency is the
// fallback when a request does not name one.
func NewIntentService(
	userRepo ports.UserRepository,
	customers ports.CustomerService,
	processor ports.PaymentProcessor,
	currency string,
	log zerolog.Logger,
) *IntentServiceImpl {
	return &IntentServiceImpl{
		userRepo:  userRepo,
		customers: customers,
		processor: processor,
		currency:  currency,
		log:       log,
	}
}

// CreatePaymentIntent issues a processor intent for the order amount net
// of the wallet offset. When the wallet alone covers the charge, no
// processor call is made and the response reports walletOnly; the wallet
// debit itself is applied later, on the success webhook. The intent is
// never confirmed here.
func (s *IntentServiceImpl) CreatePaymentIntent(ctx context.Context, req ports.CreatePaymentIntentRequest) (*ports.PaymentIntentResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	var missing []string
	if req.OrderID == "" {
		missing = append(missing, "orderId")
	}
	if req.UserID == "" {
		missing = append(missing, "userId")
	}
	if len(missing) > 0 {
		return nil, apperror.ErrMissingFields(strings.Join(missing, ", "))
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}

	stripeAmount := req.Amount - req.WalletAmount
	if stripeAmount <= 0 {
		s.log.Info().
			Str("order_id", req.OrderID).
			Str("user_id", req.UserID).
			Int64("amount", req.Amount).
			Int64("wallet_amount", req.WalletAmount).
			Msg("wallet covers the full amount, no processor intent issued")
		return &ports.PaymentIntentResult{WalletOnly: true}, nil
	}

	customerID, err := s.customers.GetOrCreateCustomer(ctx, req.UserID, user.Email)
	if err != nil {
		return nil, err
	}

	// Pre-attach is a convenience for returning cards: already-attached is
	// a no-op, any other failure is logged and intent creation continues.
	if req.PaymentMethodID != "" {
		if _, err := s.processor.AttachPaymentMethod(ctx, req.PaymentMethodID, customerID); err != nil {
			var pe *ports.ProcessorError
			if !errors.As(err, &pe) || !pe.IsAlreadyAttached() {
				s.log.Warn().Err(err).
					Str("payment_method_id", req.PaymentMethodID).
					Str("customer_id", customerID).
					Msg("payment method attach failed, continuing without it")
			}
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, ports.CreateIntentParams{
		Amount:     stripeAmount,
		Currency:   currency,
		CustomerID: customerID,
		Metadata: map[string]string{
			domain.MetadataOrderID:      req.OrderID,
			domain.MetadataUserID:       req.UserID,
			domain.MetadataWalletAmount: strconv.FormatInt(req.WalletAmount, 10),
		},
	})
	if err != nil {
		return nil, processorError(err)
	}

	s.log.Info().
		Str("payment_intent_id", intent.ID).
		Str("order_id", req.OrderID).
		Str("user_id", req.UserID).
		Int64("charge_amount", stripeAmount).
		Int64("wallet_amount", req.WalletAmount).
		Msg("payment intent created")

	return &ports.PaymentIntentResult{
		ClientSecret:         intent.ClientSecret,
		PaymentIntentID:      intent.ID,
		Status:               intent.Status,
		RequiresConfirmation: requiresConfirmation(intent.Status),
	}, nil
}

// CreateSetupIntent issues a processor setup intent for storing a card
// off-session, ensuring the user has a processor customer first.
func (s *IntentServiceImpl) CreateSetupIntent(ctx context.Context, userID, email string) (*ports.SetupIntentResult, error) {
	if userID == "" {
		return nil, apperror.ErrMissingFields("userId")
	}

	customerID, err := s.customers.GetOrCreateCustomer(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	intent, err := s.processor.CreateSetupIntent(ctx, customerID, userID)
	if err != nil {
		return nil, processorError(err)
	}

	s.log.Info().
		Str("setup_intent_id", intent.ID).
		Str("user_id", userID).
		Msg("setup intent created")

	return &ports.SetupIntentResult{
		ClientSecret:  intent.ClientSecret,
		SetupIntentID: intent.ID,
	}, nil
}

// requiresConfirmation reports whether the client still has to confirm
// the intent before the processor attempts the charge.
func requiresConfirmation(status string) bool {
	return status == intentStatusRequiresConfirmation || status == intentStatusRequiresPaymentMethod
}
