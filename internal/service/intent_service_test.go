package service

import (
	"context"
	"errors"
	"testing"

	"checkout-payments/internal/core/domain"
	"checkout-payments/internal/core/ports"
	"checkout-payments/internal/core/ports/mocks"
	"checkout-payments/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type intentTestDeps struct {
	svc       *IntentServiceImpl
	userRepo  *mocks.MockUserRepository
	customers *mocks.MockCustomerService
	processor *mocks.MockPaymentProcessor
	ctrl      *gomock.Controller
}

func setupIntentService(t *testing.T) *intentTestDeps {
	ctrl := gomock.NewController(t)
	d := &intentTestDeps{
		userRepo:  mocks.NewMockUserRepository(ctrl),
		customers: mocks.NewMockCustomerService(ctrl),
		processor: mocks.NewMockPaymentProcessor(ctrl),
		ctrl:      ctrl,
	}
	d.svc = NewIntentService(d.userRepo, d.customers, d.processor, "gbp", zerolog.Nop())
	return d
}

// ==================== CreatePaymentIntent Tests ====================

func TestIntentService_CreatePaymentIntent_WalletOffset(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := ports.CreatePaymentIntentRequest{
		Amount:       1000,
		OrderID:      "o1",
		UserID:       "u1",
		WalletAmount: 400,
	}

	d.userRepo.EXPECT().GetByID(ctx, "u1").Return(&domain.User{ID: "u1", Email: "u1@example.com", WalletBalance: 1000}, nil)
	d.customers.EXPECT().GetOrCreateCustomer(ctx, "u1", "u1@example.com").Return("cus_1", nil)
	// The processor is asked for the amount net of the wallet offset.
	d.processor.EXPECT().CreatePaymentIntent(ctx, ports.CreateIntentParams{
		Amount:     600,
		Currency:   "gbp",
		CustomerID: "cus_1",
		Metadata: map[string]string{
			"orderId":      "o1",
			"userId":       "u1",
			"walletAmount": "400",
		},
	}).Return(&ports.PaymentIntent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret_x",
		Status:       "requires_payment_method",
	}, nil)

	res, err := d.svc.CreatePaymentIntent(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "pi_1", res.PaymentIntentID)
	assert.Equal(t, "pi_1_secret_x", res.ClientSecret)
	assert.Equal(t, "requires_payment_method", res.Status)
	assert.False(t, res.WalletOnly)
	assert.True(t, res.RequiresConfirmation)
}

func TestIntentService_CreatePaymentIntent_WalletOnly(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := ports.CreatePaymentIntentRequest{
		Amount:       500,
		OrderID:      "o1",
		UserID:       "u1",
		WalletAmount: 500,
	}

	// No customer resolution and no processor intent.
	d.userRepo.EXPECT().GetByID(ctx, "u1").Return(&domain.User{ID: "u1", WalletBalance: 900}, nil)

	res, err := d.svc.CreatePaymentIntent(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.WalletOnly)
	assert.Empty(t, res.PaymentIntentID)
	assert.Empty(t, res.ClientSecret)
	assert.False(t, res.RequiresConfirmation)
}

func TestIntentService_CreatePaymentIntent_InvalidAmount(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	for _, amount := range []int64{0, -50} {
		res, err := d.svc.CreatePaymentIntent(context.Background(), ports.CreatePaymentIntentRequest{
			Amount:  amount,
			OrderID: "o1",
			UserID:  "u1",
		})
		assert.Nil(t, res)
		assertAppError(t, err, "PAY_001")
	}
}

func TestIntentService_CreatePaymentIntent_MissingFields(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	res, err := d.svc.CreatePaymentIntent(context.Background(), ports.CreatePaymentIntentRequest{
		Amount: 1000,
		UserID: "u1",
	})
	assert.Nil(t, res)
	assertAppError(t, err, "PAY_002")
}

func TestIntentService_CreatePaymentIntent_UserNotFound(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.userRepo.EXPECT().GetByID(ctx, "ghost").Return(nil, nil)

	res, err := d.svc.CreatePaymentIntent(ctx, ports.CreatePaymentIntentRequest{
		Amount:  1000,
		OrderID: "o1",
		UserID:  "ghost",
	})
	assert.Nil(t, res)
	assertAppError(t, err, "PAY_003")
}

func TestIntentService_CreatePaymentIntent_AlreadyAttachedSwallowed(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := ports.CreatePaymentIntentRequest{
		Amount:          1000,
		OrderID:         "o1",
		UserID:          "u1",
		PaymentMethodID: "pm_1",
	}

	d.userRepo.EXPECT().GetByID(ctx, "u1").Return(&domain.User{ID: "u1", Email: "u1@example.com"}, nil)
	d.customers.EXPECT().GetOrCreateCustomer(ctx, "u1", "u1@example.com").Return("cus_1", nil)
	d.processor.EXPECT().AttachPaymentMethod(ctx, "pm_1", "cus_1").Return(nil, &ports.ProcessorError{
		Type:    "invalid_request_error",
		Message: "The payment method you provided has already been attached to a customer.",
	})
	d.processor.EXPECT().CreatePaymentIntent(ctx, gomock.Any()).Return(&ports.PaymentIntent{
		ID:           "pi_2",
		ClientSecret: "pi_2_secret",
		Status:       "requires_confirmation",
	}, nil)

	res, err := d.svc.CreatePaymentIntent(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "pi_2", res.PaymentIntentID)
	assert.True(t, res.RequiresConfirmation)
}

func TestIntentService_CreatePaymentIntent_AttachFailureNonFatal(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := ports.CreatePaymentIntentRequest{
		Amount:          1000,
		OrderID:         "o1",
		UserID:          "u1",
		PaymentMethodID: "pm_1",
	}

	d.userRepo.EXPECT().GetByID(ctx, "u1").Return(&domain.User{ID: "u1", Email: "u1@example.com"}, nil)
	d.customers.EXPECT().GetOrCreateCustomer(ctx, "u1", "u1@example.com").Return("cus_1", nil)
	d.processor.EXPECT().AttachPaymentMethod(ctx, "pm_1", "cus_1").Return(nil, errors.New("connection reset"))
	d.processor.EXPECT().CreatePaymentIntent(ctx, gomock.Any()).Return(&ports.PaymentIntent{
		ID:           "pi_3",
		ClientSecret: "pi_3_secret",
		Status:       "requires_payment_method",
	}, nil)

	res, err := d.svc.CreatePaymentIntent(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "pi_3", res.PaymentIntentID)
}

func TestIntentService_CreatePaymentIntent_ProcessorError(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := ports.CreatePaymentIntentRequest{
		Amount:  1000,
		OrderID: "o1",
		UserID:  "u1",
	}

	d.userRepo.EXPECT().GetByID(ctx, "u1").Return(&domain.User{ID: "u1", Email: "u1@example.com"}, nil)
	d.customers.EXPECT().GetOrCreateCustomer(ctx, "u1", "u1@example.com").Return("cus_1", nil)
	d.processor.EXPECT().CreatePaymentIntent(ctx, gomock.Any()).Return(nil, &ports.ProcessorError{
		Type:    "card_error",
		Code:    "card_declined",
		Message: "Your card was declined.",
	})

	res, err := d.svc.CreatePaymentIntent(ctx, req)
	assert.Nil(t, res)
	assertAppError(t, err, "EXT_001")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "card_declined", appErr.RemoteCode)
	assert.Equal(t, "Your card was declined.", appErr.Details)
}

// ==================== CreateSetupIntent Tests ====================

func TestIntentService_CreateSetupIntent_Success(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.customers.EXPECT().GetOrCreateCustomer(ctx, "u1", "jo@example.com").Return("cus_1", nil)
	d.processor.EXPECT().CreateSetupIntent(ctx, "cus_1", "u1").Return(&ports.SetupIntent{
		ID:           "seti_1",
		ClientSecret: "seti_1_secret",
		Status:       "requires_payment_method",
	}, nil)

	res, err := d.svc.CreateSetupIntent(ctx, "u1", "jo@example.com")
	require.NoError(t, err)
	assert.Equal(t, "seti_1", res.SetupIntentID)
	assert.Equal(t, "seti_1_secret", res.ClientSecret)
}

func TestIntentService_CreateSetupIntent_MissingUserID(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	res, err := d.svc.CreateSetupIntent(context.Background(), "", "jo@example.com")
	assert.Nil(t, res)
	assertAppError(t, err, "PAY_002")
}

func TestIntentService_CreateSetupIntent_UserNotFound(t *testing.T) {
	d := setupIntentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.customers.EXPECT().GetOrCreateCustomer(ctx, "ghost", "").Return("", apperror.ErrUserNotFound())

	res, err := d.svc.CreateSetupIntent(ctx, "ghost", "")
	assert.Nil(t, res)
	assertAppError(t, err, "PAY_003")
}

// ==================== Helper ====================

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
