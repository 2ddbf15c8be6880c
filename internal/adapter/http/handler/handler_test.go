package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"checkout-payments/internal/adapter/http/dto"
	"checkout-payments/internal/core/domain"
	"checkout-payments/internal/core/ports"
	"checkout-payments/internal/core/ports/mocks"
	"checkout-payments/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Payment Handler Tests ---

func TestCreatePaymentIntent_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIntent := mocks.NewMockPaymentIntentService(ctrl)
	h := NewPaymentHandler(mockIntent)

	mockIntent.EXPECT().CreatePaymentIntent(gomock.Any(), ports.CreatePaymentIntentRequest{
		Amount:       1000,
		OrderID:      "order_1",
		UserID:       "u1",
		WalletAmount: 400,
	}).Return(&ports.PaymentIntentResult{
		ClientSecret:    "pi_1_secret_abc",
		PaymentIntentID: "pi_1",
		Status:          "requires_payment_method",
	}, nil)

	body, _ := json.Marshal(dto.CreatePaymentIntentRequest{
		Amount:       1000,
		OrderID:      "order_1",
		UserID:       "u1",
		WalletAmount: 400,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/create-payment-intent", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreatePaymentIntent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pi_1_secret_abc", resp["clientSecret"])
	assert.Equal(t, "pi_1", resp["paymentIntentId"])
	assert.Equal(t, false, resp["walletOnly"])
	assert.Equal(t, false, resp["requiresConfirmation"])
}

func TestCreatePaymentIntent_WalletOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIntent := mocks.NewMockPaymentIntentService(ctrl)
	h := NewPaymentHandler(mockIntent)

	mockIntent.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).
		Return(&ports.PaymentIntentResult{WalletOnly: true}, nil)

	body, _ := json.Marshal(dto.CreatePaymentIntentRequest{
		Amount:       500,
		OrderID:      "order_1",
		UserID:       "u1",
		WalletAmount: 500,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreatePaymentIntent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["walletOnly"])
	_, hasSecret := resp["clientSecret"]
	assert.False(t, hasSecret)
	_, hasID := resp["paymentIntentId"]
	assert.False(t, hasID)
}

func TestCreatePaymentIntent_MalformedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIntent := mocks.NewMockPaymentIntentService(ctrl)
	h := NewPaymentHandler(mockIntent)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"amount": "a lot"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreatePaymentIntent(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePaymentIntent_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIntent := mocks.NewMockPaymentIntentService(ctrl)
	h := NewPaymentHandler(mockIntent)

	mockIntent.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInvalidAmount())

	body, _ := json.Marshal(dto.CreatePaymentIntentRequest{
		Amount:  -5,
		OrderID: "order_1",
		UserID:  "u1",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreatePaymentIntent(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid amount", resp["error"])
}

func TestCreatePaymentIntent_UserNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIntent := mocks.NewMockPaymentIntentService(ctrl)
	h := NewPaymentHandler(mockIntent)

	mockIntent.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrUserNotFound())

	body, _ := json.Marshal(dto.CreatePaymentIntentRequest{
		Amount:  1000,
		OrderID: "order_1",
		UserID:  "u_ghost",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreatePaymentIntent(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "User not found", resp["error"])
}

func TestCreateSetupIntent_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIntent := mocks.NewMockPaymentIntentService(ctrl)
	h := NewPaymentHandler(mockIntent)

	mockIntent.EXPECT().CreateSetupIntent(gomock.Any(), "u1", "u1@example.com").
		Return(&ports.SetupIntentResult{
			ClientSecret:  "seti_1_secret_xyz",
			SetupIntentID: "seti_1",
		}, nil)

	body, _ := json.Marshal(dto.CreateSetupIntentRequest{
		UserID: "u1",
		Email:  "u1@example.com",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/create-setup-intent", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreateSetupIntent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "seti_1_secret_xyz", resp["clientSecret"])
	assert.Equal(t, "seti_1", resp["setupIntentId"])
}

// --- Card Handler Tests ---

func TestGetPaymentMethod_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCard := mocks.NewMockCardService(ctrl)
	h := NewCardHandler(mockCard)

	mockCard.EXPECT().GetPaymentMethod(gomock.Any(), "pm_1").Return(&domain.PaymentMethod{
		ID:         "pm_1",
		Type:       "card",
		CustomerID: "cus_1",
		Card: &domain.CardDetails{
			Brand:    "visa",
			Last4:    "4242",
			ExpMonth: 12,
			ExpYear:  2030,
		},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/payment-method/pm_1", nil)
	c.AddParam("id", "pm_1")

	h.GetPaymentMethod(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pm_1", resp["id"])
	card := resp["card"].(map[string]interface{})
	assert.Equal(t, "visa", card["brand"])
	assert.Equal(t, "4242", card["last4"])
}

func TestSetDefaultCard_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCard := mocks.NewMockCardService(ctrl)
	h := NewCardHandler(mockCard)

	mockCard.EXPECT().SetDefaultCard(gomock.Any(), "cus_1", "pm_1", "u1").Return(nil)

	body, _ := json.Marshal(dto.SetDefaultCardRequest{
		CustomerID:      "cus_1",
		PaymentMethodID: "pm_1",
		UserID:          "u1",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/set-default-card", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.SetDefaultCard(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Default card updated", resp["message"])
}

func TestSetDefaultCard_ProcessorError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCard := mocks.NewMockCardService(ctrl)
	h := NewCardHandler(mockCard)

	mockCard.EXPECT().SetDefaultCard(gomock.Any(), "cus_1", "pm_1", "u1").
		Return(apperror.ErrProcessor("api_error", "", "upstream unavailable", errors.New("503")))

	body, _ := json.Marshal(dto.SetDefaultCardRequest{
		CustomerID:      "cus_1",
		PaymentMethodID: "pm_1",
		UserID:          "u1",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.SetDefaultCard(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Payment processor error: api_error", resp["error"])
	assert.Equal(t, "upstream unavailable", resp["details"])
}

func TestListCards_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCard := mocks.NewMockCardService(ctrl)
	h := NewCardHandler(mockCard)

	mockCard.EXPECT().ListCards(gomock.Any(), "u1").Return([]domain.SavedCard{
		{ID: "pm_2", Brand: "mastercard", Last4: "4444", ExpMonth: 6, ExpYear: 2031},
		{ID: "pm_1", Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/cards/u1", nil)
	c.AddParam("userId", "u1")

	h.ListCards(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "pm_2", resp[0]["id"])
	assert.Equal(t, "visa", resp[1]["brand"])
}

func TestListCards_UserNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCard := mocks.NewMockCardService(ctrl)
	h := NewCardHandler(mockCard)

	mockCard.EXPECT().ListCards(gomock.Any(), "u_ghost").Return(nil, apperror.ErrUserNotFound())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/cards/u_ghost", nil)
	c.AddParam("userId", "u_ghost")

	h.ListCards(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttachPaymentMethod_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCard := mocks.NewMockCardService(ctrl)
	h := NewCardHandler(mockCard)

	mockCard.EXPECT().AttachPaymentMethod(gomock.Any(), "pm_1", "cus_1").Return(&domain.PaymentMethod{
		ID:         "pm_1",
		Type:       "card",
		CustomerID: "cus_1",
	}, nil)

	body, _ := json.Marshal(dto.AttachPaymentMethodRequest{
		PaymentMethodID: "pm_1",
		CustomerID:      "cus_1",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/attach-payment-method", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.AttachPaymentMethod(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pm_1", resp["id"])
	assert.Equal(t, "cus_1", resp["customerId"])
}

func TestAttachPaymentMethod_AttachRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCard := mocks.NewMockCardService(ctrl)
	h := NewCardHandler(mockCard)

	mockCard.EXPECT().AttachPaymentMethod(gomock.Any(), "pm_used", "cus_1").
		Return(nil, apperror.ErrAttachFailed("The payment method you provided has already been attached to a customer."))

	body, _ := json.Marshal(dto.AttachPaymentMethodRequest{
		PaymentMethodID: "pm_used",
		CustomerID:      "cus_1",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.AttachPaymentMethod(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Could not attach payment method", resp["error"])
	assert.Contains(t, resp["details"], "already been attached")
}

func TestRemoveCard_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCard := mocks.NewMockCardService(ctrl)
	h := NewCardHandler(mockCard)

	mockCard.EXPECT().RemoveCard(gomock.Any(), "u1", "pm_1").Return(nil)

	body, _ := json.Marshal(dto.RemoveCardRequest{UserID: "u1"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/card/pm_1", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.AddParam("paymentMethodId", "pm_1")

	h.RemoveCard(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Card removed", resp["message"])
}

func TestRemoveCard_UnknownCard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCard := mocks.NewMockCardService(ctrl)
	h := NewCardHandler(mockCard)

	mockCard.EXPECT().RemoveCard(gomock.Any(), "u1", "pm_ghost").Return(apperror.ErrCardNotFound())

	body, _ := json.Marshal(dto.RemoveCardRequest{UserID: "u1"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/card/pm_ghost", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.AddParam("paymentMethodId", "pm_ghost")

	h.RemoveCard(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Card not found", resp["error"])
}

// --- Wallet Handler Tests ---

func TestAddMoney_Credited(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	mockWallet.EXPECT().AddMoney(gomock.Any(), ports.AddMoneyRequest{
		Amount:          500,
		UserID:          "u1",
		PaymentMethodID: "pm_1",
		SaveCard:        true,
	}).Return(&ports.AddMoneyResult{
		PaymentIntentID: "pi_1",
		Status:          "succeeded",
		Credited:        true,
		AmountAdded:     500,
		NewBalance:      1500,
	}, nil)

	body, _ := json.Marshal(dto.AddMoneyRequest{
		Amount:          500,
		UserID:          "u1",
		PaymentMethodID: "pm_1",
		SaveCard:        true,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/add-money-to-wallet", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.AddMoney(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "pi_1", resp["paymentIntentId"])
	assert.Equal(t, "succeeded", resp["status"])
	assert.Equal(t, float64(500), resp["amountAdded"])
	assert.Equal(t, float64(1500), resp["newBalance"])
}

func TestAddMoney_RequiresConfirmation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	mockWallet.EXPECT().AddMoney(gomock.Any(), gomock.Any()).Return(&ports.AddMoneyResult{
		PaymentIntentID:      "pi_1",
		Status:               "requires_action",
		RequiresConfirmation: true,
	}, nil)

	body, _ := json.Marshal(dto.AddMoneyRequest{
		Amount:          500,
		UserID:          "u1",
		PaymentMethodID: "pm_1",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.AddMoney(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["requiresConfirmation"])
	_, hasAdded := resp["amountAdded"]
	assert.False(t, hasAdded)
	_, hasBalance := resp["newBalance"]
	assert.False(t, hasBalance)
}

func TestAddMoney_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	mockWallet.EXPECT().AddMoney(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInvalidAmount())

	body, _ := json.Marshal(dto.AddMoneyRequest{Amount: 0, UserID: "u1"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.AddMoney(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetWallet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	now := time.Now().UTC()
	mockWallet.EXPECT().GetWallet(gomock.Any(), "u1").Return(&ports.WalletView{
		Balance: 750,
		Transactions: []domain.WalletTransaction{
			{
				ID:              uuid.New(),
				Type:            domain.WalletTransactionDeposit,
				Amount:          500,
				PreviousBalance: 250,
				NewBalance:      750,
				Status:          domain.WalletTransactionCompleted,
				Method:          "card",
				PaymentIntentID: "pi_2",
				CreatedAt:       now,
			},
			{
				ID:              uuid.New(),
				Type:            domain.WalletTransactionDeposit,
				Amount:          250,
				PreviousBalance: 0,
				NewBalance:      250,
				Status:          domain.WalletTransactionCompleted,
				Method:          "card",
				PaymentIntentID: "pi_1",
				CreatedAt:       now.Add(-time.Hour),
			},
		},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/wallet/u1", nil)
	c.AddParam("userId", "u1")

	h.GetWallet(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(750), resp["balance"])
	txs := resp["transactions"].([]interface{})
	require.Len(t, txs, 2)
	first := txs[0].(map[string]interface{})
	assert.Equal(t, "deposit", first["type"])
	assert.Equal(t, float64(500), first["amount"])
}

func TestGetWallet_UserNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	mockWallet.EXPECT().GetWallet(gomock.Any(), "u_ghost").Return(nil, apperror.ErrUserNotFound())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/wallet/u_ghost", nil)
	c.AddParam("userId", "u_ghost")

	h.GetWallet(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Webhook Handler Tests ---

func TestWebhook_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockVerifier := mocks.NewMockWebhookVerifier(ctrl)
	mockReconcile := mocks.NewMockReconciliationService(ctrl)
	h := NewWebhookHandler(mockVerifier, mockReconcile, zerolog.Nop())

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	evt := &domain.WebhookEvent{
		ID:   "evt_1",
		Type: domain.EventTypePaymentIntentSucceeded,
		PaymentIntent: &domain.PaymentIntentSnapshot{
			ID:       "pi_1",
			Metadata: map[string]string{domain.MetadataOrderID: "o1", domain.MetadataUserID: "u1"},
		},
	}

	mockVerifier.EXPECT().Verify(payload, "t=1,v1=sig").Return(evt, nil)
	mockReconcile.EXPECT().HandleEvent(gomock.Any(), evt).Return(domain.OutcomeApplied, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	c.Request.Header.Set("Stripe-Signature", "t=1,v1=sig")

	h.Handle(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["received"])
}

func TestWebhook_BadSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockVerifier := mocks.NewMockWebhookVerifier(ctrl)
	mockReconcile := mocks.NewMockReconciliationService(ctrl)
	h := NewWebhookHandler(mockVerifier, mockReconcile, zerolog.Nop())

	payload := []byte(`{"id":"evt_1"}`)
	mockVerifier.EXPECT().Verify(payload, "t=1,v1=tampered").
		Return(nil, errors.New("no valid signature found"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	c.Request.Header.Set("Stripe-Signature", "t=1,v1=tampered")

	h.Handle(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Webhook signature verification failed", resp["error"])
}

func TestWebhook_StorageFailureAsksForRedelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockVerifier := mocks.NewMockWebhookVerifier(ctrl)
	mockReconcile := mocks.NewMockReconciliationService(ctrl)
	h := NewWebhookHandler(mockVerifier, mockReconcile, zerolog.Nop())

	payload := []byte(`{"id":"evt_1"}`)
	evt := &domain.WebhookEvent{ID: "evt_1", Type: domain.EventTypePaymentIntentSucceeded}

	mockVerifier.EXPECT().Verify(payload, gomock.Any()).Return(evt, nil)
	mockReconcile.EXPECT().HandleEvent(gomock.Any(), evt).
		Return(domain.OutcomeFailed, errors.New("begin tx: connection refused"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	c.Request.Header.Set("Stripe-Signature", "t=1,v1=sig")

	h.Handle(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhook_DuplicateStillAcked(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockVerifier := mocks.NewMockWebhookVerifier(ctrl)
	mockReconcile := mocks.NewMockReconciliationService(ctrl)
	h := NewWebhookHandler(mockVerifier, mockReconcile, zerolog.Nop())

	payload := []byte(`{"id":"evt_dup"}`)
	evt := &domain.WebhookEvent{ID: "evt_dup", Type: domain.EventTypePaymentIntentSucceeded}

	mockVerifier.EXPECT().Verify(payload, gomock.Any()).Return(evt, nil)
	mockReconcile.EXPECT().HandleEvent(gomock.Any(), evt).Return(domain.OutcomeDuplicate, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	c.Request.Header.Set("Stripe-Signature", "t=1,v1=sig")

	h.Handle(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["received"])
}

// --- Probe Tests ---

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestReadyCheck_AllHealthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(nil)
	pg.EXPECT().Name().Return("postgresql")

	rd := mocks.NewMockHealthChecker(ctrl)
	rd.EXPECT().Ping(gomock.Any()).Return(nil)
	rd.EXPECT().Name().Return("redis")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	ReadyCheck(pg, rd)(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	assert.Equal(t, "healthy", deps["postgresql"].(map[string]interface{})["status"])
	assert.Equal(t, "healthy", deps["redis"].(map[string]interface{})["status"])
}

func TestReadyCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(nil)
	pg.EXPECT().Name().Return("postgresql")

	rd := mocks.NewMockHealthChecker(ctrl)
	rd.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	rd.EXPECT().Name().Return("redis")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	ReadyCheck(pg, rd)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	redisDep := deps["redis"].(map[string]interface{})
	assert.Equal(t, "unhealthy", redisDep["status"])
	assert.Contains(t, redisDep["error"], "connection refused")
}

// --- Swagger Tests ---

func TestSwaggerUI(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/swagger", nil)

	SwaggerUI(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "swagger-ui")
	assert.Contains(t, w.Body.String(), "/swagger/spec")
}

func TestSwaggerSpec_Loaded(t *testing.T) {
	SetSwaggerSpec([]byte("openapi: '3.0.3'\ninfo:\n  title: Test"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/swagger/spec", nil)

	SwaggerSpec(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi")
}

func TestSwaggerSpec_NotLoaded(t *testing.T) {
	SetSwaggerSpec(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/swagger/spec", nil)

	SwaggerSpec(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
