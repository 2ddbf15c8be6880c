package postgres

import (
	"context"
	"testing"
	"time"

	"checkout-payments/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser() *domain.User {
	customerID := "cus_abc123"
	return &domain.User{
		ID:               "user_1",
		Email:            "user_1@example.com",
		StripeCustomerID: &customerID,
		WalletBalance:    500,
		DefaultCardID:    nil,
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

func userColumns() []string {
	return []string{"id", "email", "stripe_customer_id", "wallet_balance", "default_card_id", "created_at", "updated_at"}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userColumns()).AddRow(
		u.ID, u.Email, u.StripeCustomerID, u.WalletBalance,
		u.DefaultCardID, u.CreatedAt, u.UpdatedAt,
	)
}

func TestUserRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE id").
		WithArgs(u.ID).
		WillReturnRows(userRow(u))

	result, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, u.ID, result.ID)
	assert.Equal(t, int64(500), result.WalletBalance)
	assert.Equal(t, "cus_abc123", result.CustomerID())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByCustomerID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE stripe_customer_id").
		WithArgs("cus_abc123").
		WillReturnRows(userRow(u))

	result, err := repo.GetByCustomerID(context.Background(), "cus_abc123")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, u.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SetStripeCustomerID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectExec("UPDATE users SET stripe_customer_id").
		WithArgs("cus_new", "user_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.SetStripeCustomerID(context.Background(), "user_1", "cus_new")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SetStripeCustomerID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectExec("UPDATE users SET stripe_customer_id").
		WithArgs("cus_new", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.SetStripeCustomerID(context.Background(), "missing", "cus_new")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "user not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SetDefaultCard_Clear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectExec("UPDATE users SET default_card_id").
		WithArgs((*string)(nil), "user_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.SetDefaultCard(context.Background(), "user_1", nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_CreditWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET wallet_balance = wallet_balance").
		WithArgs(int64(1000), "user_1").
		WillReturnRows(pgxmock.NewRows([]string{"wallet_balance"}).AddRow(int64(1500)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	newBalance, err := repo.CreditWallet(context.Background(), tx, "user_1", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), newBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_DeductWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET wallet_balance = wallet_balance").
		WithArgs(int64(400), "user_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	applied, err := repo.DeductWallet(context.Background(), tx, "user_1", 400)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_DeductWallet_InsufficientBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET wallet_balance = wallet_balance").
		WithArgs(int64(400), "user_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	applied, err := repo.DeductWallet(context.Background(), tx, "user_1", 400)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_BalanceForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT wallet_balance FROM users WHERE id .+ FOR UPDATE").
		WithArgs("user_1").
		WillReturnRows(pgxmock.NewRows([]string{"wallet_balance"}).AddRow(int64(500)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	balance, err := repo.BalanceForUpdate(context.Background(), tx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_AppendOrderHistory_Duplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO user_orders").
		WithArgs("user_1", "order_1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	appended, err := repo.AppendOrderHistory(context.Background(), tx, "user_1", "order_1")
	require.NoError(t, err)
	assert.False(t, appended)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_OrderHistory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectQuery("SELECT order_id FROM user_orders").
		WithArgs("user_1").
		WillReturnRows(pgxmock.NewRows([]string{"order_id"}).
			AddRow("order_1").
			AddRow("order_2"))

	orderIDs, err := repo.OrderHistory(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_1", "order_2"}, orderIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
