package postgres

import (
	"context"
	"errors"
	"fmt"

	"checkout-payments/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// UserRepo implements ports.UserRepository backed by PostgreSQL.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// GetByID fetches a user by ID. Returns (nil, nil) when not found.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, stripe_customer_id, wallet_balance, default_card_id, created_at, updated_at
		FROM users
		WHERE id = $1`

	u := &domain.User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.StripeCustomerID,
		&u.WalletBalance,
		&u.DefaultCardID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user by id: %w", err)
	}

	return u, nil
}

// GetByCustomerID fetches the user holding the given processor customer
// identity. Returns (nil, nil) when no user carries it.
func (r *UserRepo) GetByCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	query := `
		SELECT id, email, stripe_customer_id, wallet_balance, default_card_id, created_at, updated_at
		FROM users
		WHERE stripe_customer_id = $1`

	u := &domain.User{}
	err := r.pool.QueryRow(ctx, query, customerID).Scan(
		&u.ID,
		&u.Email,
		&u.StripeCustomerID,
		&u.WalletBalance,
		&u.DefaultCardID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user by customer id: %w", err)
	}

	return u, nil
}

// SetStripeCustomerID stores the processor customer identity on the user.
// Other user fields are left untouched.
func (r *UserRepo) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	query := `
		UPDATE users
		SET stripe_customer_id = $1, updated_at = NOW()
		WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, customerID, userID)
	if err != nil {
		return fmt.Errorf("setting stripe customer id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}

	return nil
}

// SetDefaultCard points the user's default at the given payment method.
// A nil paymentMethodID clears the default.
func (r *UserRepo) SetDefaultCard(ctx context.Context, userID string, paymentMethodID *string) error {
	query := `
		UPDATE users
		SET default_card_id = $1, updated_at = NOW()
		WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, paymentMethodID, userID)
	if err != nil {
		return fmt.Errorf("setting default card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}

	return nil
}

// BalanceForUpdate reads the wallet balance with a row lock, inside the
// caller's transaction.
func (r *UserRepo) BalanceForUpdate(ctx context.Context, tx pgx.Tx, userID string) (int64, error) {
	query := `SELECT wallet_balance FROM users WHERE id = $1 FOR UPDATE`

	var balance int64
	if err := tx.QueryRow(ctx, query, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("locking wallet balance: %w", err)
	}

	return balance, nil
}

// CreditWallet adds amount to the user's balance and returns the new
// balance. Runs inside the caller's transaction.
func (r *UserRepo) CreditWallet(ctx context.Context, tx pgx.Tx, userID string, amount int64) (int64, error) {
	query := `
		UPDATE users
		SET wallet_balance = wallet_balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING wallet_balance`

	var newBalance int64
	if err := tx.QueryRow(ctx, query, amount, userID).Scan(&newBalance); err != nil {
		return 0, fmt.Errorf("crediting wallet: %w", err)
	}

	return newBalance, nil
}

// DeductWallet subtracts amount from the user's balance only when the
// balance covers it. Returns false when it does not; the caller decides
// whether that is a skip or a failure.
func (r *UserRepo) DeductWallet(ctx context.Context, tx pgx.Tx, userID string, amount int64) (bool, error) {
	query := `
		UPDATE users
		SET wallet_balance = wallet_balance - $1, updated_at = NOW()
		WHERE id = $2 AND wallet_balance >= $1`

	tag, err := tx.Exec(ctx, query, amount, userID)
	if err != nil {
		return false, fmt.Errorf("deducting wallet: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// AppendOrderHistory links the order to the user's purchase history.
// Returns false when the link already existed.
func (r *UserRepo) AppendOrderHistory(ctx context.Context, tx pgx.Tx, userID, orderID string) (bool, error) {
	query := `
		INSERT INTO user_orders (user_id, order_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	tag, err := tx.Exec(ctx, query, userID, orderID)
	if err != nil {
		return false, fmt.Errorf("appending order history: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// OrderHistory lists the user's order IDs, oldest first.
func (r *UserRepo) OrderHistory(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT order_id FROM user_orders WHERE user_id = $1 ORDER BY added_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing order history: %w", err)
	}
	defer rows.Close()

	var orderIDs []string
	for rows.Next() {
		var orderID string
		if err := rows.Scan(&orderID); err != nil {
			return nil, fmt.Errorf("scanning order history row: %w", err)
		}
		orderIDs = append(orderIDs, orderID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order history rows: %w", err)
	}

	return orderIDs, nil
}
