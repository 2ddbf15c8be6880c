package postgres

import (
	"context"
	"errors"
	"fmt"

	"checkout-payments/internal/core/domain"
	"checkout-payments/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository backed by PostgreSQL.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// GetByID fetches an order by ID. Returns (nil, nil) when not found.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, user_id, amount, currency, payment_status, status, verified,
			payment_intent_id, charge_id, payment_failure_reason, paid_at, created_at, updated_at
		FROM orders
		WHERE id = $1`

	o := &domain.Order{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.UserID,
		&o.Amount,
		&o.Currency,
		&o.PaymentStatus,
		&o.Status,
		&o.Verified,
		&o.PaymentIntentID,
		&o.ChargeID,
		&o.PaymentFailureReason,
		&o.PaidAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting order by id: %w", err)
	}

	return o, nil
}

// MarkPaid flips the order to paid/confirmed/verified and stamps the
// payment identifiers. The payment_status guard makes the write a no-op
// on redelivery; false means another delivery already won.
func (r *OrderRepo) MarkPaid(ctx context.Context, tx pgx.Tx, params ports.MarkPaidParams) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'paid',
			status = 'confirmed',
			verified = true,
			payment_intent_id = $2,
			charge_id = $3,
			paid_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'paid'`

	tag, err := tx.Exec(ctx, query, params.OrderID, params.PaymentIntentID, params.ChargeID)
	if err != nil {
		return false, fmt.Errorf("marking order paid: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// MarkFailed records the failure reason on the order. Unguarded: a
// failure arriving after a success overwrites payment_status, matching
// how the upstream processor sequences terminal events per intent.
// Returns false when no such order exists.
func (r *OrderRepo) MarkFailed(ctx context.Context, orderID, reason, paymentIntentID string) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'failed',
			payment_failure_reason = $2,
			payment_intent_id = $3,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, orderID, reason, paymentIntentID)
	if err != nil {
		return false, fmt.Errorf("marking order failed: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
