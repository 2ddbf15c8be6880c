package postgres

import (
	"context"
	"fmt"

	"checkout-payments/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// WalletTxRepo implements ports.WalletTransactionRepository backed by
// PostgreSQL.
type WalletTxRepo struct {
	pool Pool
}

// NewWalletTxRepo creates a new WalletTxRepo.
func NewWalletTxRepo(pool Pool) *WalletTxRepo {
	return &WalletTxRepo{pool: pool}
}

// Create appends a ledger entry inside the caller's transaction. The
// partial unique index on payment_intent_id makes the insert a no-op for
// an intent already credited; false means exactly that.
func (r *WalletTxRepo) Create(ctx context.Context, tx pgx.Tx, wtx *domain.WalletTransaction) (bool, error) {
	query := `
		INSERT INTO wallet_transactions
			(id, user_id, type, amount, previous_balance, new_balance, status,
			description, payment_intent_id, charge_id, method, saved_card)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (payment_intent_id) WHERE payment_intent_id <> '' DO NOTHING`

	tag, err := tx.Exec(ctx, query,
		wtx.ID,
		wtx.UserID,
		wtx.Type,
		wtx.Amount,
		wtx.PreviousBalance,
		wtx.NewBalance,
		wtx.Status,
		wtx.Description,
		wtx.PaymentIntentID,
		wtx.ChargeID,
		wtx.Method,
		wtx.SavedCard,
	)
	if err != nil {
		return false, fmt.Errorf("creating wallet transaction: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListByUser returns the user's most recent ledger entries.
func (r *WalletTxRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.WalletTransaction, error) {
	query := `
		SELECT id, user_id, type, amount, previous_balance, new_balance, status,
			description, payment_intent_id, charge_id, method, saved_card, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing wallet transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.WalletTransaction
	for rows.Next() {
		var t domain.WalletTransaction
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Type,
			&t.Amount,
			&t.PreviousBalance,
			&t.NewBalance,
			&t.Status,
			&t.Description,
			&t.PaymentIntentID,
			&t.ChargeID,
			&t.Method,
			&t.SavedCard,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning wallet transaction row: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating wallet transaction rows: %w", err)
	}

	return txs, nil
}
