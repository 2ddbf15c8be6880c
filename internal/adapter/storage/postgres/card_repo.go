package postgres

import (
	"context"
	"fmt"

	"checkout-payments/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CardRepo implements ports.CardRepository backed by PostgreSQL.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

// ListByUser returns the user's saved card summaries, oldest first.
func (r *CardRepo) ListByUser(ctx context.Context, userID string) ([]domain.SavedCard, error) {
	query := `
		SELECT id, brand, last4, exp_month, exp_year, created_at
		FROM saved_cards
		WHERE user_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing saved cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.SavedCard
	for rows.Next() {
		var c domain.SavedCard
		if err := rows.Scan(&c.ID, &c.Brand, &c.Last4, &c.ExpMonth, &c.ExpYear, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning saved card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saved card rows: %w", err)
	}

	return cards, nil
}

// Exists reports whether the user has the payment method saved.
func (r *CardRepo) Exists(ctx context.Context, userID, paymentMethodID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM saved_cards WHERE user_id = $1 AND id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, paymentMethodID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking saved card: %w", err)
	}

	return exists, nil
}

// Add saves a card summary for the user. Returns false when the card was
// already saved, which keeps redelivered setup events from duplicating it.
func (r *CardRepo) Add(ctx context.Context, userID string, card domain.SavedCard) (bool, error) {
	query := `
		INSERT INTO saved_cards (user_id, id, brand, last4, exp_month, exp_year)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, userID, card.ID, card.Brand, card.Last4, card.ExpMonth, card.ExpYear)
	if err != nil {
		return false, fmt.Errorf("adding saved card: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Remove deletes the user's saved card. Returns false when nothing was
// saved under that ID.
func (r *CardRepo) Remove(ctx context.Context, userID, paymentMethodID string) (bool, error) {
	query := `DELETE FROM saved_cards WHERE user_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query, userID, paymentMethodID)
	if err != nil {
		return false, fmt.Errorf("removing saved card: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ReplaceAll swaps the user's saved cards for the given set inside the
// caller's transaction. Used to repair local state from the processor's
// listing.
func (r *CardRepo) ReplaceAll(ctx context.Context, tx pgx.Tx, userID string, cards []domain.SavedCard) error {
	if _, err := tx.Exec(ctx, `DELETE FROM saved_cards WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clearing saved cards: %w", err)
	}

	insert := `
		INSERT INTO saved_cards (user_id, id, brand, last4, exp_month, exp_year)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, c := range cards {
		if _, err := tx.Exec(ctx, insert, userID, c.ID, c.Brand, c.Last4, c.ExpMonth, c.ExpYear); err != nil {
			return fmt.Errorf("inserting saved card %s: %w", c.ID, err)
		}
	}

	return nil
}
