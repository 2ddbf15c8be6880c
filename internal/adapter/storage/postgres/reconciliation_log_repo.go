package postgres

import (
	"context"
	"fmt"

	"checkout-payments/internal/core/domain"
)

// ReconciliationLogRepo implements ports.ReconciliationLogRepository
// backed by PostgreSQL. Every handling attempt gets its own row, so a
// dropped event followed by an applied redelivery shows up twice.
type ReconciliationLogRepo struct {
	pool Pool
}

// NewReconciliationLogRepo creates a new ReconciliationLogRepo.
func NewReconciliationLogRepo(pool Pool) *ReconciliationLogRepo {
	return &ReconciliationLogRepo{pool: pool}
}

// Create persists one reconciliation attempt.
func (r *ReconciliationLogRepo) Create(ctx context.Context, rec *domain.ReconciliationRecord) error {
	query := `
		INSERT INTO reconciliation_log (event_id, event_type, order_id, user_id, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		rec.EventID,
		rec.EventType,
		rec.OrderID,
		rec.UserID,
		rec.Outcome,
		rec.Detail,
	)
	if err != nil {
		return fmt.Errorf("creating reconciliation record: %w", err)
	}

	return nil
}
