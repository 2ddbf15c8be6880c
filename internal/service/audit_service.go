package service

import (
	"context"

	"checkout-payments/internal/core/domain"
	"checkout-payments/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.ReconciliationLogRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, reconciliation outcomes are only written to the logger.
func NewAuditService(repo ports.ReconciliationLogRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists a reconciliation outcome asynchronously
// (fire-and-forget). The webhook response never waits on the audit row.
func (s *auditService) Record(ctx context.Context, rec *domain.ReconciliationRecord) {
	go func() {
		s.log.Info().
			Str("event_id", rec.EventID).
			Str("event_type", rec.EventType).
			Str("order_id", rec.OrderID).
			Str("user_id", rec.UserID).
			Str("outcome", string(rec.Outcome)).
			Str("detail", rec.Detail).
			Msg("reconciliation outcome")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), rec); err != nil {
				s.log.Warn().Err(err).Str("event_id", rec.EventID).Msg("failed to persist reconciliation record")
			}
		}
	}()
}
