package domain

import "time"

// ReconcileOutcome classifies how the engine disposed of a webhook event.
type ReconcileOutcome string

const (
	// OutcomeApplied: the event's state transition was performed.
	OutcomeApplied ReconcileOutcome = "applied"
	// OutcomeDuplicate: the transition had already been applied by an
	// earlier delivery; nothing changed.
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	// OutcomeDropped: a precondition failed (missing metadata, order or
	// user); the event was logged and discarded.
	OutcomeDropped ReconcileOutcome = "dropped"
	// OutcomeIgnored: the event type is not one the engine handles.
	OutcomeIgnored ReconcileOutcome = "ignored"
	// OutcomeFailed: storage failed mid-transition; the processor should
	// redeliver.
	OutcomeFailed ReconcileOutcome = "failed"
)

// ReconciliationRecord is the audit row written for every handled event.
type ReconciliationRecord struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	OrderID   string           `json:"order_id,omitempty"`
	UserID    string           `json:"user_id,omitempty"`
	Outcome   ReconcileOutcome `json:"outcome"`
	Detail    string           `json:"detail,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
