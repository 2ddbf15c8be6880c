package stripe

import (
	"encoding/json"
	"fmt"

	"checkout-payments/internal/core/domain"

	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Verifier implements ports.WebhookVerifier using Stripe's signed
// webhook scheme. The raw body must reach Verify byte-for-byte as
// received; any reformatting breaks the signature.
type Verifier struct {
	secret string
}

// NewVerifier creates a webhook verifier with the endpoint's signing
// secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify checks the signature header against the payload and decodes the
// event into its domain shape. Event types outside the handled set come
// back as domain.EventTypeUnknown with no snapshot attached.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (*domain.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verifying webhook signature: %w", err)
	}

	return toDomainEvent(&event)
}

func toDomainEvent(event *stripego.Event) (*domain.WebhookEvent, error) {
	out := &domain.WebhookEvent{
		ID:   event.ID,
		Type: domain.EventTypeUnknown,
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripego.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decoding payment intent event: %w", err)
		}

		snap := &domain.PaymentIntentSnapshot{
			ID:       pi.ID,
			Amount:   pi.Amount,
			Currency: string(pi.Currency),
			Status:   string(pi.Status),
			Metadata: pi.Metadata,
		}
		if pi.Customer != nil {
			snap.CustomerID = pi.Customer.ID
		}
		if pi.PaymentMethod != nil {
			snap.PaymentMethodID = pi.PaymentMethod.ID
		}
		if pi.LatestCharge != nil {
			snap.LatestChargeID = pi.LatestCharge.ID
		}
		if pi.LastPaymentError != nil {
			snap.FailureMessage = pi.LastPaymentError.Msg
		}

		out.PaymentIntent = snap
		if event.Type == "payment_intent.succeeded" {
			out.Type = domain.EventTypePaymentIntentSucceeded
		} else {
			out.Type = domain.EventTypePaymentIntentFailed
		}

	case "setup_intent.succeeded":
		var si stripego.SetupIntent
		if err := json.Unmarshal(event.Data.Raw, &si); err != nil {
			return nil, fmt.Errorf("decoding setup intent event: %w", err)
		}

		snap := &domain.SetupIntentSnapshot{
			ID:       si.ID,
			Metadata: si.Metadata,
		}
		if si.Customer != nil {
			snap.CustomerID = si.Customer.ID
		}
		if si.PaymentMethod != nil {
			snap.PaymentMethodID = si.PaymentMethod.ID
		}

		out.SetupIntent = snap
		out.Type = domain.EventTypeSetupIntentSucceeded
	}

	return out, nil
}
