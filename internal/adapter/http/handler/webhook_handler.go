package handler

import (
	"io"

	"checkout-payments/internal/core/ports"
	"checkout-payments/pkg/apperror"
	"checkout-payments/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebhookHandler receives processor webhook deliveries. It verifies the
// signature, hands the event to the reconciliation service, and picks the
// status code that drives the processor's retry behavior: 2xx stops
// redelivery, 5xx requests it.
type WebhookHandler struct {
	verifier     ports.WebhookVerifier
	reconcileSvc ports.ReconciliationService
	log          zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(verifier ports.WebhookVerifier, reconcileSvc ports.ReconciliationService, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:     verifier,
		reconcileSvc: reconcileSvc,
		log:          log.With().Str("component", "webhook_handler").Logger(),
	}
}

// Handle handles POST /webhook. The body must be read raw before any
// JSON binding touches it, since the signature covers the exact bytes.
func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("could not read request body"))
		return
	}

	evt, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warn().Err(err).Msg("Webhook signature verification failed")
		response.Error(c, apperror.ErrSignatureVerification(err))
		return
	}

	outcome, err := h.reconcileSvc.HandleEvent(c.Request.Context(), evt)
	if err != nil {
		// Returning 5xx makes the processor redeliver the event, so this
		// path is reserved for failures a retry can fix.
		h.log.Error().Err(err).Str("event_id", evt.ID).Msg("Webhook handling failed")
		response.Error(c, err)
		return
	}

	h.log.Info().
		Str("event_id", evt.ID).
		Str("outcome", string(outcome)).
		Msg("Webhook processed")
	response.OK(c, gin.H{"received": true})
}
