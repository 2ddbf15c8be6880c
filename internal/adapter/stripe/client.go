package stripe

import (
	"context"
	"errors"
	"fmt"

	"checkout-payments/internal/core/domain"
	"checkout-payments/internal/core/ports"

	stripego "github.com/stripe/stripe-go/v82"
)

// Client implements ports.PaymentProcessor on the Stripe API. The
// underlying SDK client is injected so tests can point it at a stub
// backend.
type Client struct {
	sc *stripego.Client
}

// NewClient wraps a configured Stripe SDK client.
func NewClient(sc *stripego.Client) *Client {
	return &Client{sc: sc}
}

// CreateCustomer registers a customer carrying the internal user ID in
// its metadata and returns the processor identity.
func (c *Client) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	params := &stripego.CustomerCreateParams{
		Email:    stripego.String(email),
		Metadata: map[string]string{domain.MetadataUserID: userID},
	}

	cus, err := c.sc.V1Customers.Create(ctx, params)
	if err != nil {
		return "", translateErr("creating customer", err)
	}

	return cus.ID, nil
}

// CreatePaymentIntent creates an intent with automatic payment methods
// and redirects disabled. Confirmation only happens when the params ask
// for it; checkout intents are confirmed client-side.
func (c *Client) CreatePaymentIntent(ctx context.Context, p ports.CreateIntentParams) (*ports.PaymentIntent, error) {
	params := &stripego.PaymentIntentCreateParams{
		Amount:   stripego.Int64(p.Amount),
		Currency: stripego.String(p.Currency),
		Customer: stripego.String(p.CustomerID),
		Metadata: p.Metadata,
		AutomaticPaymentMethods: &stripego.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled:        stripego.Bool(true),
			AllowRedirects: stripego.String("never"),
		},
	}
	if p.PaymentMethodID != "" {
		params.PaymentMethod = stripego.String(p.PaymentMethodID)
	}
	if p.Confirm {
		params.Confirm = stripego.Bool(true)
	}
	if p.OffSession {
		params.OffSession = stripego.Bool(true)
	}

	pi, err := c.sc.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, translateErr("creating payment intent", err)
	}

	out := &ports.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
	}
	if pi.LatestCharge != nil {
		out.LatestChargeID = pi.LatestCharge.ID
	}

	return out, nil
}

// CreateSetupIntent creates a card setup intent for the customer.
func (c *Client) CreateSetupIntent(ctx context.Context, customerID, userID string) (*ports.SetupIntent, error) {
	params := &stripego.SetupIntentCreateParams{
		Customer:           stripego.String(customerID),
		PaymentMethodTypes: []*string{stripego.String("card")},
		Metadata:           map[string]string{domain.MetadataUserID: userID},
	}

	si, err := c.sc.V1SetupIntents.Create(ctx, params)
	if err != nil {
		return nil, translateErr("creating setup intent", err)
	}

	return &ports.SetupIntent{
		ID:           si.ID,
		ClientSecret: si.ClientSecret,
		Status:       string(si.Status),
	}, nil
}

// GetPaymentMethod fetches a payment method by ID.
func (c *Client) GetPaymentMethod(ctx context.Context, paymentMethodID string) (*domain.PaymentMethod, error) {
	pm, err := c.sc.V1PaymentMethods.Retrieve(ctx, paymentMethodID, nil)
	if err != nil {
		return nil, translateErr("retrieving payment method", err)
	}

	return toDomainPaymentMethod(pm), nil
}

// AttachPaymentMethod attaches the payment method to the customer and
// returns its current state.
func (c *Client) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*domain.PaymentMethod, error) {
	params := &stripego.PaymentMethodAttachParams{
		Customer: stripego.String(customerID),
	}

	pm, err := c.sc.V1PaymentMethods.Attach(ctx, paymentMethodID, params)
	if err != nil {
		return nil, translateErr("attaching payment method", err)
	}

	return toDomainPaymentMethod(pm), nil
}

// DetachPaymentMethod detaches the payment method from its customer.
func (c *Client) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	if _, err := c.sc.V1PaymentMethods.Detach(ctx, paymentMethodID, nil); err != nil {
		return translateErr("detaching payment method", err)
	}
	return nil
}

// SetDefaultPaymentMethod marks the payment method as the customer's
// default for invoice-style charges.
func (c *Client) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripego.CustomerUpdateParams{
		InvoiceSettings: &stripego.CustomerUpdateInvoiceSettingsParams{
			DefaultPaymentMethod: stripego.String(paymentMethodID),
		},
	}

	if _, err := c.sc.V1Customers.Update(ctx, customerID, params); err != nil {
		return translateErr("setting default payment method", err)
	}
	return nil
}

// ListPaymentMethods returns the customer's card payment methods as
// saved-card summaries, in the processor's listing order.
func (c *Client) ListPaymentMethods(ctx context.Context, customerID string) ([]domain.SavedCard, error) {
	params := &stripego.PaymentMethodListParams{
		Customer: stripego.String(customerID),
		Type:     stripego.String("card"),
	}

	cards := []domain.SavedCard{}
	for pm, err := range c.sc.V1PaymentMethods.List(ctx, params) {
		if err != nil {
			return nil, translateErr("listing payment methods", err)
		}
		cards = append(cards, toDomainPaymentMethod(pm).Summary())
	}

	return cards, nil
}

func toDomainPaymentMethod(pm *stripego.PaymentMethod) *domain.PaymentMethod {
	d := &domain.PaymentMethod{
		ID:      pm.ID,
		Type:    string(pm.Type),
		Created: pm.Created,
	}
	if pm.Customer != nil {
		d.CustomerID = pm.Customer.ID
	}
	if pm.Card != nil {
		d.Card = &domain.CardDetails{
			Brand:    string(pm.Card.Brand),
			Last4:    pm.Card.Last4,
			ExpMonth: pm.Card.ExpMonth,
			ExpYear:  pm.Card.ExpYear,
		}
	}
	return d
}

// translateErr maps Stripe API failures onto ports.ProcessorError so the
// services can branch on type and code without importing the SDK.
func translateErr(op string, err error) error {
	var sErr *stripego.Error
	if errors.As(err, &sErr) {
		return &ports.ProcessorError{
			Type:    string(sErr.Type),
			Code:    string(sErr.Code),
			Message: sErr.Msg,
			Err:     err,
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
