package gateways

import (
	"context"
	"fmt"
	"strings"

	"payment-orchestrator/models"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
)

// StripeGateway services tokenized card payments through Stripe
// PaymentIntents. Authorizations use manual capture so the hold can be
// settled or voided shipment by shipment.
type StripeGateway struct {
	SecretKey string
}

// NewStripeGateway configures the Stripe client key and returns the gateway.
func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{SecretKey: secretKey}
}

func (g *StripeGateway) GatewayType() models.PaymentGatewayType {
	return models.GatewayTypeCreditCard
}

// PreAuthorize places a manual-capture hold for the payment amount. The
// PaymentIntent id doubles as the authorization code for follow-ups.
func (g *StripeGateway) PreAuthorize(ctx context.Context, payment *models.OrderPayment, billing *models.Address) error {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(payment.AmountMinor),
		Currency:      stripe.String(strings.ToLower(payment.Currency)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	if payment.Token != nil {
		params.PaymentMethod = payment.Token
	}
	if billing != nil {
		params.Shipping = &stripe.ShippingDetailsParams{
			Name: stripe.String(billing.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(billing.Street1),
				Line2:      stripe.String(billing.Street2),
				City:       stripe.String(billing.City),
				State:      stripe.String(billing.State),
				PostalCode: stripe.String(billing.PostalCode),
				Country:    stripe.String(billing.Country),
			},
		}
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return fmt.Errorf("stripe preauthorize: %w", err)
	}

	payment.AuthorizationCode = pi.ID
	payment.ReferenceID = stripe.String(pi.ID)
	return nil
}

// Capture settles a previously placed hold, possibly for less than the
// authorized amount.
func (g *StripeGateway) Capture(ctx context.Context, payment *models.OrderPayment) error {
	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(payment.AmountMinor),
	}
	params.Context = ctx

	pi, err := paymentintent.Capture(payment.AuthorizationCode, params)
	if err != nil {
		return fmt.Errorf("stripe capture: %w", err)
	}

	payment.ReferenceID = stripe.String(pi.ID)
	return nil
}

// Sale authorizes and captures in one round trip (automatic capture).
func (g *StripeGateway) Sale(ctx context.Context, payment *models.OrderPayment, billing *models.Address) error {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(payment.AmountMinor),
		Currency: stripe.String(strings.ToLower(payment.Currency)),
		Confirm:  stripe.Bool(true),
	}
	params.Context = ctx
	if payment.Token != nil {
		params.PaymentMethod = payment.Token
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return fmt.Errorf("stripe sale: %w", err)
	}

	payment.AuthorizationCode = pi.ID
	payment.ReferenceID = stripe.String(pi.ID)
	return nil
}

// ReversePreAuthorization voids an uncaptured hold.
func (g *StripeGateway) ReversePreAuthorization(ctx context.Context, payment *models.OrderPayment) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := paymentintent.Cancel(payment.AuthorizationCode, params); err != nil {
		return fmt.Errorf("stripe reverse preauthorization: %w", err)
	}
	return nil
}
