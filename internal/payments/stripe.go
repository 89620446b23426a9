package payments

import (
	"context"
	"fmt"
	"os"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/example/fleetctl/internal/models"
)

// StripeSettler settles a completed rental's payment through Stripe
// PaymentIntents. It implements coordinator.Settler.
type StripeSettler struct {
	Currency string
}

// NewStripeSettler initializes stripe-go with the STRIPE_API_KEY env var.
// currency defaults to "gbp" if empty.
func NewStripeSettler(currency string) *StripeSettler {
	stripe.Key = os.Getenv("STRIPE_API_KEY")
	if currency == "" {
		currency = "gbp"
	}
	return &StripeSettler{Currency: currency}
}

// Settle creates and confirms a PaymentIntent for the rental's total,
// converting it to the currency's minor unit (pence/cents). The rider's
// default payment method is expected to already be attached to their
// Stripe customer out of band; fleetctl itself never touches card data.
func (s *StripeSettler) Settle(ctx context.Context, payment models.Payment) error {
	amountMinor := int64(payment.Total*100 + 0.5)
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountMinor),
		Currency:      stripe.String(s.Currency),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(payment.Description),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodAutomatic)),
	}
	params.Context = ctx
	pi, err := paymentintent.New(params)
	if err != nil {
		return fmt.Errorf("stripe settle rental=%s: %w", payment.RentalID, err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded && pi.Status != stripe.PaymentIntentStatusProcessing {
		return fmt.Errorf("stripe settle rental=%s: unexpected status %s", payment.RentalID, pi.Status)
	}
	return nil
}
