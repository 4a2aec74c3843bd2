package webhook

import (
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/jobxpress/creditgate/internal/domain"
)

// DefaultTolerance is Stripe's default replay window.
const DefaultTolerance = stripewebhook.DefaultTolerance

// ConstructEvent verifies a Stripe-Signature header against payload and decodes the event.
// tolerance <= 0 falls back to DefaultTolerance. Events from any API version are accepted.
func ConstructEvent(payload []byte, header, secret string, tolerance time.Duration) (stripe.Event, error) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	evt, err := stripewebhook.ConstructEventWithOptions(payload, header, secret, stripewebhook.ConstructEventOptions{
		Tolerance:                tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return stripe.Event{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
		}
		return stripe.Event{}, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return evt, nil
}

// SignatureHeader builds a valid header for payload at t. Used by tests and the CLI.
func SignatureHeader(payload []byte, secret string, t time.Time) string {
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: t,
		Scheme:    "v1",
	})
	return signed.Header
}

func isSignatureError(err error) bool {
	return errors.Is(err, stripewebhook.ErrNotSigned) ||
		errors.Is(err, stripewebhook.ErrInvalidHeader) ||
		errors.Is(err, stripewebhook.ErrNoValidSignature) ||
		errors.Is(err, stripewebhook.ErrTooOld)
}
