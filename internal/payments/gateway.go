package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/tripworks/booking-backend/pkg/config"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidEnv       = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
	errReturnURLMissing = errors.New("return url is required")
)

// Status is the provider-reported state of an external payment session.
type Status string

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
)

// CreateSessionInput describes the hosted payment page to open. The amount is
// the full quoted total; the breakdown stays on our side.
type CreateSessionInput struct {
	Description string
	AmountCents int64
	Currency    string
	ReturnURL   string
}

// Session is a created hosted-payment session.
type Session struct {
	ID          string
	RedirectURL string
}

// Gateway is the narrow payment-provider surface the checkout flow needs.
type Gateway interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	// Status re-fetches the session from the provider. Finalization trusts
	// this, never the redirect alone.
	Status(ctx context.Context, sessionID string) (Status, error)
}

type stripeGateway struct {
	logg *logger.Logger
}

// NewStripeGateway initializes Stripe once with the configured key and env.
func NewStripeGateway(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (Gateway, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe gateway initialized (%s)", env))
	}
	return &stripeGateway{logg: logg}, nil
}

func (g *stripeGateway) CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if strings.TrimSpace(input.ReturnURL) == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, errReturnURLMissing, "create payment session")
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(input.Currency)),
					UnitAmount: stripe.Int64(input.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(input.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(input.ReturnURL),
		CancelURL:  stripe.String(input.ReturnURL),
	}

	params.Context = ctx

	created, err := checkoutsession.New(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
	}
	return &Session{ID: created.ID, RedirectURL: created.URL}, nil
}

func (g *stripeGateway) Status(ctx context.Context, sessionID string) (Status, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment session id is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	fetched, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment session")
	}
	if fetched.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return StatusPaid, nil
	}
	return StatusUnpaid, nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidEnv
	}
}
