package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripworks/booking-backend/internal/addresses"
	"github.com/tripworks/booking-backend/internal/cart"
	"github.com/tripworks/booking-backend/internal/currency"
	"github.com/tripworks/booking-backend/internal/delivery"
	"github.com/tripworks/booking-backend/internal/payments"
	"github.com/tripworks/booking-backend/internal/pricing"
	"github.com/tripworks/booking-backend/internal/promo"
	"github.com/tripworks/booking-backend/internal/purchase"
	"github.com/tripworks/booking-backend/pkg/config"
	"github.com/tripworks/booking-backend/pkg/enums"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
	"github.com/tripworks/booking-backend/pkg/metrics"
)

const returnPath = "/api/v1/checkout/payment/return"

// UserInfoInput is the first-step payload.
type UserInfoInput struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
}

// DeliveryInput is the delivery-options payload.
type DeliveryInput struct {
	Type string     `json:"type" validate:"required"`
	Time string     `json:"time" validate:"required"`
	Date *time.Time `json:"date,omitempty"`
}

// AddressInput selects one of the tourist's saved addresses.
type AddressInput struct {
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

// PaymentInput is the payment-method payload. The promo code rides along here
// because the summary with the discount is what the tourist confirms.
type PaymentInput struct {
	Method    string  `json:"method" validate:"required"`
	CardRef   *string `json:"card_ref,omitempty"`
	PromoCode *string `json:"promo_code,omitempty"`
}

// AdvanceInput carries the payload for whichever step the session is on.
type AdvanceInput struct {
	UserInfo *UserInfoInput `json:"user_info,omitempty"`
	Delivery *DeliveryInput `json:"delivery,omitempty"`
	Address  *AddressInput  `json:"address,omitempty"`
	Payment  *PaymentInput  `json:"payment,omitempty"`
}

// Service drives the checkout wizard and both finalization paths.
type Service interface {
	Start(ctx context.Context, touristID uuid.UUID, currencyCode string) (*Session, error)
	Get(ctx context.Context, touristID uuid.UUID, sessionID string) (*Session, *pricing.Quote, error)
	// Advance validates the current step's payload and moves forward; the
	// last data-entry step hands off to submitting.
	Advance(ctx context.Context, touristID uuid.UUID, sessionID string, input AdvanceInput) (*Session, error)
	// Back moves to the previous step without dropping entered data.
	Back(ctx context.Context, touristID uuid.UUID, sessionID string) (*Session, error)
	// CreatePaymentSession opens the processor-hosted page for card payments.
	CreatePaymentSession(ctx context.Context, touristID uuid.UUID, sessionID string) (*payments.Session, error)
	// FinalizeReturn completes the card path after the processor redirect.
	FinalizeReturn(ctx context.Context, token string) (*Session, *purchase.Result, error)
	// SubmitPurchase completes the synchronous wallet / cash / debit path.
	SubmitPurchase(ctx context.Context, touristID uuid.UUID, sessionID string) (*Session, *purchase.Result, error)
}

type service struct {
	store     SessionStore
	latch     *FinalizeLatch
	gateway   payments.Gateway
	cartSvc   cart.Service
	currSvc   currency.Service
	promoSvc  promo.Service
	addrSvc   addresses.Service
	purchaser purchase.Service
	jwtCfg    config.JWTConfig
	checkCfg  config.CheckoutConfig
	returnURL string
	checkm    *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewService wires the checkout flow controller.
func NewService(
	store SessionStore,
	latch *FinalizeLatch,
	gateway payments.Gateway,
	cartSvc cart.Service,
	currSvc currency.Service,
	promoSvc promo.Service,
	addrSvc addresses.Service,
	purchaser purchase.Service,
	jwtCfg config.JWTConfig,
	checkCfg config.CheckoutConfig,
	returnBaseURL string,
	checkm *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if latch == nil {
		return nil, fmt.Errorf("finalize latch required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if cartSvc == nil || currSvc == nil || promoSvc == nil || addrSvc == nil || purchaser == nil {
		return nil, fmt.Errorf("checkout dependencies incomplete")
	}
	return &service{
		store:     store,
		latch:     latch,
		gateway:   gateway,
		cartSvc:   cartSvc,
		currSvc:   currSvc,
		promoSvc:  promoSvc,
		addrSvc:   addrSvc,
		purchaser: purchaser,
		jwtCfg:    jwtCfg,
		checkCfg:  checkCfg,
		returnURL: strings.TrimRight(returnBaseURL, "/"),
		checkm:    checkm,
		logg:      logg,
	}, nil
}

func (s *service) Start(ctx context.Context, touristID uuid.UUID, currencyCode string) (*Session, error) {
	items, err := s.cartSvc.List(ctx, touristID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot start checkout with an empty cart")
	}

	display := s.currSvc.Display(ctx, strings.ToUpper(strings.TrimSpace(currencyCode)))
	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		TouristID: touristID,
		Step:      enums.CheckoutStepUserInfo,
		Items:     items,
		Currency:  display.Code,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithCheckoutSessionID(ctx, session.ID), "checkout session started")
	}
	return session, nil
}

func (s *service) Get(ctx context.Context, touristID uuid.UUID, sessionID string) (*Session, *pricing.Quote, error) {
	session, err := s.load(ctx, touristID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	quote := s.quote(ctx, session)
	return session, &quote, nil
}

func (s *service) Advance(ctx context.Context, touristID uuid.UUID, sessionID string, input AdvanceInput) (*Session, error) {
	session, err := s.load(ctx, touristID, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Step {
	case enums.CheckoutStepUserInfo:
		if err := applyUserInfo(session, input.UserInfo); err != nil {
			return nil, err
		}
		session.Step = enums.CheckoutStepDeliveryOptions

	case enums.CheckoutStepDeliveryOptions:
		if err := applyDelivery(session, input.Delivery); err != nil {
			return nil, err
		}
		session.Step = enums.CheckoutStepDeliveryAddress

	case enums.CheckoutStepDeliveryAddress:
		if err := s.applyAddress(ctx, session, input.Address); err != nil {
			return nil, err
		}
		session.Step = enums.CheckoutStepPaymentMethod

	case enums.CheckoutStepPaymentMethod:
		if err := s.applyPayment(ctx, session, input.Payment); err != nil {
			return nil, err
		}
		session.Step = enums.CheckoutStepSubmitting

	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot advance from step %q", session.Step))
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) Back(ctx context.Context, touristID uuid.UUID, sessionID string) (*Session, error) {
	session, err := s.load(ctx, touristID, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Step {
	case enums.CheckoutStepSubmitting, enums.CheckoutStepFailure:
		// Entered data survives a failed or aborted submission; only the
		// payment selection is revisited.
		session.Step = enums.CheckoutStepPaymentMethod
		session.FailureReason = ""
	case enums.CheckoutStepSuccess:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already completed")
	default:
		prev, ok := session.Step.Prev()
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "already at the first step")
		}
		session.Step = prev
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) CreatePaymentSession(ctx context.Context, touristID uuid.UUID, sessionID string) (*payments.Session, error) {
	session, err := s.load(ctx, touristID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != enums.CheckoutStepSubmitting {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not ready for payment")
	}
	if !session.PaymentMethod.RequiresExternalSession() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment method %q does not use an external payment page", session.PaymentMethod))
	}

	// Freeze the breakdown now; the processor charges this exact total and
	// the finalized order must record it even if rates move before the
	// redirect lands.
	quote := s.quote(ctx, session)
	frozen := &FrozenQuote{
		SubtotalCents:    pricing.ToCents(quote.Subtotal),
		DiscountCents:    pricing.ToCents(quote.Discount),
		DeliveryFeeCents: pricing.ToCents(quote.DeliveryFee),
		TotalCents:       pricing.ToCents(quote.Total),
	}

	token, err := EncodeResumeToken(s.jwtCfg, s.checkCfg, time.Now().UTC(), session.ID, touristID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint resume token")
	}

	created, err := s.gateway.CreateSession(ctx, payments.CreateSessionInput{
		Description: fmt.Sprintf("TripWorks booking (%d items)", len(session.Items)),
		AmountCents: frozen.TotalCents,
		Currency:    session.Currency,
		ReturnURL:   s.returnURL + returnPath + "?token=" + url.QueryEscape(token),
	})
	if err != nil {
		return nil, err
	}

	session.PaymentSessionID = &created.ID
	session.FrozenQuote = frozen
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.checkm.IncPaymentSession()
	return created, nil
}

func (s *service) FinalizeReturn(ctx context.Context, token string) (*Session, *purchase.Result, error) {
	sessionID, touristID, err := DecodeResumeToken(s.jwtCfg, token)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.load(ctx, touristID, sessionID)
	if err != nil {
		return nil, nil, err
	}

	// A repeat visit after success is answered from session state.
	if session.Step == enums.CheckoutStepSuccess {
		return session, nil, nil
	}
	// Only a session awaiting finalization (or retrying one that failed) may
	// be submitted; a session stepped back into editing must re-advance first.
	if session.Step != enums.CheckoutStepSubmitting && session.Step != enums.CheckoutStepFailure {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not awaiting payment finalization")
	}
	if session.PaymentSessionID == nil || *session.PaymentSessionID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no payment session to finalize")
	}
	paymentSessionID := *session.PaymentSessionID

	// The redirect itself proves nothing; only the processor's word does.
	status, err := s.gateway.Status(ctx, paymentSessionID)
	if err != nil {
		return nil, nil, err
	}
	if status != payments.StatusPaid {
		return nil, nil, pkgerrors.New(pkgerrors.CodePaymentUnverified, "payment is not confirmed by the processor")
	}

	acquired, err := s.latch.CheckAndMark(ctx, paymentSessionID)
	if err != nil {
		return nil, nil, err
	}
	if !acquired {
		s.checkm.IncFinalizeReplay()
		reloaded, loadErr := s.load(ctx, touristID, sessionID)
		if loadErr == nil && reloaded.Step == enums.CheckoutStepSuccess {
			return reloaded, nil, nil
		}
		return nil, nil, pkgerrors.New(pkgerrors.CodeIdempotency, "payment finalization already in progress")
	}

	result, err := s.submit(ctx, session, &paymentSessionID)
	if err != nil {
		if releaseErr := s.latch.Release(ctx, paymentSessionID); releaseErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithCheckoutSessionID(ctx, session.ID), "releasing finalize latch", releaseErr)
		}
		s.fail(ctx, session, err)
		return nil, nil, err
	}

	s.succeed(ctx, session, result)
	return session, result, nil
}

func (s *service) SubmitPurchase(ctx context.Context, touristID uuid.UUID, sessionID string) (*Session, *purchase.Result, error) {
	session, err := s.load(ctx, touristID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Step != enums.CheckoutStepSubmitting {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not ready for submission")
	}
	if session.PaymentMethod.RequiresExternalSession() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "card payments finalize through the payment return path")
	}

	result, err := s.submit(ctx, session, nil)
	if err != nil {
		s.fail(ctx, session, err)
		return nil, nil, err
	}

	s.succeed(ctx, session, result)
	return session, result, nil
}

// load fetches the session and enforces ownership. A foreign session reads as
// absent rather than forbidden.
func (s *service) load(ctx context.Context, touristID uuid.UUID, sessionID string) (*Session, error) {
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TouristID != touristID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found or expired")
	}
	return session, nil
}

// quote derives the authoritative price for the session's current state. A
// rates-feed outage degrades to native-currency figures instead of blocking
// the wizard.
func (s *service) quote(ctx context.Context, session *Session) pricing.Quote {
	rates, err := s.currSvc.Rates(ctx)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithCheckoutSessionID(ctx, session.ID), "rates unavailable, quoting at native rates")
		}
		rates = pricing.Rates{}
	}

	var opt *delivery.Option
	if session.DeliveryType != "" {
		if found, ok := delivery.Lookup(session.DeliveryType); ok {
			opt = &found
		}
	}

	var terms *pricing.PromoTerms
	if session.PromoCode != nil && session.PromoPercentOff > 0 {
		terms = &pricing.PromoTerms{Code: *session.PromoCode, PercentOff: session.PromoPercentOff}
	}

	preferred := s.currSvc.Display(ctx, session.Currency)
	return pricing.Compute(cart.LineItems(session.Items), opt, terms, rates, preferred)
}

func (s *service) submit(ctx context.Context, session *Session, paymentSessionID *string) (*purchase.Result, error) {
	if session.AddressID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping address is missing")
	}
	// Reconstruct the address from its reference; it may have been deleted
	// between selection and submission.
	address, err := s.addrSvc.Get(ctx, session.TouristID, *session.AddressID)
	if err != nil {
		return nil, err
	}

	var subtotalCents, discountCents, feeCents, totalCents int64
	walletCharge := int64(0)
	if paymentSessionID != nil && session.FrozenQuote != nil {
		// The processor charged the frozen total; the order records it, not
		// a recomputation against whatever the rates are now.
		subtotalCents = session.FrozenQuote.SubtotalCents
		discountCents = session.FrozenQuote.DiscountCents
		feeCents = session.FrozenQuote.DeliveryFeeCents
		totalCents = session.FrozenQuote.TotalCents
	} else {
		quote := s.quote(ctx, session)
		subtotalCents = pricing.ToCents(quote.Subtotal)
		discountCents = pricing.ToCents(quote.Discount)
		feeCents = pricing.ToCents(quote.DeliveryFee)
		totalCents = pricing.ToCents(quote.Total)
		if session.PaymentMethod == enums.PaymentMethodWallet {
			rates, ratesErr := s.currSvc.Rates(ctx)
			if ratesErr != nil {
				rates = pricing.Rates{}
			}
			walletCharge = pricing.ToCents(pricing.Convert(quote.Total, session.Currency, "USD", rates))
		}
	}

	return s.purchaser.Submit(ctx, purchase.Submission{
		TouristID:         session.TouristID,
		Items:             session.Items,
		SubtotalCents:     subtotalCents,
		DiscountCents:     discountCents,
		DeliveryFeeCents:  feeCents,
		TotalCents:        totalCents,
		Currency:          session.Currency,
		WalletChargeCents: walletCharge,
		PaymentMethod:     session.PaymentMethod,
		CardRef:           session.CardRef,
		PaymentSessionID:  paymentSessionID,
		PromoCode:         session.PromoCode,
		DeliveryType:      session.DeliveryType,
		DeliveryTime:      session.DeliveryTime,
		DeliveryDate:      session.DeliveryDate,
		ShippingAddressID: address.ID,
		LocationType:      address.LocationType,
	})
}

func (s *service) succeed(ctx context.Context, session *Session, result *purchase.Result) {
	session.Step = enums.CheckoutStepSuccess
	session.OrderID = &result.Order.ID
	session.FailureReason = ""
	if err := s.store.Save(ctx, session); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithCheckoutSessionID(ctx, session.ID), "persisting completed checkout session", err)
	}
}

func (s *service) fail(ctx context.Context, session *Session, cause error) {
	session.Step = enums.CheckoutStepFailure
	if typed := pkgerrors.As(cause); typed != nil {
		session.FailureReason = typed.Message()
	} else {
		session.FailureReason = "purchase submission failed"
	}
	if err := s.store.Save(ctx, session); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithCheckoutSessionID(ctx, session.ID), "persisting failed checkout session", err)
	}
}

func applyUserInfo(session *Session, input *UserInfoInput) error {
	if input == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user info payload is required")
	}
	details := map[string]string{}
	if strings.TrimSpace(input.FullName) == "" {
		details["full_name"] = "required"
	}
	if strings.TrimSpace(input.Email) == "" || !strings.Contains(input.Email, "@") {
		details["email"] = "a valid email is required"
	}
	if strings.TrimSpace(input.Phone) == "" {
		details["phone"] = "required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user info is incomplete").WithDetails(details)
	}
	session.UserInfo = &UserInfo{
		FullName: strings.TrimSpace(input.FullName),
		Email:    strings.TrimSpace(input.Email),
		Phone:    strings.TrimSpace(input.Phone),
	}
	return nil
}

func applyDelivery(session *Session, input *DeliveryInput) error {
	if input == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery payload is required")
	}
	deliveryType, err := enums.ParseDeliveryType(input.Type)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery type").
			WithDetails(map[string]string{"type": input.Type})
	}
	if _, ok := delivery.Lookup(deliveryType); !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery type has no tariff").
			WithDetails(map[string]string{"type": input.Type})
	}
	if strings.TrimSpace(input.Time) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery time is required").
			WithDetails(map[string]string{"time": "required"})
	}
	session.DeliveryType = deliveryType
	session.DeliveryTime = strings.TrimSpace(input.Time)
	session.DeliveryDate = input.Date
	return nil
}

func (s *service) applyAddress(ctx context.Context, session *Session, input *AddressInput) error {
	if input == nil || input.AddressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address selection is required").
			WithDetails(map[string]string{"address_id": "required"})
	}
	address, err := s.addrSvc.Get(ctx, session.TouristID, input.AddressID)
	if err != nil {
		return err
	}
	session.AddressID = &address.ID
	session.LocationType = address.LocationType
	return nil
}

func (s *service) applyPayment(ctx context.Context, session *Session, input *PaymentInput) error {
	if input == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment payload is required")
	}
	method, err := enums.ParsePaymentMethod(input.Method)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]string{"method": input.Method})
	}
	if method.RequiresCard() && (input.CardRef == nil || strings.TrimSpace(*input.CardRef) == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "card payment requires a card reference").
			WithDetails(map[string]string{"card_ref": "required"})
	}

	if input.PromoCode != nil && strings.TrimSpace(*input.PromoCode) != "" {
		code := strings.TrimSpace(*input.PromoCode)
		record, err := s.promoSvc.Lookup(ctx, code, time.Now().UTC())
		if err != nil {
			return err
		}
		session.PromoCode = &record.Code
		session.PromoPercentOff = record.PercentOff
	} else {
		session.PromoCode = nil
		session.PromoPercentOff = 0
	}

	session.PaymentMethod = method
	session.CardRef = input.CardRef
	return nil
}
