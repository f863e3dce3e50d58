package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/internal/addresses"
	"github.com/tripworks/booking-backend/internal/cart"
	"github.com/tripworks/booking-backend/internal/currency"
	"github.com/tripworks/booking-backend/internal/payments"
	"github.com/tripworks/booking-backend/internal/pricing"
	"github.com/tripworks/booking-backend/internal/purchase"
	"github.com/tripworks/booking-backend/pkg/config"
	"github.com/tripworks/booking-backend/pkg/db/models"
	"github.com/tripworks/booking-backend/pkg/enums"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

// in-memory redis stand-ins

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return val, nil
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memStore) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }
func (m *memStore) CacheKey(parts ...string) string        { return "cache" }
func (m *memStore) CheckoutSessionKey(id string) string    { return "session:" + id }

// service stubs

type stubCart struct {
	items []models.CartItem
}

func (s *stubCart) List(context.Context, uuid.UUID) ([]models.CartItem, error) { return s.items, nil }
func (s *stubCart) AddItem(context.Context, uuid.UUID, cart.AddItemInput) (*models.CartItem, error) {
	return nil, nil
}
func (s *stubCart) UpdateQuantity(context.Context, uuid.UUID, uuid.UUID, int) (*models.CartItem, error) {
	return nil, nil
}
func (s *stubCart) RemoveItem(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (s *stubCart) Empty(context.Context, *gorm.DB, uuid.UUID) error       { return nil }

type stubCurrency struct{}

func (stubCurrency) Rates(context.Context) (pricing.Rates, error) {
	return pricing.Rates{"USD": decimal.NewFromInt(1)}, nil
}
func (stubCurrency) Currency(context.Context, string) (*currency.Metadata, error) {
	return &currency.Metadata{Code: "USD", Symbol: "$"}, nil
}
func (stubCurrency) Display(_ context.Context, code string) pricing.Currency {
	if code == "" {
		code = "USD"
	}
	return pricing.Currency{Code: code, Symbol: "$"}
}

// driftingCurrency lets a test move the rate table mid-flow, the way a feed
// refresh does between redirect-out and redirect-back.
type driftingCurrency struct {
	mu    sync.Mutex
	rates pricing.Rates
}

func (d *driftingCurrency) setRate(code string, rate decimal.Decimal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rates[code] = rate
}

func (d *driftingCurrency) Rates(context.Context) (pricing.Rates, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := pricing.Rates{}
	for code, rate := range d.rates {
		out[code] = rate
	}
	return out, nil
}

func (d *driftingCurrency) Currency(context.Context, string) (*currency.Metadata, error) {
	return &currency.Metadata{Code: "EUR", Symbol: "€"}, nil
}

func (d *driftingCurrency) Display(_ context.Context, code string) pricing.Currency {
	if code == "" {
		code = "USD"
	}
	return pricing.Currency{Code: code, Symbol: "€"}
}

type stubPromo struct {
	record *models.PromoCode
	err    error
}

func (s *stubPromo) Lookup(context.Context, string, time.Time) (*models.PromoCode, error) {
	return s.record, s.err
}
func (s *stubPromo) Redeem(context.Context, *gorm.DB, string, time.Time) (*models.PromoCode, error) {
	return s.record, s.err
}

type stubAddresses struct {
	address *models.ShippingAddress
}

func (s *stubAddresses) List(context.Context, uuid.UUID) ([]models.ShippingAddress, error) {
	return nil, nil
}
func (s *stubAddresses) Get(_ context.Context, _ uuid.UUID, id uuid.UUID) (*models.ShippingAddress, error) {
	if s.address == nil || s.address.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return s.address, nil
}
func (s *stubAddresses) Create(context.Context, uuid.UUID, addresses.AddressInput) (*models.ShippingAddress, error) {
	return nil, nil
}
func (s *stubAddresses) Update(context.Context, uuid.UUID, uuid.UUID, addresses.AddressInput) (*models.ShippingAddress, error) {
	return nil, nil
}
func (s *stubAddresses) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (s *stubAddresses) SetDefault(context.Context, uuid.UUID, uuid.UUID) (*models.ShippingAddress, error) {
	return nil, nil
}

type stubPurchaser struct {
	mu      sync.Mutex
	submits int
	last    *purchase.Submission
	err     error
}

func (s *stubPurchaser) Submit(_ context.Context, sub purchase.Submission) (*purchase.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.submits++
	s.last = &sub
	return &purchase.Result{Order: &models.Order{ID: uuid.New(), TouristID: sub.TouristID}}, nil
}

func (s *stubPurchaser) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submits
}

func (s *stubPurchaser) lastSubmission() *purchase.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type stubGateway struct {
	status     payments.Status
	lastAmount int64
}

func (g *stubGateway) CreateSession(_ context.Context, input payments.CreateSessionInput) (*payments.Session, error) {
	g.lastAmount = input.AmountCents
	return &payments.Session{ID: "ps_" + uuid.NewString(), RedirectURL: "https://pay.example.com/s"}, nil
}
func (g *stubGateway) Status(context.Context, string) (payments.Status, error) {
	return g.status, nil
}

type harness struct {
	svc       Service
	touristID uuid.UUID
	addressID uuid.UUID
	currency  string
	purchaser *stubPurchaser
	gateway   *stubGateway
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, stubCurrency{})
}

func newHarnessWith(t *testing.T, curr currency.Service) *harness {
	t.Helper()

	touristID := uuid.New()
	addressID := uuid.New()
	store := newMemStore()
	purchaser := &stubPurchaser{}
	gateway := &stubGateway{status: payments.StatusPaid}

	items := []models.CartItem{{
		ID:             uuid.New(),
		TouristID:      touristID,
		ProductRef:     "tour_pyramids",
		ProductName:    "Pyramids Day Tour",
		Quantity:       2,
		UnitPriceCents: 5000,
		Currency:       "USD",
		LineTotalCents: 10000,
	}}

	jwtCfg := config.JWTConfig{Secret: "test-secret", Issuer: "tripworks", ExpirationMinutes: 60}
	checkCfg := config.CheckoutConfig{SessionTTL: time.Hour, FinalizeTTL: time.Hour, ResumeTokenSkew: time.Hour}

	svc, err := NewService(
		NewSessionStore(store, time.Hour),
		NewFinalizeLatch(store, time.Hour),
		gateway,
		&stubCart{items: items},
		curr,
		&stubPromo{record: &models.PromoCode{Code: "WELCOME10", PercentOff: 10}},
		&stubAddresses{address: &models.ShippingAddress{
			ID:           addressID,
			TouristID:    touristID,
			LocationType: enums.LocationTypeHotel,
		}},
		purchaser,
		jwtCfg,
		checkCfg,
		"https://api.tripworks.example",
		nil,
		nil,
	)
	require.NoError(t, err)

	return &harness{
		svc:       svc,
		touristID: touristID,
		addressID: addressID,
		currency:  "USD",
		purchaser: purchaser,
		gateway:   gateway,
	}
}

func (h *harness) startSession(t *testing.T) *Session {
	t.Helper()
	session, err := h.svc.Start(context.Background(), h.touristID, h.currency)
	require.NoError(t, err)
	return session
}

// walkToSubmitting advances a fresh session through every data-entry step.
func (h *harness) walkToSubmitting(t *testing.T, method string, promoCode *string) *Session {
	t.Helper()
	ctx := context.Background()
	session := h.startSession(t)

	session, err := h.svc.Advance(ctx, h.touristID, session.ID, AdvanceInput{
		UserInfo: &UserInfoInput{FullName: "Nadia Hassan", Email: "nadia@example.com", Phone: "+201000000000"},
	})
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepDeliveryOptions, session.Step)

	session, err = h.svc.Advance(ctx, h.touristID, session.ID, AdvanceInput{
		Delivery: &DeliveryInput{Type: "standard", Time: "09:00-12:00"},
	})
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepDeliveryAddress, session.Step)

	session, err = h.svc.Advance(ctx, h.touristID, session.ID, AdvanceInput{
		Address: &AddressInput{AddressID: h.addressID},
	})
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepPaymentMethod, session.Step)

	cardRef := "card_123"
	payment := &PaymentInput{Method: method, PromoCode: promoCode}
	if method == "credit_card" || method == "debit_card" {
		payment.CardRef = &cardRef
	}
	session, err = h.svc.Advance(ctx, h.touristID, session.ID, AdvanceInput{Payment: payment})
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepSubmitting, session.Step)

	return session
}

func TestStartRequiresNonEmptyCart(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	empty := &stubCart{}
	svc, err := NewService(
		NewSessionStore(newMemStore(), time.Hour),
		NewFinalizeLatch(newMemStore(), time.Hour),
		h.gateway, empty, stubCurrency{}, &stubPromo{}, &stubAddresses{}, h.purchaser,
		config.JWTConfig{Secret: "s", Issuer: "i", ExpirationMinutes: 60},
		config.CheckoutConfig{SessionTTL: time.Hour},
		"https://api.tripworks.example", nil, nil,
	)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), uuid.New(), "USD")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestAdvanceValidatesCurrentStep(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.startSession(t)

	_, err := h.svc.Advance(context.Background(), h.touristID, session.ID, AdvanceInput{
		UserInfo: &UserInfoInput{FullName: "", Email: "not-an-email", Phone: ""},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	require.Contains(t, details, "full_name")
	require.Contains(t, details, "email")
	require.Contains(t, details, "phone")
}

func TestBackKeepsEnteredData(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.walkToSubmitting(t, "wallet", nil)

	session, err := h.svc.Back(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepPaymentMethod, session.Step)
	require.NotNil(t, session.UserInfo)
	require.Equal(t, enums.DeliveryTypeStandard, session.DeliveryType)
	require.NotNil(t, session.AddressID)

	session, err = h.svc.Back(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepDeliveryAddress, session.Step)
}

func TestBackAtFirstStepRejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.startSession(t)

	_, err := h.svc.Back(context.Background(), h.touristID, session.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestForeignSessionReadsAsNotFound(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.startSession(t)

	_, _, err := h.svc.Get(context.Background(), uuid.New(), session.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestQuoteAppliesPromoAndDelivery(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	code := "WELCOME10"
	session := h.walkToSubmitting(t, "wallet", &code)

	_, quote, err := h.svc.Get(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)
	// $100.00 - 10% + $2.99 standard fee
	require.Equal(t, int64(9299), pricing.ToCents(quote.Total))
}

func TestSubmitPurchaseWalletPath(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.walkToSubmitting(t, "wallet", nil)

	session, result, err := h.svc.SubmitPurchase(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, enums.CheckoutStepSuccess, session.Step)
	require.NotNil(t, session.OrderID)
	require.Equal(t, 1, h.purchaser.count())
}

func TestSubmitPurchaseRejectsCardMethod(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.walkToSubmitting(t, "credit_card", nil)

	_, _, err := h.svc.SubmitPurchase(context.Background(), h.touristID, session.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestSubmitFailureMovesToFailureStepAndBackRecovers(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.walkToSubmitting(t, "wallet", nil)

	h.purchaser.err = pkgerrors.New(pkgerrors.CodeInsufficientFunds, "wallet balance is insufficient")
	_, _, err := h.svc.SubmitPurchase(context.Background(), h.touristID, session.ID)
	require.Error(t, err)

	reloaded, _, err := h.svc.Get(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepFailure, reloaded.Step)
	require.Equal(t, "wallet balance is insufficient", reloaded.FailureReason)
	require.NotNil(t, reloaded.UserInfo)

	h.purchaser.err = nil
	recovered, err := h.svc.Back(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepPaymentMethod, recovered.Step)
	require.Empty(t, recovered.FailureReason)
}

func TestCardPathFinalizeIsOneShot(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.walkToSubmitting(t, "credit_card", nil)

	created, err := h.svc.CreatePaymentSession(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)
	require.NotEmpty(t, created.RedirectURL)

	token, err := EncodeResumeToken(
		config.JWTConfig{Secret: "test-secret", Issuer: "tripworks", ExpirationMinutes: 60},
		config.CheckoutConfig{SessionTTL: time.Hour, ResumeTokenSkew: time.Hour},
		time.Now().UTC(), session.ID, h.touristID)
	require.NoError(t, err)

	finalized, result, err := h.svc.FinalizeReturn(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, enums.CheckoutStepSuccess, finalized.Step)

	// The second delivery of the same redirect answers from session state
	// without a second purchase.
	again, result2, err := h.svc.FinalizeReturn(context.Background(), token)
	require.NoError(t, err)
	require.Nil(t, result2)
	require.Equal(t, enums.CheckoutStepSuccess, again.Step)
	require.Equal(t, 1, h.purchaser.count())
}

func TestFinalizeRequiresProcessorConfirmation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.walkToSubmitting(t, "credit_card", nil)

	_, err := h.svc.CreatePaymentSession(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)

	h.gateway.status = payments.StatusUnpaid
	token, err := EncodeResumeToken(
		config.JWTConfig{Secret: "test-secret", Issuer: "tripworks", ExpirationMinutes: 60},
		config.CheckoutConfig{SessionTTL: time.Hour, ResumeTokenSkew: time.Hour},
		time.Now().UTC(), session.ID, h.touristID)
	require.NoError(t, err)

	_, _, err = h.svc.FinalizeReturn(context.Background(), token)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodePaymentUnverified, typed.Code())
	require.Zero(t, h.purchaser.count())
}

func TestFinalizeRejectsForgedToken(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.walkToSubmitting(t, "credit_card", nil)
	_, err := h.svc.CreatePaymentSession(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)

	forged, err := EncodeResumeToken(
		config.JWTConfig{Secret: "wrong-secret", Issuer: "tripworks", ExpirationMinutes: 60},
		config.CheckoutConfig{SessionTTL: time.Hour, ResumeTokenSkew: time.Hour},
		time.Now().UTC(), session.ID, h.touristID)
	require.NoError(t, err)

	_, _, err = h.svc.FinalizeReturn(context.Background(), forged)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestResumeTokenRoundTrip(t *testing.T) {
	t.Parallel()

	jwtCfg := config.JWTConfig{Secret: "test-secret", Issuer: "tripworks"}
	checkCfg := config.CheckoutConfig{SessionTTL: time.Hour, ResumeTokenSkew: time.Hour}
	touristID := uuid.New()

	token, err := EncodeResumeToken(jwtCfg, checkCfg, time.Now().UTC(), "cs_123", touristID)
	require.NoError(t, err)

	sessionID, decodedTourist, err := DecodeResumeToken(jwtCfg, token)
	require.NoError(t, err)
	require.Equal(t, "cs_123", sessionID)
	require.Equal(t, touristID, decodedTourist)
}

func TestLatchReleasedAfterFailedFinalize(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.walkToSubmitting(t, "credit_card", nil)
	_, err := h.svc.CreatePaymentSession(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)

	token, err := EncodeResumeToken(
		config.JWTConfig{Secret: "test-secret", Issuer: "tripworks", ExpirationMinutes: 60},
		config.CheckoutConfig{SessionTTL: time.Hour, ResumeTokenSkew: time.Hour},
		time.Now().UTC(), session.ID, h.touristID)
	require.NoError(t, err)

	h.purchaser.err = pkgerrors.New(pkgerrors.CodeDependency, "db down")
	_, _, err = h.svc.FinalizeReturn(context.Background(), token)
	require.Error(t, err)

	// Session dropped to failure; step back before retrying the return.
	_, err = h.svc.Back(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)
	_, err = h.svc.Advance(context.Background(), h.touristID, session.ID, AdvanceInput{
		Payment: &PaymentInput{Method: "credit_card", CardRef: stringPtr("card_123")},
	})
	require.NoError(t, err)

	h.purchaser.err = nil
	finalized, result, err := h.svc.FinalizeReturn(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, enums.CheckoutStepSuccess, finalized.Step)
	require.Equal(t, 1, h.purchaser.count())
}

func TestCardFinalizeRecordsAmountChargedAfterRateDrift(t *testing.T) {
	t.Parallel()

	rates := &driftingCurrency{rates: pricing.Rates{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("0.5"),
	}}
	h := newHarnessWith(t, rates)
	h.currency = "EUR"
	session := h.walkToSubmitting(t, "credit_card", nil)

	_, err := h.svc.CreatePaymentSession(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)
	// €100.00 cart at 0.5 plus the €1.50 standard fee.
	require.Equal(t, int64(5150), h.gateway.lastAmount)

	// The feed moves while the tourist is on the processor's page.
	rates.setRate("EUR", decimal.RequireFromString("0.6"))

	token, err := EncodeResumeToken(
		config.JWTConfig{Secret: "test-secret", Issuer: "tripworks", ExpirationMinutes: 60},
		config.CheckoutConfig{SessionTTL: time.Hour, ResumeTokenSkew: time.Hour},
		time.Now().UTC(), session.ID, h.touristID)
	require.NoError(t, err)

	_, result, err := h.svc.FinalizeReturn(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, result)

	sub := h.purchaser.lastSubmission()
	require.NotNil(t, sub)
	require.Equal(t, h.gateway.lastAmount, sub.TotalCents)
	require.Equal(t, int64(5150), sub.TotalCents)
	require.Equal(t, sub.TotalCents, sub.SubtotalCents-sub.DiscountCents+sub.DeliveryFeeCents)
}

func TestFinalizeRejectsSessionSteppedBack(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.walkToSubmitting(t, "credit_card", nil)
	_, err := h.svc.CreatePaymentSession(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)

	// The tourist steps back to edit the payment selection before the
	// redirect lands.
	_, err = h.svc.Back(context.Background(), h.touristID, session.ID)
	require.NoError(t, err)

	token, err := EncodeResumeToken(
		config.JWTConfig{Secret: "test-secret", Issuer: "tripworks", ExpirationMinutes: 60},
		config.CheckoutConfig{SessionTTL: time.Hour, ResumeTokenSkew: time.Hour},
		time.Now().UTC(), session.ID, h.touristID)
	require.NoError(t, err)

	_, _, err = h.svc.FinalizeReturn(context.Background(), token)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	require.Zero(t, h.purchaser.count())
}

func stringPtr(s string) *string { return &s }
