package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tripworks/booking-backend/pkg/config"
)

func TestNewStripeGatewayValidatesKeyAgainstEnv(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr bool
	}{
		{"test key in test env", config.StripeConfig{APIKey: "sk_test_abc", Env: "test"}, false},
		{"live key in test env", config.StripeConfig{APIKey: "sk_live_abc", Env: "test"}, true},
		{"live key in live env", config.StripeConfig{APIKey: "sk_live_abc", Env: "live"}, false},
		{"missing key", config.StripeConfig{Env: "test"}, true},
		{"unknown env", config.StripeConfig{APIKey: "sk_test_abc", Env: "sandbox"}, true},
		{"env defaults to test", config.StripeConfig{APIKey: "sk_test_abc"}, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStripeGateway(context.Background(), tc.cfg, nil)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCreateSessionRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	gateway, err := NewStripeGateway(context.Background(), config.StripeConfig{APIKey: "sk_test_abc"}, nil)
	require.NoError(t, err)

	_, err = gateway.CreateSession(context.Background(), CreateSessionInput{
		Description: "TripWorks order",
		AmountCents: 0,
		Currency:    "USD",
		ReturnURL:   "https://example.com/return",
	})
	require.Error(t, err)
}
