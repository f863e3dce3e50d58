package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tripworks/booking-backend/pkg/config"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

// Metadata describes one currency as reported by the rates provider.
type Metadata struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// Client talks to the external exchange-rate feed.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a rates-feed client from configuration.
func NewClient(cfg config.CurrencyConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.RatesURL), "/")
	if base == "" {
		return nil, fmt.Errorf("currency rates url is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:    base,
	}, nil
}

type ratesResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FetchRates pulls the full rate table from the feed.
func (c *Client) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	var payload ratesResponse
	if err := c.getJSON(ctx, c.baseURL+"/rates", &payload); err != nil {
		return nil, err
	}
	if len(payload.Rates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "rates feed returned no rates")
	}
	return payload.Rates, nil
}

// FetchCurrency resolves code/symbol metadata for a currency id.
func (c *Client) FetchCurrency(ctx context.Context, id string) (*Metadata, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency id is required")
	}
	var payload Metadata
	if err := c.getJSON(ctx, c.baseURL+"/currencies/"+id, &payload); err != nil {
		return nil, err
	}
	if payload.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "rates feed returned empty currency metadata")
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build rates request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rates feed unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "currency not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("rates feed returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode rates feed response")
	}
	return nil
}
