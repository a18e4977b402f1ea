package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nftwatch/internal/amount"
)

// PriceClient converts amounts to USD through the CoinMarketCap
// price-conversion endpoint.
type PriceClient struct {
	APIKey        string
	ConversionURL string
	HTTPClient    *http.Client
}

type conversionResponse struct {
	Data json.RawMessage `json:"data"`
}

type conversionData struct {
	Quote map[string]struct {
		Price float64 `json:"price"`
	} `json:"quote"`
}

// GetCoinPrice converts a prepared query to USD. ok is false when the
// client is unconfigured; callers omit the USD figure on any failure.
func (c *PriceClient) GetCoinPrice(ctx context.Context, q amount.ConversionQuery) (float64, error) {
	if c.APIKey == "" || c.ConversionURL == "" {
		return 0, fmt.Errorf("price client not configured")
	}

	params := url.Values{}
	params.Set("amount", q.Value)
	params.Set("symbol", q.Symbol)
	params.Set("convert", "USD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ConversionURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price conversion status %d", resp.StatusCode)
	}

	var envelope conversionResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return 0, err
	}

	// The v2 endpoint returns an object for a single symbol and an array
	// when the symbol is ambiguous; take the first match either way.
	var single conversionData
	if err := json.Unmarshal(envelope.Data, &single); err == nil && len(single.Quote) > 0 {
		return single.Quote["USD"].Price, nil
	}
	var many []conversionData
	if err := json.Unmarshal(envelope.Data, &many); err == nil && len(many) > 0 {
		return many[0].Quote["USD"].Price, nil
	}

	return 0, fmt.Errorf("no USD quote in conversion response")
}

func (c *PriceClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}
