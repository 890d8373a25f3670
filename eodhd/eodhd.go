// Package eodhd provides end of day prices from the EODHD API (https://eodhd.com/).
package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/date"
	"github.com/assetutils/portfolio/remote"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the EODHD API root.
const DefaultBaseURL = "https://eodhd.com"

// APIKeyEnv is the environment variable holding the API key.
const APIKeyEnv = "EODHD_API_KEY"

// Provider is a portfolio.MarketDataProvider over the EODHD end of day API.
//
// The asset reference is the EODHD ticker, like "FXUS.MCX".
type Provider struct {
	APIKey  string
	BaseURL string
	Client  *remote.Client
}

// New returns a provider for this key; empty baseURL means DefaultBaseURL.
func New(apiKey, baseURL string, client *remote.Client) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = remote.Default()
	}
	return &Provider{APIKey: apiKey, BaseURL: strings.TrimSuffix(baseURL, "/"), Client: client}
}

func (p *Provider) url(path string, q url.Values) string {
	q.Set("fmt", "json")
	q.Set("api_token", p.APIKey)
	return p.BaseURL + path + "?" + q.Encode()
}

// eod is one item of the /api/eod response.
//
//	{"date": "2024-02-13", "open": 675.066, "high": 684.219, "low": 648.659,
//	 "close": 668.445, "adjusted_close": 67.705, "volume": 0}
type eod struct {
	Date  date.Date       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// FetchPriceHistory implements portfolio.MarketDataProvider using the daily close.
func (p *Provider) FetchPriceHistory(ctx context.Context, asset portfolio.AssetDescriptor, from, to date.Date) ([]portfolio.Observation, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("%w: missing EODHD API key, set %s", portfolio.ErrValidation, APIKeyEnv)
	}
	ticker := asset.Ref
	if ticker == "" {
		ticker = asset.Ticker
	}
	if ticker == "" {
		return nil, fmt.Errorf("%w: asset %s has no EODHD ticker", portfolio.ErrValidation, asset.ID)
	}

	q := url.Values{}
	q.Set("from", from.String())
	q.Set("to", to.String())
	var content []eod
	if err := p.Client.GetJSON(ctx, p.url("/api/eod/"+url.PathEscape(ticker), q), &content); err != nil {
		return nil, fmt.Errorf("cannot fetch %s prices: %w", ticker, err)
	}

	res := make([]portfolio.Observation, 0, len(content))
	for _, c := range content {
		if c.Date.IsZero() {
			return nil, fmt.Errorf("%w: %s price without date", portfolio.ErrParse, ticker)
		}
		res = append(res, portfolio.Observation{Date: c.Date, Price: c.Close})
	}
	// the API returns ascending dates, but nothing guarantees it.
	portfolio.SortObservations(res)
	log.Debug().Str("ticker", ticker).Int("observations", len(res)).Msg("eodhd prices fetched")
	return res, nil
}
