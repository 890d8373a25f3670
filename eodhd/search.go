package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/assetutils/portfolio"
)

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code     string `json:"Code"`
	Exchange string `json:"Exchange"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
	Country  string `json:"Country"`
	Currency string `json:"Currency"`
	ISIN     string `json:"ISIN"`
}

// Ticker returns the EODHD ticker, code and exchange.
func (r SearchResult) Ticker() string { return r.Code + "." + r.Exchange }

// Descriptor converts the result into an asset descriptor. Funds are
// fractional, everything else trades in whole units.
func (r SearchResult) Descriptor() portfolio.AssetDescriptor {
	kind := portfolio.ETF
	if t := strings.ToLower(r.Type); t == "fund" || t == "mutual fund" {
		kind = portfolio.Fund
	}
	return portfolio.AssetDescriptor{
		ID:       r.Ticker(),
		Name:     r.Name,
		Ticker:   r.Code,
		Exchange: r.Exchange,
		Kind:     kind,
		Ref:      r.Ticker(),
	}
}

// Search searches for assets via the EODHD search API.
func (p *Provider) Search(ctx context.Context, term string) ([]SearchResult, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("%w: missing EODHD API key, set %s", portfolio.ErrValidation, APIKeyEnv)
	}
	var results []SearchResult
	if err := p.Client.GetJSON(ctx, p.url("/api/search/"+url.PathEscape(term), url.Values{}), &results); err != nil {
		return nil, fmt.Errorf("cannot search %q: %w", term, err)
	}
	return results, nil
}
