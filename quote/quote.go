// Package quote reads the latest price of an asset from any JSON endpoint.
//
// The endpoint URL is a template where {ref} and {ticker} are replaced by
// the asset reference and ticker, and the price is extracted with a JSONPath
// expression, for instance:
//
//	URL:       https://www.ls-tc.de/_rpc/json/instrument/chart/dataForInstrument?instrumentId={ref}&series=intraday&type=mini
//	PricePath: $.series.intraday.data[-1:][1]
//
// There is no history: the quote is reported on the last requested day, so
// the provider is meant for portfolios updated every day.
package quote

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/date"
	"github.com/assetutils/portfolio/remote"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Provider is a portfolio.MarketDataProvider returning the latest quote.
type Provider struct {
	URL       string
	PricePath string
	Client    *remote.Client
}

// New returns a provider for this URL template and price path.
func New(urlTemplate, pricePath string, client *remote.Client) *Provider {
	if client == nil {
		client = remote.Default()
	}
	return &Provider{URL: urlTemplate, PricePath: pricePath, Client: client}
}

func (p *Provider) address(asset portfolio.AssetDescriptor) string {
	return strings.NewReplacer(
		"{ref}", url.QueryEscape(asset.Ref),
		"{ticker}", url.QueryEscape(asset.Ticker),
	).Replace(p.URL)
}

// FetchPriceHistory implements portfolio.MarketDataProvider. It returns a
// single observation dated to.
func (p *Provider) FetchPriceHistory(ctx context.Context, asset portfolio.AssetDescriptor, from, to date.Date) ([]portfolio.Observation, error) {
	if p.URL == "" || p.PricePath == "" {
		return nil, fmt.Errorf("%w: quote provider needs an url and a price path", portfolio.ErrValidation)
	}
	var jobj any
	if err := p.Client.GetJSON(ctx, p.address(asset), &jobj); err != nil {
		return nil, fmt.Errorf("cannot fetch %s quote: %w", asset.ID, err)
	}
	price, err := extract(p.PricePath, jobj)
	if err != nil {
		return nil, fmt.Errorf("%s quote: %w", asset.ID, err)
	}
	log.Debug().Str("asset", asset.ID).Stringer("price", price).Stringer("date", to).Msg("quote fetched")
	return []portfolio.Observation{{Date: to, Price: price}}, nil
}

// extract evaluates path on jobj and reads the result as a price. Numbers
// may come as strings with a decimal comma.
func extract(path string, jobj any) (decimal.Decimal, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", portfolio.ErrParse, path, err)
	}
	// jsonpath returns a list for filters and slices, keep the first answer.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return decimal.Zero, fmt.Errorf("%w: %q matches nothing", portfolio.ErrParse, path)
		}
		jval = jlist[0]
	}

	var price decimal.Decimal
	switch v := jval.(type) {
	case float64:
		price = decimal.NewFromFloat(v)
	case string:
		s := strings.ReplaceAll(strings.ReplaceAll(v, ",", "."), " ", "")
		if price, err = decimal.NewFromString(s); err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q is not a number: %q", portfolio.ErrParse, path, v)
		}
	default:
		return decimal.Zero, fmt.Errorf("%w: %q is not a number: %v", portfolio.ErrParse, path, jval)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q is an empty quote: %v", portfolio.ErrParse, path, price)
	}
	return price, nil
}
