// Package investfunds retrieves prices and the asset list from the
// investfunds web pages.
//
// ETF quotes come from the statistics page of each fund, a table paged
// newest first:
//
//	<etf_url>/<ref>/stats?dateStart=01.01.2020&dateEnd=10.01.2020&p=0
//
// Mutual funds use the same paging under <fund_url>/<ref>/stats, with the
// columns of the fund export: date, price per share, net asset value.
package investfunds

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/date"
	"github.com/assetutils/portfolio/remote"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

const (
	DefaultETFURL  = "http://world.investfunds.ru/etf"
	DefaultFundURL = "http://pif.investfunds.ru/funds"

	tableID    = "funds_table"
	dateLayout = "02.01.2006"
	// maxPages stops a server that ignores the page parameter.
	maxPages = 500
)

// columns locates the date and the price in a stats row.
type columns struct {
	date, price int
}

var (
	etfColumns  = columns{date: 0, price: 4}
	fundColumns = columns{date: 0, price: 1}
)

// Config holds the base URLs of the pages.
type Config struct {
	ETFURL  string `toml:"etf_url"`
	FundURL string `toml:"fund_url"`
}

// Provider is a portfolio.MarketDataProvider backed by the investfunds pages.
type Provider struct {
	Config
	Client *remote.Client
}

// New returns a provider, empty URLs are replaced by their default.
func New(cfg Config, client *remote.Client) *Provider {
	if cfg.ETFURL == "" {
		cfg.ETFURL = DefaultETFURL
	}
	if cfg.FundURL == "" {
		cfg.FundURL = DefaultFundURL
	}
	if client == nil {
		client = remote.Default()
	}
	return &Provider{Config: cfg, Client: client}
}

func (p *Provider) base(kind portfolio.AssetKind) (string, columns, error) {
	switch kind {
	case portfolio.ETF:
		return strings.TrimSuffix(p.ETFURL, "/"), etfColumns, nil
	case portfolio.Fund:
		return strings.TrimSuffix(p.FundURL, "/"), fundColumns, nil
	default:
		return "", columns{}, fmt.Errorf("%w: unsupported asset kind %q", portfolio.ErrValidation, kind)
	}
}

// page fetches and parses addr, and returns the data rows of the funds table.
// A page without the table has no rows.
func (p *Provider) page(ctx context.Context, addr string) ([][]*html.Node, error) {
	body, err := p.Client.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse html: %v", portfolio.ErrParse, err)
	}
	table := findTable(doc, tableID)
	if table == nil {
		return nil, nil
	}
	return dataRows(table), nil
}

// FetchPriceHistory implements portfolio.MarketDataProvider.
func (p *Provider) FetchPriceHistory(ctx context.Context, asset portfolio.AssetDescriptor, from, to date.Date) ([]portfolio.Observation, error) {
	base, cols, err := p.base(asset.Kind)
	if err != nil {
		return nil, err
	}
	if asset.Ref == "" {
		return nil, fmt.Errorf("%w: asset %s has no investfunds reference", portfolio.ErrValidation, asset.ID)
	}

	var observations []portfolio.Observation
	var previous string
	for n := 0; n < maxPages; n++ {
		q := url.Values{}
		q.Set("dateStart", from.Format(dateLayout))
		q.Set("dateEnd", to.Format(dateLayout))
		q.Set("p", strconv.Itoa(n))
		addr := fmt.Sprintf("%s/%s/stats?%s", base, url.PathEscape(asset.Ref), q.Encode())

		rows, err := p.page(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("cannot fetch %s page %d: %w", asset.ID, n, err)
		}
		if len(rows) == 0 {
			break
		}
		if first := text(rows[0][0]); first == previous {
			break // same page again.
		} else {
			previous = first
		}

		for _, cells := range rows {
			o, ok, err := parseStatsRow(cols, cells)
			if err != nil {
				return nil, fmt.Errorf("%s page %d: %w", asset.ID, n, err)
			}
			if ok {
				observations = append(observations, o)
			}
		}
	}

	portfolio.SortObservations(observations)
	log.Debug().Str("asset", asset.ID).Int("observations", len(observations)).Msg("investfunds history fetched")
	return observations, nil
}

// parseStatsRow reads a stats table row. Rows without a price are skipped.
func parseStatsRow(cols columns, cells []*html.Node) (portfolio.Observation, bool, error) {
	if len(cells) <= max(cols.date, cols.price) {
		return portfolio.Observation{}, false, fmt.Errorf("%w: stats row has %d columns", portfolio.ErrParse, len(cells))
	}
	t, err := time.Parse(dateLayout, text(cells[cols.date]))
	if err != nil {
		return portfolio.Observation{}, false, fmt.Errorf("%w: invalid date: %v", portfolio.ErrParse, err)
	}
	price, ok, err := ParsePrice(text(cells[cols.price]))
	if err != nil || !ok {
		return portfolio.Observation{}, false, err
	}
	return portfolio.Observation{Date: date.New(t.Date()), Price: price}, true, nil
}

// ParsePrice reads a price like "1 234,5 RUB". The trailing currency is
// dropped. A cell without digits, like "- RUB", has no price.
func ParsePrice(s string) (decimal.Decimal, bool, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return decimal.Zero, false, nil
	}
	number := strings.Join(fields[:len(fields)-1], "")
	number = strings.ReplaceAll(number, ",", ".")
	if !strings.ContainsAny(number, "0123456789") {
		return decimal.Zero, false, nil
	}
	price, err := decimal.NewFromString(number)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: invalid price %q", portfolio.ErrParse, s)
	}
	return price, true, nil
}

// listing describes the asset list pages of a kind.
type listing struct {
	kind  portfolio.AssetKind
	query func(page int) string
}

// FetchCatalog walks the listing pages and returns every asset found.
func (p *Provider) FetchCatalog(ctx context.Context) ([]portfolio.AssetDescriptor, error) {
	listings := []listing{
		{portfolio.ETF, func(n int) string { return "/?p=" + strconv.Itoa(n) }},
		{portfolio.Fund, func(n int) string { return "/?exclude_qualified=1&npage=" + strconv.Itoa(n) }},
	}
	var res []portfolio.AssetDescriptor
	for _, l := range listings {
		base, _, _ := p.base(l.kind)
		seen := make(map[string]bool)
		for n := 0; n < maxPages; n++ {
			rows, err := p.page(ctx, base+l.query(n))
			if err != nil {
				return nil, fmt.Errorf("cannot fetch %s listing page %d: %w", l.kind, n, err)
			}
			added := 0
			for _, cells := range rows {
				d, ok := parseListingRow(l.kind, cells)
				if !ok || seen[d.ID] {
					continue
				}
				seen[d.ID] = true
				res = append(res, d)
				added++
			}
			if added == 0 {
				break
			}
		}
		log.Debug().Str("kind", string(l.kind)).Int("assets", len(seen)).Msg("investfunds listing fetched")
	}
	return res, nil
}

// parseListingRow reads an asset from a listing row.
//
// ETF rows hold the name, exchange and ticker; fund rows only the name. The
// reference is the last path element of the name link.
func parseListingRow(kind portfolio.AssetKind, cells []*html.Node) (portfolio.AssetDescriptor, bool) {
	a := link(cells[0])
	if a == nil {
		return portfolio.AssetDescriptor{}, false
	}
	ref := lastPathElement(attr(a, "href"))
	if ref == "" {
		return portfolio.AssetDescriptor{}, false
	}
	d := portfolio.AssetDescriptor{
		ID:   fmt.Sprintf("%s-%s", kind, ref),
		Name: text(cells[0]),
		Kind: kind,
		Ref:  ref,
	}
	if kind == portfolio.ETF && len(cells) > 2 {
		d.Exchange = text(cells[1])
		d.Ticker = text(cells[2])
	}
	return d, true
}

func lastPathElement(href string) string {
	if u, err := url.Parse(href); err == nil {
		href = u.Path
	}
	parts := strings.Split(strings.TrimSuffix(href, "/"), "/")
	return parts[len(parts)-1]
}
