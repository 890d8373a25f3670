package portfolio

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/assetutils/portfolio/date"
	"github.com/shopspring/decimal"
)

// AssetKind is the kind of a tradeable asset.
type AssetKind string

const (
	// ETF is an exchange-traded asset, traded in whole units.
	ETF AssetKind = "etf"
	// Fund is a mutual fund, its shares are fractional.
	Fund AssetKind = "fund"
)

// ParseAssetKind parses the kind names, including the legacy "pif" for funds.
func ParseAssetKind(s string) (AssetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "etf":
		return ETF, nil
	case "fund", "pif":
		return Fund, nil
	default:
		return "", fmt.Errorf("%w: unknown asset kind %q", ErrValidation, s)
	}
}

// Fractional reports whether the asset trades in fractional units.
func (k AssetKind) Fractional() bool { return k == Fund }

// AssetDescriptor identifies an asset as the catalog knows it.
type AssetDescriptor struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Ticker   string    `json:"ticker,omitempty"`
	Exchange string    `json:"exchange,omitempty"`
	Kind     AssetKind `json:"type"`
	Ref      string    `json:"ref"` // Ref is the provider specific reference.
}

// Label returns the ticker, or the name for assets without ticker.
func (d AssetDescriptor) Label() string {
	if d.Ticker != "" {
		return d.Ticker
	}
	return d.Name
}

// Observation is a raw price quoted on a day.
type Observation struct {
	Date  date.Date
	Price decimal.Decimal
}

// SortObservations sorts observations in ascending date order, keeping the
// order of observations of the same day.
func SortObservations(obs []Observation) {
	slices.SortStableFunc(obs, func(a, b Observation) int { return a.Date.Compare(b.Date) })
}

// MarketDataProvider provides raw price observations for an asset.
//
// Observations are returned in ascending date order, and may be sparse: days
// without quotes are forward-filled by the Asset.
// Failures wrap ErrNetwork or ErrParse.
type MarketDataProvider interface {
	FetchPriceHistory(ctx context.Context, asset AssetDescriptor, from, to date.Date) ([]Observation, error)
}

// ProviderFunc adapts a function to the MarketDataProvider interface.
type ProviderFunc func(ctx context.Context, asset AssetDescriptor, from, to date.Date) ([]Observation, error)

func (f ProviderFunc) FetchPriceHistory(ctx context.Context, asset AssetDescriptor, from, to date.Date) ([]Observation, error) {
	return f(ctx, asset, from, to)
}

// AssetCatalog resolves asset descriptors.
type AssetCatalog interface {
	// Lookup returns the descriptor with this id, or an error wrapping ErrNotFound.
	Lookup(id string) (AssetDescriptor, error)
	// Search returns all descriptors matching the token.
	Search(token string) []AssetDescriptor
}
