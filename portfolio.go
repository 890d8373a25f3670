package portfolio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/assetutils/portfolio/date"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultCurrency is the reporting currency of a portfolio created without WithCurrency.
const DefaultCurrency = "RUB"

// updateConcurrency bounds the number of assets fetched at the same time.
const updateConcurrency = 4

// Portfolio owns a set of assets and the chronological log of events applied to them.
//
// Every event date lies in [Created, LastUpdated], and every position refers
// to an asset of the portfolio. A Portfolio is not safe for concurrent use:
// callers sharing one must serialize all calls with a single lock, since
// asset series and the event log are mutated together.
type Portfolio struct {
	created     date.Date
	lastUpdated date.Date
	currency    string
	lookback    int
	provider    MarketDataProvider
	assets      []*Asset // in insertion order
	events      []Event  // chronological, ties in insertion order
}

// Option configures a Portfolio.
type Option func(*Portfolio)

// WithProvider sets the market data provider used to update asset series.
func WithProvider(provider MarketDataProvider) Option {
	return func(p *Portfolio) { p.provider = provider }
}

// WithCurrency sets the reporting currency.
func WithCurrency(currency string) Option {
	return func(p *Portfolio) { p.currency = currency }
}

// WithLookback sets how many days before its first day an asset looks for a price.
func WithLookback(days int) Option {
	return func(p *Portfolio) { p.lookback = days }
}

// New returns an empty portfolio created on 'created'. It has no valuation
// until it has been updated at least once.
func New(created date.Date, opts ...Option) *Portfolio {
	p := &Portfolio{
		created:     created,
		lastUpdated: created.Add(-1),
		currency:    DefaultCurrency,
		lookback:    DefaultLookback,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Portfolio) Created() date.Date     { return p.created }
func (p *Portfolio) LastUpdated() date.Date { return p.lastUpdated }
func (p *Portfolio) Currency() string       { return p.currency }

// SetProvider replaces the market data provider.
func (p *Portfolio) SetProvider(provider MarketDataProvider) { p.provider = provider }

// Range returns [Created, LastUpdated].
func (p *Portfolio) Range() date.Range { return date.Range{From: p.created, To: p.lastUpdated} }

// Assets returns the assets in the order they were added.
func (p *Portfolio) Assets() []*Asset { return slices.Clone(p.assets) }

// Asset returns the asset with this id.
func (p *Portfolio) Asset(id string) (*Asset, error) {
	i := p.assetIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: asset %q is not in the portfolio", ErrNotFound, id)
	}
	return p.assets[i], nil
}

func (p *Portfolio) assetIndex(id string) int {
	return slices.IndexFunc(p.assets, func(a *Asset) bool { return a.ID() == id })
}

// Events returns the event log in chronological order.
func (p *Portfolio) Events() []Event { return slices.Clone(p.events) }

// money returns d in the portfolio currency.
func (p *Portfolio) money(d decimal.Decimal) Money { return Money{value: d, cur: p.currency} }

// checkDate validates that an event can happen on that day.
func (p *Portfolio) checkDate(on date.Date) error {
	if on.Before(p.created) || on.After(p.lastUpdated) {
		return fmt.Errorf("%w: %s is outside of the portfolio range %s..%s", ErrValidation, on, p.created, p.lastUpdated)
	}
	return nil
}

// AddAsset adds an asset whose series starts on the portfolio creation date.
//
// If the portfolio has already been updated, the asset series is first
// brought up to date; if that fails the asset is not added.
func (p *Portfolio) AddAsset(ctx context.Context, desc AssetDescriptor) (*Asset, error) {
	if desc.ID == "" {
		return nil, fmt.Errorf("%w: asset id is missing", ErrValidation)
	}
	if p.assetIndex(desc.ID) >= 0 {
		return nil, fmt.Errorf("%w: asset %q is already in the portfolio", ErrValidation, desc.ID)
	}
	a := NewAsset(desc, p.created)
	a.lookback = p.lookback
	x, err := a.extend(ctx, p.provider, p.lastUpdated)
	if err != nil {
		return nil, err
	}
	a.commit(x)
	p.assets = append(p.assets, a)
	log.Debug().Str("asset", desc.ID).Msg("asset added")
	return a, nil
}

// RemoveAsset removes an asset and all of its positions.
func (p *Portfolio) RemoveAsset(id string) error {
	i := p.assetIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: asset %q is not in the portfolio", ErrNotFound, id)
	}
	a := p.assets[i]
	// the asset series goes away with its positions, nothing to revert.
	p.events = slices.DeleteFunc(p.events, func(e Event) bool {
		pos, ok := e.(*Position)
		return ok && pos.Asset.Same(a)
	})
	p.assets = slices.Delete(p.assets, i, i+1)
	log.Debug().Str("asset", id).Msg("asset removed")
	return nil
}

// Buy records the purchase of count units of an asset.
func (p *Portfolio) Buy(assetID string, on date.Date, price decimal.Decimal, count Quantity, fee decimal.Decimal) (*Position, error) {
	if !count.IsPositive() {
		return nil, fmt.Errorf("%w: buy count must be positive, got %s", ErrValidation, count)
	}
	return p.addPosition(uuid.NewString(), assetID, on, price, count, fee)
}

// Sell records the sale of count units of an asset.
func (p *Portfolio) Sell(assetID string, on date.Date, price decimal.Decimal, count Quantity, fee decimal.Decimal) (*Position, error) {
	if !count.IsPositive() {
		return nil, fmt.Errorf("%w: sell count must be positive, got %s", ErrValidation, count)
	}
	return p.addPosition(uuid.NewString(), assetID, on, price, count.Neg(), fee)
}

// addPosition applies a position to its asset then records it. Either both
// happen or none.
func (p *Portfolio) addPosition(id, assetID string, on date.Date, price decimal.Decimal, signedCount Quantity, fee decimal.Decimal) (*Position, error) {
	a, err := p.Asset(assetID)
	if err != nil {
		return nil, err
	}
	if err := p.checkDate(on); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative, got %s", ErrValidation, price)
	}
	if fee.IsNegative() {
		return nil, fmt.Errorf("%w: fee must not be negative, got %s", ErrValidation, fee)
	}
	if err := a.ApplyPosition(on, signedCount); err != nil {
		return nil, err
	}
	pos := &Position{
		ID:    id,
		Asset: a,
		Date:  on,
		Price: price,
		Count: signedCount,
		Fee:   fee,
	}
	p.insert(pos)
	log.Debug().Stringer("position", pos).Msg("position recorded")
	return pos, nil
}

// AddFee records a cash fee.
func (p *Portfolio) AddFee(on date.Date, amount decimal.Decimal, memo string) (*Fee, error) {
	return p.addFee(uuid.NewString(), on, amount, memo)
}

func (p *Portfolio) addFee(id string, on date.Date, amount decimal.Decimal, memo string) (*Fee, error) {
	if err := p.checkDate(on); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: fee must not be negative, got %s", ErrValidation, amount)
	}
	fee := &Fee{ID: id, Date: on, Amount: amount, Memo: memo}
	p.insert(fee)
	return fee, nil
}

// insert places e after every event on the same day or before.
func (p *Portfolio) insert(e Event) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].When().After(e.When()) })
	p.events = slices.Insert(p.events, i, e)
}

// RemoveEvent removes the i-th event of the log. A position is reverted on
// its asset first; when a later sell depends on it the removal fails with
// ErrNegativeHolding and nothing changes.
func (p *Portfolio) RemoveEvent(i int) error {
	if i < 0 || i >= len(p.events) {
		return fmt.Errorf("%w: no event at index %d", ErrNotFound, i)
	}
	switch e := p.events[i].(type) {
	case *Position:
		if err := e.Asset.ApplyPosition(e.Date, e.Count.Neg()); err != nil {
			return fmt.Errorf("cannot remove %s: %w", e, err)
		}
	case *Fee:
		// cash only.
	default:
		panic(fmt.Sprintf("unknown event type %T", e))
	}
	p.events = slices.Delete(p.events, i, i+1)
	return nil
}

// Update extends every asset series up to today.
//
// It is a no-op if the portfolio is already up to date. Assets are fetched
// concurrently; if any of them fails, no asset is modified and the errors are
// returned joined.
func (p *Portfolio) Update(ctx context.Context, today date.Date) error {
	if !today.After(p.lastUpdated) {
		return nil
	}

	extensions := make([]*extension, len(p.assets))
	errs := make([]error, len(p.assets))
	var g errgroup.Group
	g.SetLimit(updateConcurrency)
	for i, a := range p.assets {
		g.Go(func() error {
			extensions[i], errs[i] = a.extend(ctx, p.provider, today)
			return nil
		})
	}
	g.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}

	for i, a := range p.assets {
		a.commit(extensions[i])
	}
	log.Debug().Stringer("from", p.lastUpdated.Add(1)).Stringer("to", today).Int("assets", len(p.assets)).Msg("portfolio updated")
	p.lastUpdated = today
	return nil
}
