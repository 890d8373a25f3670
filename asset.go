package portfolio

import (
	"context"
	"fmt"
	"iter"

	"github.com/assetutils/portfolio/date"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultLookback is the number of days fetched before an asset's first day,
// so that the first day can be forward-filled from an earlier quote.
const DefaultLookback = 14

// DailyRecord is the state of an asset at a day's close.
type DailyRecord struct {
	Date  date.Date
	Count Quantity        // Count is the quantity held.
	Price decimal.Decimal // Price is the market price of one unit.
}

// Value returns Count * Price.
func (r DailyRecord) Value() decimal.Decimal { return r.Count.value.Mul(r.Price) }

// Asset owns the contiguous daily series of one asset.
//
// The series covers every day in [Created, LastUpdated] without gaps, and no
// count is ever negative. Two assets are the same if their descriptor IDs are
// equal.
type Asset struct {
	desc        AssetDescriptor
	created     date.Date
	lastUpdated date.Date
	lookback    int
	records     []DailyRecord // records[i].Date == created.Add(i)
}

// NewAsset returns an asset with an empty series starting on created.
func NewAsset(desc AssetDescriptor, created date.Date) *Asset {
	return &Asset{
		desc:        desc,
		created:     created,
		lastUpdated: created.Add(-1),
		lookback:    DefaultLookback,
	}
}

func (a *Asset) Descriptor() AssetDescriptor { return a.desc }
func (a *Asset) ID() string                  { return a.desc.ID }
func (a *Asset) Created() date.Date          { return a.created }
func (a *Asset) LastUpdated() date.Date      { return a.lastUpdated }

// Same reports whether a and b are handles on the same asset.
func (a *Asset) Same(b *Asset) bool { return b != nil && a.desc.ID == b.desc.ID }

// Range returns the range covered by the series.
func (a *Asset) Range() date.Range { return date.Range{From: a.created, To: a.lastUpdated} }

// index returns the position of the record for 'on'.
func (a *Asset) index(on date.Date) (int, error) {
	if on.Before(a.created) || on.After(a.lastUpdated) {
		return -1, fmt.Errorf("%w: %s has no record on %s, series covers %s..%s", ErrOutOfRange, a.desc.ID, on, a.created, a.lastUpdated)
	}
	return on.Sub(a.created), nil
}

// Record returns the daily record on that day.
func (a *Asset) Record(on date.Date) (DailyRecord, error) {
	i, err := a.index(on)
	if err != nil {
		return DailyRecord{}, err
	}
	return a.records[i], nil
}

// CountAt returns the quantity held on that day.
func (a *Asset) CountAt(on date.Date) (Quantity, error) {
	r, err := a.Record(on)
	return r.Count, err
}

// PriceAt returns the price on that day.
func (a *Asset) PriceAt(on date.Date) (decimal.Decimal, error) {
	r, err := a.Record(on)
	return r.Price, err
}

// Records returns an iterator over the series in chronological order.
func (a *Asset) Records() iter.Seq[DailyRecord] {
	return func(yield func(DailyRecord) bool) {
		for _, r := range a.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Update extends the series up to today with prices from the provider.
//
// It is a no-op if the series is already up to date. On error the asset is
// left unchanged.
func (a *Asset) Update(ctx context.Context, provider MarketDataProvider, today date.Date) error {
	x, err := a.extend(ctx, provider, today)
	if err != nil {
		return err
	}
	a.commit(x)
	return nil
}

// extension holds the days computed for an asset, not yet part of its series.
type extension struct {
	asset   *Asset
	to      date.Date
	records []DailyRecord
}

// extend computes the records for (lastUpdated, today] without modifying the asset.
// It returns nil if there is nothing to do.
func (a *Asset) extend(ctx context.Context, provider MarketDataProvider, today date.Date) (*extension, error) {
	if !today.After(a.lastUpdated) {
		return nil, nil
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: no market data provider to update %s", ErrValidation, a.desc.ID)
	}
	from := a.lastUpdated.Add(1)
	fetchFrom := from
	if len(a.records) == 0 {
		fetchFrom = from.Add(-a.lookback)
	}

	observations, err := provider.FetchPriceHistory(ctx, a.desc, fetchFrom, today)
	if err != nil {
		return nil, fmt.Errorf("cannot update %s to %s: %w", a.desc.ID, today, err)
	}

	var quotes date.History[decimal.Decimal]
	for _, o := range observations {
		if o.Date.Before(fetchFrom) || o.Date.After(today) {
			continue
		}
		if !o.Price.IsPositive() {
			log.Warn().Str("asset", a.desc.ID).Stringer("date", o.Date).Stringer("price", o.Price).Msg("ignoring non positive price")
			continue
		}
		quotes.Append(o.Date, o.Price)
	}

	var prev DailyRecord
	hasPrev := len(a.records) > 0
	if hasPrev {
		prev = a.records[len(a.records)-1]
	}

	records := make([]DailyRecord, 0, today.Sub(from)+1)
	for on := from; !on.After(today); on = on.Add(1) {
		price, ok := quotes.ValueAsOf(on)
		if !ok {
			if !hasPrev {
				return nil, fmt.Errorf("%w: %s on %s", ErrNoPriceData, a.desc.ID, on)
			}
			price = prev.Price
		}
		prev = DailyRecord{Date: on, Count: prev.Count, Price: price}
		hasPrev = true
		records = append(records, prev)
	}
	log.Debug().Str("asset", a.desc.ID).Stringer("from", from).Stringer("to", today).Int("quotes", quotes.Len()).Msg("series extended")
	return &extension{asset: a, to: today, records: records}, nil
}

// commit appends a computed extension to the series.
func (a *Asset) commit(x *extension) {
	if x == nil {
		return
	}
	a.records = append(a.records, x.records...)
	a.lastUpdated = x.to
}

// ApplyPosition adds signedCount to the count of every day on or after 'on'.
//
// If any resulting count would be negative the series is left unchanged and
// the error wraps ErrNegativeHolding.
func (a *Asset) ApplyPosition(on date.Date, signedCount Quantity) error {
	start := a.firstAffected(on)
	for i := start; i < len(a.records); i++ {
		r := a.records[i]
		if r.Count.Add(signedCount).IsNegative() {
			return fmt.Errorf("%w: %s holds %s on %s, cannot move by %s", ErrNegativeHolding, a.desc.ID, r.Count, r.Date, signedCount)
		}
	}
	for i := start; i < len(a.records); i++ {
		a.records[i].Count = a.records[i].Count.Add(signedCount)
	}
	return nil
}

// RevertPosition undoes a previous ApplyPosition with the same arguments.
func (a *Asset) RevertPosition(on date.Date, signedCount Quantity) {
	for i := a.firstAffected(on); i < len(a.records); i++ {
		a.records[i].Count = a.records[i].Count.Sub(signedCount)
	}
}

func (a *Asset) firstAffected(on date.Date) int {
	return max(0, on.Sub(a.created))
}
