package portfolio

import (
	"fmt"

	"github.com/assetutils/portfolio/date"
	"github.com/shopspring/decimal"
)

// Holding is the state of one asset on a given day.
type Holding struct {
	Asset AssetDescriptor
	Count Quantity
	Price decimal.Decimal
}

// Value returns Count * Price.
func (h Holding) Value() decimal.Decimal { return h.Count.value.Mul(h.Price) }

// Snapshot is a detached view of the portfolio holdings at a single day.
//
// Holdings are in the portfolio asset order. It does not refer to the
// portfolio, and can be freely passed around.
type Snapshot struct {
	Date     date.Date
	Currency string
	Holdings []Holding
}

// Value returns the total value of the holdings.
func (s Snapshot) Value() Money {
	total := decimal.Zero
	for _, h := range s.Holdings {
		total = total.Add(h.Value())
	}
	return Money{value: total, cur: s.Currency}
}

// Snapshot returns the holdings on that day.
func (p *Portfolio) Snapshot(on date.Date) (Snapshot, error) {
	if !p.Range().Contains(on) {
		return Snapshot{}, fmt.Errorf("%w: %s is outside of the portfolio range %s", ErrOutOfRange, on, p.Range())
	}
	s := Snapshot{Date: on, Currency: p.currency, Holdings: make([]Holding, 0, len(p.assets))}
	for _, a := range p.assets {
		r, err := a.Record(on)
		if err != nil {
			return Snapshot{}, err
		}
		s.Holdings = append(s.Holdings, Holding{Asset: a.desc, Count: r.Count, Price: r.Price})
	}
	return s, nil
}

// ValueAt returns the sum of count * price over all assets on that day.
func (p *Portfolio) ValueAt(on date.Date) (Money, error) {
	s, err := p.Snapshot(on)
	if err != nil {
		return Money{}, err
	}
	return s.Value(), nil
}

// History returns the portfolio value for every day of r.
func (p *Portfolio) History(r date.Range) (*date.History[Money], error) {
	var h date.History[Money]
	for on := r.From; !on.After(r.To); on = on.Add(1) {
		v, err := p.ValueAt(on)
		if err != nil {
			return nil, err
		}
		h.Append(on, v)
	}
	return &h, nil
}

// Share is the weight of an asset in the portfolio value.
type Share struct {
	Asset    AssetDescriptor
	Value    Money
	Fraction decimal.Decimal // Fraction of the total value, in [0,1].
}

// Percent returns the share as a percentage.
func (s Share) Percent() Percent { return Percent(s.Fraction.InexactFloat64() * 100) }

// DistributionAt returns the share of each asset in the portfolio value on that day.
//
// It fails with ErrValidation when the portfolio is worth nothing.
func (p *Portfolio) DistributionAt(on date.Date) ([]Share, error) {
	s, err := p.Snapshot(on)
	if err != nil {
		return nil, err
	}
	total := s.Value()
	if total.IsZero() {
		return nil, fmt.Errorf("%w: portfolio is worth nothing on %s", ErrValidation, on)
	}
	shares := make([]Share, 0, len(s.Holdings))
	for _, h := range s.Holdings {
		v := h.Value()
		shares = append(shares, Share{
			Asset:    h.Asset,
			Value:    p.money(v),
			Fraction: v.Div(total.value),
		})
	}
	return shares, nil
}
