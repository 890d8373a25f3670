package portfolio

import (
	"fmt"

	"github.com/assetutils/portfolio/date"
	"github.com/shopspring/decimal"
)

// EventKind is the discriminant of the portfolio events.
type EventKind string

const (
	KindPosition EventKind = "position"
	KindFee      EventKind = "fee"
)

// Event is an entry of the portfolio event log: either a *Position or a *Fee.
//
// The set of events is closed, switch on the concrete type to handle them.
type Event interface {
	Kind() EventKind
	When() date.Date
	EventID() string
	isEvent()
}

// PositionType is derived from the sign of a position count.
type PositionType int

const (
	Open PositionType = iota
	Close
)

func (t PositionType) String() string {
	if t == Close {
		return "sell"
	}
	return "buy"
}

// Position is a buy (positive Count) or a sell (negative Count) of an asset.
//
// The Asset is shared with the portfolio that recorded the position; a
// position is only meaningful while that asset belongs to the portfolio.
type Position struct {
	ID    string
	Asset *Asset
	Date  date.Date
	Price decimal.Decimal // Price per unit.
	Count Quantity        // Count is signed, negative for a sell.
	Fee   decimal.Decimal
}

func (p *Position) Kind() EventKind { return KindPosition }
func (p *Position) When() date.Date { return p.Date }
func (p *Position) EventID() string { return p.ID }
func (*Position) isEvent()          {}

// Type returns Open for buys and Close for sells.
func (p *Position) Type() PositionType {
	if p.Count.IsNegative() {
		return Close
	}
	return Open
}

// Amount returns |Count| * Price.
func (p *Position) Amount() decimal.Decimal { return p.Count.value.Abs().Mul(p.Price) }

func (p *Position) String() string {
	return fmt.Sprintf("%s %s %s %s @ %s fee %s", p.Date, p.Type(), p.Count.Abs(), p.Asset.ID(), p.Price, p.Fee)
}

// Fee is a cash expense with no effect on holdings.
type Fee struct {
	ID     string
	Date   date.Date
	Amount decimal.Decimal
	Memo   string
}

func (f *Fee) Kind() EventKind { return KindFee }
func (f *Fee) When() date.Date { return f.Date }
func (f *Fee) EventID() string { return f.ID }
func (*Fee) isEvent()          {}

func (f *Fee) String() string {
	if f.Memo == "" {
		return fmt.Sprintf("%s fee %s", f.Date, f.Amount)
	}
	return fmt.Sprintf("%s fee %s (%s)", f.Date, f.Amount, f.Memo)
}
