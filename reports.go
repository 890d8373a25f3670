package portfolio

import (
	"fmt"

	"github.com/assetutils/portfolio/date"
	"github.com/shopspring/decimal"
)

// Stats summarizes the cash flows and the result of the portfolio since its creation.
type Stats struct {
	Date   date.Date
	Value  Money
	Opens  Money // Opens is the capital spent in buys.
	Closes Money // Closes is the capital received from sells.
	Fees   Money // Fees include position fees and fee events.
	Result Money // Result is Value + Closes - Fees - Opens.
	// ResultPercent is Result relative to Opens, undefined if nothing was ever bought.
	ResultPercent PercentChange
}

// flows holds the cash flows of a range of events.
type flows struct {
	opens, closes, fees decimal.Decimal
}

// flowsIn partitions the events within r.
func (p *Portfolio) flowsIn(r date.Range) flows {
	var f flows
	for _, e := range p.events {
		if !r.Contains(e.When()) {
			continue
		}
		switch e := e.(type) {
		case *Position:
			switch e.Type() {
			case Open:
				f.opens = f.opens.Add(e.Amount())
			case Close:
				f.closes = f.closes.Add(e.Amount())
			}
			f.fees = f.fees.Add(e.Fee)
		case *Fee:
			f.fees = f.fees.Add(e.Amount)
		default:
			panic(fmt.Sprintf("unknown event type %T", e))
		}
	}
	return f
}

// requireUpdated fails if the portfolio has no day to report on.
func (p *Portfolio) requireUpdated() error {
	if p.lastUpdated.Before(p.created) {
		return fmt.Errorf("%w: portfolio created on %s has never been updated", ErrValidation, p.created)
	}
	return nil
}

// AlltimeStats computes the statistics over the whole life of the portfolio,
// valued on LastUpdated.
func (p *Portfolio) AlltimeStats() (Stats, error) {
	if err := p.requireUpdated(); err != nil {
		return Stats{}, err
	}
	value, err := p.ValueAt(p.lastUpdated)
	if err != nil {
		return Stats{}, err
	}
	f := p.flowsIn(p.Range())
	result := value.value.Add(f.closes).Sub(f.fees).Sub(f.opens)
	return Stats{
		Date:          p.lastUpdated,
		Value:         value,
		Opens:         p.money(f.opens),
		Closes:        p.money(f.closes),
		Fees:          p.money(f.fees),
		Result:        p.money(result),
		ResultPercent: ratio(result, f.opens),
	}, nil
}

// PeriodicReport is the performance of the portfolio split in calendar windows.
type PeriodicReport struct {
	Period   date.Period
	Currency string
	Assets   []AssetDescriptor // Assets gives the column order of every row.
	Rows     []PeriodRow       // Rows are the most recent first.
}

// PeriodRow is the performance of the portfolio over one window.
type PeriodRow struct {
	Range  date.Range
	Assets []AssetCell
	Value  Money // Value on the last day of the window.
	Opens  Money
	Closes Money
	// Return is the change of value over the window, adjusted by the cash
	// flows within it. Undefined when the previous value is zero.
	Return PercentChange
}

// AssetCell is the value of an asset at the end of a window.
type AssetCell struct {
	Value  Money
	Change PercentChange // Change against the end of the previous window.
}

// PeriodicStats splits the portfolio life in calendar windows of the given
// period, and computes the performance of each.
//
// Windows walk back from LastUpdated, each one starting on its period start
// (Monday, 1st of the month, 1st of the quarter or January 1st). The oldest
// window is clipped to the portfolio creation.
func (p *Portfolio) PeriodicStats(period date.Period) (*PeriodicReport, error) {
	if err := p.requireUpdated(); err != nil {
		return nil, err
	}
	report := &PeriodicReport{Period: period, Currency: p.currency}
	for _, a := range p.assets {
		report.Assets = append(report.Assets, a.desc)
	}

	for end := p.lastUpdated; !end.Before(p.created); {
		r := date.Range{From: end.StartOf(period), To: end}.Clip(p.created, end)
		row, err := p.periodRow(r)
		if err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, row)
		end = r.From.Add(-1)
	}
	return report, nil
}

// periodRow computes the row of a single window.
func (p *Portfolio) periodRow(r date.Range) (PeriodRow, error) {
	prev := r.From.Add(-1)
	hasPrev := !prev.Before(p.created)

	row := PeriodRow{Range: r, Assets: make([]AssetCell, 0, len(p.assets))}
	value, prevValue := decimal.Zero, decimal.Zero
	for _, a := range p.assets {
		cur, err := a.Record(r.To)
		if err != nil {
			return PeriodRow{}, err
		}
		v, pv := cur.Value(), decimal.Zero
		if hasPrev {
			before, err := a.Record(prev)
			if err != nil {
				return PeriodRow{}, err
			}
			pv = before.Value()
		}
		row.Assets = append(row.Assets, AssetCell{Value: p.money(v), Change: ratio(v.Sub(pv), pv)})
		value, prevValue = value.Add(v), prevValue.Add(pv)
	}

	f := p.flowsIn(r)
	row.Value = p.money(value)
	row.Opens = p.money(f.opens)
	row.Closes = p.money(f.closes)
	row.Return = ratio(value.Add(f.closes).Sub(f.opens).Sub(prevValue), prevValue)
	return row, nil
}
