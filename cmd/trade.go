package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/config"
	"github.com/assetutils/portfolio/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// trade holds the flags shared by buy and sell.
type trade struct {
	asset string
	date  string
	price string
	count string
	fee   string
}

func (t *trade) SetFlags(f *flag.FlagSet) {
	f.StringVar(&t.asset, "asset", "", "Asset id (required)")
	f.StringVar(&t.date, "date", "", "Trade date (defaults to the last update)")
	f.StringVar(&t.price, "price", "", "Unit price (required)")
	f.StringVar(&t.count, "count", "", "Number of units (required)")
	f.StringVar(&t.fee, "fee", "0", "Fee paid for the trade")
}

// parse returns the trade date, price, count and fee.
func (t *trade) parse(p *portfolio.Portfolio) (on date.Date, price decimal.Decimal, count portfolio.Quantity, fee decimal.Decimal, err error) {
	if t.asset == "" || t.price == "" || t.count == "" {
		err = fmt.Errorf("-asset, -price and -count are required")
		return
	}
	if on, err = parseDate(t.date, p.LastUpdated()); err != nil {
		return
	}
	if price, err = parseDecimal("price", t.price); err != nil {
		return
	}
	var c decimal.Decimal
	if c, err = parseDecimal("count", t.count); err != nil {
		return
	}
	count = portfolio.Q(c)
	fee, err = parseDecimal("fee", t.fee)
	return
}

// record applies a buy or a sell to the portfolio.
func (t *trade) record(add func(p *portfolio.Portfolio, assetID string, on date.Date, price decimal.Decimal, count portfolio.Quantity, fee decimal.Decimal) (*portfolio.Position, error)) subcommands.ExitStatus {
	return edit(func(_ *config.Config, p *portfolio.Portfolio) error {
		on, price, count, fee, err := t.parse(p)
		if err != nil {
			return err
		}
		pos, err := add(p, t.asset, on, price, count, fee)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, pos)
		return nil
	})
}

type buyCmd struct{ trade }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record the purchase of an asset" }
func (*buyCmd) Usage() string {
	return `aut buy -asset <id> -price <price> -count <count> [-date <date>] [-fee <fee>]

  Records a purchase. The count held increases from that day on.

Usage Examples:
$ aut buy -asset etf-fxus -date 2020-01-02 -price 3050.5 -count 10 -fee 15
`
}

func (c *buyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.record((*portfolio.Portfolio).Buy)
}

type sellCmd struct{ trade }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record the sale of an asset" }
func (*sellCmd) Usage() string {
	return `aut sell -asset <id> -price <price> -count <count> [-date <date>] [-fee <fee>]

  Records a sale. The count held decreases from that day on, and cannot
  become negative on any day.

Usage Examples:
$ aut sell -asset etf-fxus -date 2020-03-02 -price 3200 -count 4
`
}

func (c *sellCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.record((*portfolio.Portfolio).Sell)
}

type feeCmd struct {
	date   string
	amount string
	memo   string
}

func (*feeCmd) Name() string     { return "fee" }
func (*feeCmd) Synopsis() string { return "record a fee that is not tied to a trade" }
func (*feeCmd) Usage() string {
	return `aut fee -amount <amount> [-date <date>] [-memo <text>]

  Records a fee, like custody or account fees. Fees reduce the result.

Usage Examples:
$ aut fee -date 2020-03-31 -amount 99 -memo "custody"
`
}

func (c *feeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Fee date (defaults to the last update)")
	f.StringVar(&c.amount, "amount", "", "Fee amount (required)")
	f.StringVar(&c.memo, "memo", "", "Free text description")
}

func (c *feeCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.amount == "" {
		return failf(subcommands.ExitUsageError, "-amount is required")
	}
	return edit(func(_ *config.Config, p *portfolio.Portfolio) error {
		on, err := parseDate(c.date, p.LastUpdated())
		if err != nil {
			return err
		}
		amount, err := parseDecimal("amount", c.amount)
		if err != nil {
			return err
		}
		fee, err := p.AddFee(on, amount, c.memo)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, fee)
		return nil
	})
}
