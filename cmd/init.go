package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/date"
	"github.com/google/subcommands"
)

type initCmd struct {
	date     string
	currency string
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create an empty portfolio" }
func (*initCmd) Usage() string {
	return `aut init [-date <date>] [-currency <code>]

  Creates an empty portfolio file. The creation date is the first day of
  every asset series, it defaults to today.

Usage Examples:
$ aut init -currency RUB -date 2020-01-01
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Creation date (defaults to today)")
	f.StringVar(&c.currency, "currency", "", "Portfolio currency, 3-letter code (defaults to the configuration)")
}

func (c *initCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	created, err := parseDate(c.date, date.Today())
	if err != nil {
		return failf(subcommands.ExitUsageError, "invalid -date: %v", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	if _, err := os.Stat(cfg.Portfolio.File); err == nil {
		return failf(subcommands.ExitFailure, "portfolio file %q already exists", cfg.Portfolio.File)
	}
	currency := c.currency
	if currency == "" {
		currency = cfg.Portfolio.Currency
	}

	p := portfolio.New(created,
		portfolio.WithCurrency(currency),
		portfolio.WithLookback(cfg.Portfolio.LookbackDays),
	)
	if err := encodePortfolio(cfg, p); err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	fmt.Fprintf(stdout, "Created portfolio %q in %s on %s\n", cfg.Portfolio.File, p.Currency(), p.Created())
	return subcommands.ExitSuccess
}
