package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/config"
	"github.com/assetutils/portfolio/date"
	"github.com/google/subcommands"
)

type updateCmd struct {
	date string
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "fetch the prices up to today" }
func (*updateCmd) Usage() string {
	return `aut update [-date <date>]

  Fetches the asset prices from the last update up to the given date, and
  extends every asset series. Days without a quote take the last known price.

  Either every asset is updated or none is.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Update up to this date (defaults to today)")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	today, err := parseDate(c.date, date.Today())
	if err != nil {
		return failf(subcommands.ExitUsageError, "invalid -date: %v", err)
	}
	return edit(func(_ *config.Config, p *portfolio.Portfolio) error {
		from := p.LastUpdated()
		if err := p.Update(ctx, today); err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
		if !p.LastUpdated().After(from) {
			fmt.Fprintf(stdout, "Already up to date on %s\n", p.LastUpdated())
			return nil
		}
		fmt.Fprintf(stdout, "Updated %d assets from %s to %s\n", len(p.Assets()), from.Add(1), p.LastUpdated())
		return nil
	})
}
