package cmd

import (
	"context"
	"flag"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/config"
	"github.com/assetutils/portfolio/date"
	"github.com/assetutils/portfolio/renderer"
	"github.com/google/subcommands"
)

type reportCmd struct {
	period string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print the periodic statistics" }
func (*reportCmd) Usage() string {
	return `aut report [-p <period>]

  Prints one row per calendar period since the creation: the asset values,
  the trades and the return of the period.

  Periods are daily, weekly, monthly, quarterly and yearly.

Usage Examples:
$ aut report -p quarterly
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "monthly", "Period: daily, weekly, monthly, quarterly or yearly")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, err := date.ParsePeriod(c.period)
	if err != nil {
		return failf(subcommands.ExitUsageError, "%v", err)
	}
	return view(func(_ *config.Config, p *portfolio.Portfolio) error {
		r, err := p.PeriodicStats(period)
		if err != nil {
			return err
		}
		return printMarkdown(renderer.PeriodicMarkdown(r))
	})
}
