package cmd

import (
	"context"
	"flag"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/config"
	"github.com/assetutils/portfolio/renderer"
	"github.com/google/subcommands"
)

type distributionCmd struct {
	date string
}

func (*distributionCmd) Name() string     { return "distribution" }
func (*distributionCmd) Synopsis() string { return "print the share of each asset in the value" }
func (*distributionCmd) Usage() string {
	return `aut distribution [-date <date>]

  Prints the value of every asset and its share of the portfolio value.
`
}

func (c *distributionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Day of the distribution (defaults to the last update)")
}

func (c *distributionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return view(func(_ *config.Config, p *portfolio.Portfolio) error {
		on, err := parseDate(c.date, p.LastUpdated())
		if err != nil {
			return err
		}
		shares, err := p.DistributionAt(on)
		if err != nil {
			return err
		}
		return printMarkdown(renderer.DistributionMarkdown(on, shares))
	})
}
