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

type historyCmd struct {
	from string
	to   string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print the daily value of the portfolio" }
func (*historyCmd) Usage() string {
	return `aut history [-from <date>] [-to <date>]

  Prints the value of the portfolio for every day of the range. The range
  defaults to the whole portfolio life.

Usage Examples:
$ aut history -from -1m
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day (defaults to the creation date)")
	f.StringVar(&c.to, "to", "", "Last day (defaults to the last update)")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return view(func(_ *config.Config, p *portfolio.Portfolio) error {
		var r date.Range
		var err error
		if r.From, err = parseDate(c.from, p.Created()); err != nil {
			return err
		}
		if r.To, err = parseDate(c.to, p.LastUpdated()); err != nil {
			return err
		}
		h, err := p.History(r)
		if err != nil {
			return err
		}
		return printMarkdown(renderer.HistoryMarkdown(p.Currency(), h))
	})
}
