package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/config"
	"github.com/google/subcommands"
)

type valueCmd struct {
	date string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "print the portfolio value on a day" }
func (*valueCmd) Usage() string {
	return `aut value [-date <date>]

  Prints the total value of the holdings at the market price of the day.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Valuation date (defaults to the last update)")
}

func (c *valueCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return view(func(_ *config.Config, p *portfolio.Portfolio) error {
		on, err := parseDate(c.date, p.LastUpdated())
		if err != nil {
			return err
		}
		v, err := p.ValueAt(on)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %s\n", on, v)
		return nil
	})
}
