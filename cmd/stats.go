package cmd

import (
	"context"
	"flag"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/config"
	"github.com/assetutils/portfolio/renderer"
	"github.com/google/subcommands"
)

type statsCmd struct{}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "print the all time statistics" }
func (*statsCmd) Usage() string {
	return `aut stats

  Prints the value on the last update, the total bought, sold and paid in
  fees, and the resulting gain.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {}

func (c *statsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return view(func(_ *config.Config, p *portfolio.Portfolio) error {
		s, err := p.AlltimeStats()
		if err != nil {
			return err
		}
		return printMarkdown(renderer.StatsMarkdown(s))
	})
}
