package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/config"
	"github.com/assetutils/portfolio/renderer"
	"github.com/google/subcommands"
)

type logCmd struct{}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list the recorded events" }
func (*logCmd) Usage() string {
	return `aut log

  Lists the trades and fees in chronological order. The first column is the
  index used by remove-event.
`
}

func (c *logCmd) SetFlags(f *flag.FlagSet) {}

func (c *logCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return view(func(_ *config.Config, p *portfolio.Portfolio) error {
		return printMarkdown(renderer.LogMarkdown(p.Currency(), p.Events()))
	})
}

type removeEventCmd struct{}

func (*removeEventCmd) Name() string     { return "remove-event" }
func (*removeEventCmd) Synopsis() string { return "undo a recorded event" }
func (*removeEventCmd) Usage() string {
	return `aut remove-event <index>

  Removes the event at index, as listed by 'aut log'. A trade is reverted on
  the asset series.
`
}

func (c *removeEventCmd) SetFlags(f *flag.FlagSet) {}

func (c *removeEventCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return failf(subcommands.ExitUsageError, "exactly one event index is required")
	}
	i, err := strconv.Atoi(f.Arg(0))
	if err != nil {
		return failf(subcommands.ExitUsageError, "invalid index %q", f.Arg(0))
	}
	return edit(func(_ *config.Config, p *portfolio.Portfolio) error {
		events := p.Events()
		if err := p.RemoveEvent(i); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed %v\n", events[i])
		return nil
	})
}
