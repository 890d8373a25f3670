package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/config"
	"github.com/google/subcommands"
)

type removeAssetCmd struct{}

func (*removeAssetCmd) Name() string     { return "remove-asset" }
func (*removeAssetCmd) Synopsis() string { return "remove an asset and all its trades" }
func (*removeAssetCmd) Usage() string {
	return `aut remove-asset <id>

  Removes an asset from the portfolio, with all the trades recorded on it.
`
}

func (c *removeAssetCmd) SetFlags(f *flag.FlagSet) {}

func (c *removeAssetCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return failf(subcommands.ExitUsageError, "exactly one asset id is required")
	}
	id := f.Arg(0)
	return edit(func(_ *config.Config, p *portfolio.Portfolio) error {
		if err := p.RemoveAsset(id); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed %s\n", id)
		return nil
	})
}
