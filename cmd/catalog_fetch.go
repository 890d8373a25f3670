package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/assetutils/portfolio/investfunds"
	"github.com/assetutils/portfolio/remote"
	"github.com/google/subcommands"
)

type catalogFetchCmd struct{}

func (*catalogFetchCmd) Name() string     { return "catalog-fetch" }
func (*catalogFetchCmd) Synopsis() string { return "fill the catalog from the investfunds listings" }
func (*catalogFetchCmd) Usage() string {
	return `aut catalog-fetch

  Reads the investfunds ETF and fund listings, and adds every asset that is
  not in the catalog file yet.
`
}

func (c *catalogFetchCmd) SetFlags(f *flag.FlagSet) {}

func (c *catalogFetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}

	provider := investfunds.New(cfg.Investfunds, remote.NewClient(cfg.Remote()))
	assets, err := provider.FetchCatalog(ctx)
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	added, err := cat.Merge(assets)
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	if err := cat.Save(cfg.Catalog.File); err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	fmt.Fprintf(stdout, "Fetched %d assets, %d new, %d in %q\n", len(assets), added, cat.Len(), cfg.Catalog.File)
	return subcommands.ExitSuccess
}
