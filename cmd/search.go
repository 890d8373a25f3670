package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/eodhd"
	"github.com/assetutils/portfolio/remote"
	"github.com/assetutils/portfolio/renderer"
	"github.com/google/subcommands"
)

type searchCmd struct {
	eodhd bool
	save  bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search the asset catalog" }
func (*searchCmd) Usage() string {
	return `aut search [-eodhd [-save]] <token>...

  Lists the catalog assets whose name contains the token, or whose ticker or
  id is the token.

  With -eodhd the EODHD search API is queried instead, and -save adds the
  results to the catalog.

Usage Examples:
$ aut search gold
$ aut search -eodhd -save FXUS
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.eodhd, "eodhd", false, "Search the EODHD API instead of the catalog")
	f.BoolVar(&c.save, "save", false, "Add the EODHD results to the catalog")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return failf(subcommands.ExitUsageError, "a search token is required")
	}
	if c.save && !c.eodhd {
		return failf(subcommands.ExitUsageError, "-save requires -eodhd")
	}
	token := strings.Join(f.Args(), " ")

	cfg, err := loadConfig()
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}

	if !c.eodhd {
		title := fmt.Sprintf("Catalog search %q", token)
		if err := printMarkdown(renderer.AssetsMarkdown(title, cat.Search(token))); err != nil {
			return failf(subcommands.ExitFailure, "%v", err)
		}
		return subcommands.ExitSuccess
	}

	provider := eodhd.New(cfg.EODHD.APIKey, cfg.EODHD.BaseURL, remote.NewClient(cfg.Remote()))
	results, err := provider.Search(ctx, token)
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	assets := make([]portfolio.AssetDescriptor, 0, len(results))
	for _, r := range results {
		assets = append(assets, r.Descriptor())
	}
	if err := printMarkdown(renderer.AssetsMarkdown(fmt.Sprintf("EODHD search %q", token), assets)); err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	if !c.save {
		return subcommands.ExitSuccess
	}
	added, err := cat.Merge(assets)
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	if err := cat.Save(cfg.Catalog.File); err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	fmt.Fprintf(stdout, "Added %d assets to %q\n", added, cfg.Catalog.File)
	return subcommands.ExitSuccess
}
