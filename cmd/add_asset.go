package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/config"
	"github.com/google/subcommands"
)

type addAssetCmd struct {
	id     string
	name   string
	ticker string
	kind   string
	ref    string
}

func (*addAssetCmd) Name() string     { return "add-asset" }
func (*addAssetCmd) Synopsis() string { return "add an asset to the portfolio" }
func (*addAssetCmd) Usage() string {
	return `aut add-asset <token>
aut add-asset -id <id> -type <etf|fund> -ref <ref> [-name <name>] [-ticker <ticker>]

  Adds an asset to the portfolio. The token is an asset id, or any token that
  matches exactly one asset of the catalog.

  Assets missing from the catalog can be described with flags instead.

  When the portfolio has already been updated, the asset prices are fetched
  up to the last update.

Usage Examples:
$ aut add-asset FXUS
$ aut add-asset -id fxgd -type etf -ref FXGD.MCX -name "FinEx Gold"
`
}

func (c *addAssetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Asset id, describes the asset without the catalog")
	f.StringVar(&c.name, "name", "", "Asset name (defaults to the id)")
	f.StringVar(&c.ticker, "ticker", "", "Asset ticker")
	f.StringVar(&c.kind, "type", "", "Asset type: etf or fund")
	f.StringVar(&c.ref, "ref", "", "Asset reference at the market data provider")
}

// descriptor returns the asset described by the flags.
func (c *addAssetCmd) descriptor() (portfolio.AssetDescriptor, error) {
	kind, err := portfolio.ParseAssetKind(c.kind)
	if err != nil {
		return portfolio.AssetDescriptor{}, err
	}
	name := c.name
	if name == "" {
		name = c.id
	}
	return portfolio.AssetDescriptor{
		ID:     c.id,
		Name:   name,
		Ticker: c.ticker,
		Kind:   kind,
		Ref:    c.ref,
	}, nil
}

func (c *addAssetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (f.NArg() == 1) == (c.id != "") {
		return failf(subcommands.ExitUsageError, "either a token or -id is required")
	}

	return edit(func(cfg *config.Config, p *portfolio.Portfolio) error {
		var desc portfolio.AssetDescriptor
		var err error
		if c.id != "" {
			desc, err = c.descriptor()
		} else {
			desc, err = resolve(cfg, f.Arg(0))
		}
		if err != nil {
			return err
		}
		if _, err := p.AddAsset(ctx, desc); err != nil {
			return fmt.Errorf("cannot add %q: %w", desc.ID, err)
		}
		fmt.Fprintf(stdout, "Added %s\n", desc.Label())
		return nil
	})
}

// resolve finds the asset designated by token in the catalog.
func resolve(cfg *config.Config, token string) (portfolio.AssetDescriptor, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return portfolio.AssetDescriptor{}, err
	}
	return cat.Resolve(token)
}
