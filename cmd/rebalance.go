package cmd

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/config"
	"github.com/assetutils/portfolio/rebalance"
	"github.com/assetutils/portfolio/renderer"
	"github.com/google/subcommands"
)

type rebalanceCmd struct {
	target        string
	cash          string
	noOverspend   bool
	date          string
	maxIterations int
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "compute the trades that reach a target distribution" }
func (*rebalanceCmd) Usage() string {
	return `aut rebalance -target <id>=<share>,... [-cash <amount>] [-no-overspend] [-date <date>]

  Computes the counts that bring the portfolio distribution closest to the
  target once the extra cash is invested. Shares are fractions summing to 1,
  assets not listed get 0.

  The portfolio is not modified.

Usage Examples:
$ aut rebalance -target etf-fxus=0.6,fund-3441=0.4 -cash 10000
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.target, "target", "", "Target distribution, as comma separated id=share pairs (required)")
	f.StringVar(&c.cash, "cash", "0", "Extra cash to invest")
	f.BoolVar(&c.noOverspend, "no-overspend", false, "Never spend more than the value plus the cash")
	f.StringVar(&c.date, "date", "", "Day of the prices (defaults to the last update)")
	f.IntVar(&c.maxIterations, "max-iterations", 0, "Search budget with -no-overspend (defaults to the configuration)")
}

// parseTarget parses "id=share,..." into one share per holding.
func parseTarget(s string, holdings []portfolio.Holding) ([]float64, error) {
	shares := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, share, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid target %q, want id=share", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(share), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid share for %q: %w", id, err)
		}
		shares[strings.TrimSpace(id)] = v
	}

	target := make([]float64, len(holdings))
	for i, h := range holdings {
		v, ok := shares[h.Asset.ID]
		if ok {
			delete(shares, h.Asset.ID)
		}
		target[i] = v
	}
	if len(shares) > 0 {
		unknown := slices.Sorted(maps.Keys(shares))
		return nil, fmt.Errorf("%w: asset %q is not in the portfolio", portfolio.ErrNotFound, unknown[0])
	}
	return target, nil
}

func (c *rebalanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.target == "" {
		return failf(subcommands.ExitUsageError, "-target is required")
	}
	cash, err := parseDecimal("cash", c.cash)
	if err != nil {
		return failf(subcommands.ExitUsageError, "%v", err)
	}

	return view(func(cfg *config.Config, p *portfolio.Portfolio) error {
		on, err := parseDate(c.date, p.LastUpdated())
		if err != nil {
			return err
		}
		snapshot, err := p.Snapshot(on)
		if err != nil {
			return err
		}
		target, err := parseTarget(c.target, snapshot.Holdings)
		if err != nil {
			return err
		}
		opts := rebalance.Options{
			ExtraCash:     cash,
			NoOverspend:   c.noOverspend,
			MaxIterations: cfg.Rebalance.MaxIterations,
		}
		if c.maxIterations > 0 {
			opts.MaxIterations = c.maxIterations
		}

		if timeout := cfg.RebalanceTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		plan, err := rebalance.Rebalance(ctx, snapshot, target, opts)
		if err != nil {
			return err
		}
		return printMarkdown(renderer.PlanMarkdown(plan))
	})
}
