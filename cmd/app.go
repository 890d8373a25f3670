// Package cmd implements the aut CLI application to manage a portfolio.
package cmd

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/catalog"
	"github.com/assetutils/portfolio/config"
	"github.com/assetutils/portfolio/date"
	"github.com/assetutils/portfolio/eodhd"
	"github.com/assetutils/portfolio/investfunds"
	"github.com/assetutils/portfolio/logger"
	"github.com/assetutils/portfolio/quote"
	"github.com/assetutils/portfolio/remote"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&initCmd{}, "portfolio")
	c.Register(&addAssetCmd{}, "portfolio")
	c.Register(&removeAssetCmd{}, "portfolio")
	c.Register(&updateCmd{}, "portfolio")

	c.Register(&buyCmd{}, "events")
	c.Register(&sellCmd{}, "events")
	c.Register(&feeCmd{}, "events")
	c.Register(&removeEventCmd{}, "events")
	c.Register(&logCmd{}, "events")

	c.Register(&valueCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")
	c.Register(&statsCmd{}, "reports")
	c.Register(&reportCmd{}, "reports")
	c.Register(&distributionCmd{}, "reports")
	c.Register(&rebalanceCmd{}, "reports")

	c.Register(&catalogFetchCmd{}, "catalog")
	c.Register(&searchCmd{}, "catalog")

	c.Register(&topicCmd{}, "help")
	c.Register(c.HelpCommand(), "help")
	c.Register(c.FlagsCommand(), "help")
	c.Register(c.CommandsCommand(), "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile    = flag.String("config", "", "Path to the TOML configuration file. Defaults to "+config.DefaultFile+" if it exists.")
	portfolioFile = flag.String("portfolio-file", "", "Path to the portfolio file (JSONL format). Overrides the configuration.")
	catalogFile   = flag.String("catalog-file", "", "Path to the asset catalog file (JSONL format). Overrides the configuration.")
	plain         = flag.Bool("plain", false, "Print reports as raw markdown.")
	verbose       = flag.Bool("v", false, "Log debug messages.")
)

// stdout and stderr are replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// loadConfig reads the configuration, applies the global flags, and installs the logger.
func loadConfig() (*config.Config, error) {
	var paths []string
	switch {
	case *configFile != "":
		paths = append(paths, *configFile)
	default:
		if _, err := os.Stat(config.DefaultFile); err == nil {
			paths = append(paths, config.DefaultFile)
		}
	}
	cfg, err := config.Load(".env", paths...)
	if err != nil {
		return nil, err
	}
	if *portfolioFile != "" {
		cfg.Portfolio.File = *portfolioFile
	}
	if *catalogFile != "" {
		cfg.Catalog.File = *catalogFile
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	logger.Install(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty, Out: stderr})
	return cfg, nil
}

// newProvider returns the market data provider selected by the configuration.
func newProvider(cfg *config.Config) portfolio.MarketDataProvider {
	client := remote.NewClient(cfg.Remote())
	switch cfg.Provider.Name {
	case config.EODHD:
		return eodhd.New(cfg.EODHD.APIKey, cfg.EODHD.BaseURL, client)
	case config.Quote:
		return quote.New(cfg.Quote.URL, cfg.Quote.PricePath, client)
	default:
		return investfunds.New(cfg.Investfunds, client)
	}
}

// decodePortfolio loads the portfolio file, wired to the configured provider.
func decodePortfolio(cfg *config.Config) (*portfolio.Portfolio, error) {
	f, err := os.Open(cfg.Portfolio.File)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("portfolio file %q does not exist, create it with 'aut init'", cfg.Portfolio.File)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open portfolio file %q: %w", cfg.Portfolio.File, err)
	}
	defer f.Close()

	p, err := portfolio.DecodePortfolio(bufio.NewReader(f),
		portfolio.WithProvider(newProvider(cfg)),
		portfolio.WithLookback(cfg.Portfolio.LookbackDays),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot read portfolio file %q: %w", cfg.Portfolio.File, err)
	}
	return p, nil
}

// encodePortfolio replaces the portfolio file.
func encodePortfolio(cfg *config.Config, p *portfolio.Portfolio) error {
	return writeFile(cfg.Portfolio.File, func(w io.Writer) error {
		return portfolio.EncodePortfolio(w, p)
	})
}

// writeFile writes filename atomically: the content goes to a temporary file
// renamed once complete.
func writeFile(filename string, write func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create folder %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+"-*")
	if err != nil {
		return fmt.Errorf("cannot write %q: %w", filename, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	err = write(w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("cannot write %q: %w", filename, err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("cannot write %q: %w", filename, err)
	}
	log.Debug().Str("file", filename).Msg("saved")
	return nil
}

// loadCatalog loads the catalog file, a missing one is empty.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	return catalog.Load(cfg.Catalog.File)
}

// parseDate parses s, or returns def when s is empty.
func parseDate(s string, def date.Date) (date.Date, error) {
	if s == "" {
		return def, nil
	}
	return date.Parse(s)
}

// parseDecimal parses s, the empty string is zero.
func parseDecimal(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid -%s %q: %w", name, s, err)
	}
	return d, nil
}

// failf prints an error message and returns the failure status.
func failf(status subcommands.ExitStatus, format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	return status
}

// edit loads the portfolio, applies change and saves the portfolio when
// change succeeds.
func edit(change func(cfg *config.Config, p *portfolio.Portfolio) error) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	p, err := decodePortfolio(cfg)
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	if err := change(cfg, p); err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	if err := encodePortfolio(cfg, p); err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	return subcommands.ExitSuccess
}

// view loads the portfolio and passes it to report, nothing is saved.
func view(report func(cfg *config.Config, p *portfolio.Portfolio) error) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	p, err := decodePortfolio(cfg)
	if err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	if err := report(cfg, p); err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	return subcommands.ExitSuccess
}
