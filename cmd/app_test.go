package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/assetutils/portfolio"
	"github.com/google/subcommands"
)

// quoteServer serves {"price": p} for the asset whose reference is the id
// query parameter.
type quoteServer struct {
	mu     sync.Mutex
	prices map[string]float64
}

func (s *quoteServer) set(ref string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[ref] = price
}

func (s *quoteServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.prices[r.URL.Query().Get("id")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	fmt.Fprintf(w, `{"price": %v}`, price)
}

// setup points the global flags to a fresh folder, with a configuration
// that reads prices from a quote server.
func setup(t *testing.T) *quoteServer {
	t.Helper()
	qs := &quoteServer{prices: map[string]float64{}}
	srv := httptest.NewServer(qs)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := fmt.Sprintf(`
[portfolio]
currency = "USD"

[provider]
name = "quote"
retries = -1
cache = false

[quote]
url = "%s/quote?id={ref}"
price_path = "$.price"

[logging]
level = "warn"
pretty = false
`, srv.URL)
	cfgFile := filepath.Join(dir, "aut.toml")
	if err := os.WriteFile(cfgFile, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	oldConfig, oldPortfolio, oldCatalog, oldPlain := *configFile, *portfolioFile, *catalogFile, *plain
	t.Cleanup(func() {
		*configFile, *portfolioFile, *catalogFile, *plain = oldConfig, oldPortfolio, oldCatalog, oldPlain
	})
	*configFile = cfgFile
	*portfolioFile = filepath.Join(dir, "portfolio.jsonl")
	*catalogFile = filepath.Join(dir, "catalog.jsonl")
	*plain = true
	return qs
}

// run executes the command line args and returns its output.
func run(t *testing.T, args ...string) (string, subcommands.ExitStatus) {
	t.Helper()
	var out, errs bytes.Buffer
	oldOut, oldErr := stdout, stderr
	stdout, stderr = &out, &errs
	defer func() { stdout, stderr = oldOut, oldErr }()

	fs := flag.NewFlagSet("aut", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "aut")
	Register(commander)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("cannot parse %v: %v", args, err)
	}
	status := commander.Execute(context.Background())
	if errs.Len() > 0 {
		t.Logf("aut %s: %s", strings.Join(args, " "), errs.String())
	}
	return out.String(), status
}

// mustRun executes the command line and fails the test if it does not succeed.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, status := run(t, args...)
	if status != subcommands.ExitSuccess {
		t.Fatalf("aut %s = %v, want success", strings.Join(args, " "), status)
	}
	return out
}

func usd(v int64) string { return portfolio.M(v, "USD").String() }

func TestPortfolioLifecycle(t *testing.T) {
	qs := setup(t)

	mustRun(t, "init", "-date", "2020-01-01")
	if _, status := run(t, "init", "-date", "2020-01-01"); status != subcommands.ExitFailure {
		t.Errorf("second init = %v, want failure", status)
	}
	mustRun(t, "add-asset", "-id", "fxus", "-type", "etf", "-ref", "FXUS", "-name", "FinEx US")
	mustRun(t, "add-asset", "-id", "gold", "-type", "fund", "-ref", "GOLD")

	qs.set("FXUS", 100)
	qs.set("GOLD", 50)
	mustRun(t, "update", "-date", "2020-01-01")
	mustRun(t, "buy", "-asset", "fxus", "-date", "2020-01-01", "-price", "100", "-count", "3", "-fee", "1")
	mustRun(t, "buy", "-asset", "gold", "-price", "50", "-count", "2")
	mustRun(t, "fee", "-amount", "5", "-memo", "custody")

	qs.set("FXUS", 120)
	mustRun(t, "update", "-date", "2020-01-03")

	if got, want := mustRun(t, "value", "-date", "2020-01-03"), "2020-01-03: "+usd(460); !strings.Contains(got, want) {
		t.Errorf("value = %q, want %q", got, want)
	}
	if got, want := mustRun(t, "value", "-date", "2020-01-02"), usd(400); !strings.Contains(got, want) {
		t.Errorf("value = %q, want %q", got, want)
	}

	log := mustRun(t, "log")
	for _, want := range []string{"fxus", "gold", "custody"} {
		if !strings.Contains(log, want) {
			t.Errorf("log does not contain %q:\n%s", want, log)
		}
	}

	stats := mustRun(t, "stats")
	if !strings.Contains(stats, "+"+usd(54)) {
		t.Errorf("stats does not contain the result %s:\n%s", "+"+usd(54), stats)
	}

	// overselling fails and changes nothing.
	if _, status := run(t, "sell", "-asset", "fxus", "-date", "2020-01-02", "-price", "110", "-count", "4"); status != subcommands.ExitFailure {
		t.Errorf("oversell = %v, want failure", status)
	}
	mustRun(t, "sell", "-asset", "fxus", "-date", "2020-01-02", "-price", "110", "-count", "1")
	if got, want := mustRun(t, "value", "-date", "2020-01-03"), usd(340); !strings.Contains(got, want) {
		t.Errorf("value after sell = %q, want %q", got, want)
	}

	// buy, buy and fee are on 2020-01-01, the sell comes last.
	if _, status := run(t, "remove-event", "0"); status != subcommands.ExitFailure {
		t.Errorf("removing the buy the sell depends on = %v, want failure", status)
	}
	mustRun(t, "remove-event", "3")
	if got, want := mustRun(t, "value", "-date", "2020-01-03"), usd(460); !strings.Contains(got, want) {
		t.Errorf("value after remove-event = %q, want %q", got, want)
	}

	mustRun(t, "remove-asset", "gold")
	if got, want := mustRun(t, "value", "-date", "2020-01-03"), usd(360); !strings.Contains(got, want) {
		t.Errorf("value after remove-asset = %q, want %q", got, want)
	}
}

func TestReports(t *testing.T) {
	qs := setup(t)
	mustRun(t, "init", "-date", "2020-01-01")
	mustRun(t, "add-asset", "-id", "fxus", "-type", "etf", "-ref", "FXUS")
	mustRun(t, "add-asset", "-id", "gold", "-type", "fund", "-ref", "GOLD")
	qs.set("FXUS", 100)
	qs.set("GOLD", 50)
	mustRun(t, "update", "-date", "2020-01-01")
	mustRun(t, "buy", "-asset", "fxus", "-price", "100", "-count", "3")
	mustRun(t, "buy", "-asset", "gold", "-price", "50", "-count", "2")
	mustRun(t, "update", "-date", "2020-01-05")

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"history", "-from", "2020-01-02", "-to", "2020-01-03"}, []string{"2020-01-02", "2020-01-03", usd(400)}},
		{[]string{"report", "-p", "weekly"}, []string{"Weekly report"}},
		{[]string{"distribution"}, []string{"75.00%", "25.00%"}},
		{[]string{"rebalance", "-target", "fxus=0.5,gold=0.5"}, []string{"sell 1", "buy 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			got := mustRun(t, tt.args...)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("aut %s does not contain %q:\n%s", strings.Join(tt.args, " "), want, got)
				}
			}
		})
	}

	failures := [][]string{
		{"report", "-p", "hourly"},
		{"rebalance", "-target", "nope=1"},
		{"rebalance"},
		{"value", "-date", "2021-01-01"},
		{"remove-event", "9"},
		{"remove-event", "x"},
	}
	for _, args := range failures {
		if _, status := run(t, args...); status == subcommands.ExitSuccess {
			t.Errorf("aut %s succeeded, want a failure", strings.Join(args, " "))
		}
	}
}

func TestMissingPortfolio(t *testing.T) {
	setup(t)
	if _, status := run(t, "stats"); status != subcommands.ExitFailure {
		t.Errorf("stats without a portfolio = %v, want failure", status)
	}
}

func TestCatalogCommands(t *testing.T) {
	setup(t)
	catalog := `{"id":"etf-fxus","name":"FinEx US","ticker":"FXUS","type":"etf","ref":"fxus"}
{"id":"fund-3441","name":"Sber Gold","type":"fund","ref":"3441"}
`
	if err := os.WriteFile(*catalogFile, []byte(catalog), 0o644); err != nil {
		t.Fatal(err)
	}

	got := mustRun(t, "search", "gold")
	if !strings.Contains(got, "fund-3441") || strings.Contains(got, "etf-fxus") {
		t.Errorf("search gold = \n%s\nwant only fund-3441", got)
	}

	mustRun(t, "init", "-date", "2020-01-01")
	mustRun(t, "add-asset", "FXUS")
	if _, status := run(t, "add-asset", "nothing"); status != subcommands.ExitFailure {
		t.Errorf("add-asset nothing = %v, want failure", status)
	}
	if _, status := run(t, "add-asset"); status != subcommands.ExitUsageError {
		t.Errorf("add-asset without token = %v, want usage error", status)
	}
	if got := mustRun(t, "log"); !strings.Contains(got, "Events") {
		t.Errorf("log = %q", got)
	}
}

func TestTopic(t *testing.T) {
	setup(t)
	got := mustRun(t, "topic", "rebalance")
	if !strings.Contains(got, "# Rebalance") {
		t.Errorf("topic rebalance = %q", got)
	}
	if _, status := run(t, "topic", "nope"); status != subcommands.ExitFailure {
		t.Errorf("topic nope = %v, want failure", status)
	}
}

func TestIsCommand(t *testing.T) {
	commander := subcommands.NewCommander(flag.NewFlagSet("aut", flag.ContinueOnError), "aut")
	Register(commander)
	for _, name := range []string{"init", "rebalance", "topic", "help"} {
		if !IsCommand(commander, name) {
			t.Errorf("IsCommand(%q) = false, want true", name)
		}
	}
	if IsCommand(commander, "hello") {
		t.Error("IsCommand(hello) = true, want false")
	}
}

func TestCompletion(t *testing.T) {
	commander := subcommands.NewCommander(flag.NewFlagSet("aut", flag.ContinueOnError), "aut")
	Register(commander)
	c := completion(commander)
	rebalance, ok := c.Sub["rebalance"]
	if !ok {
		t.Fatal("rebalance is not completed")
	}
	for _, name := range []string{"target", "cash", "no-overspend"} {
		if _, ok := rebalance.Flags[name]; !ok {
			t.Errorf("rebalance flag %q is not completed", name)
		}
	}
	if got := c.Sub["report"].Flags["p"].Predict(""); len(got) != 5 {
		t.Errorf("report -p predicts %v, want the 5 periods", got)
	}
	if c.Sub["topic"].Args == nil {
		t.Error("topic arguments are not completed")
	}
}
