package investfunds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/date"
	"github.com/assetutils/portfolio/remote"
	"github.com/shopspring/decimal"
)

// table renders a funds table with a header row and the given rows.
func table(rows ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table id="funds_table"><tr><th>date</th><th>a</th><th>b</th><th>c</th><th>price</th></tr>`)
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

func statsRow(day, price string) string {
	return fmt.Sprintf("<tr><td>%s</td><td>1</td><td>2</td><td>3</td><td>%s</td></tr>", day, price)
}

func fundRow(day, price string) string {
	return fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>1 000 000,00 RUB</td></tr>", day, price)
}

func newTestProvider(srv *httptest.Server) *Provider {
	return New(Config{ETFURL: srv.URL + "/etf", FundURL: srv.URL + "/funds"}, remote.NewClient(remote.Config{Retries: -1}))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
		err    bool
	}{
		{"1 234,5 RUB", "1234.5", true, false},
		{"1 234,50 RUB", "1234.5", true, false},
		{"12.25 USD", "12.25", true, false},
		{"-", "0", false, false},
		{"", "0", false, false},
		{"- RUB", "0", false, false},
		{"12a,5 RUB", "0", false, true},
	}
	for _, tt := range tests {
		got, ok, err := ParsePrice(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParsePrice(%q) error = %v, want error %v", tt.in, err, tt.err)
			continue
		}
		if ok != tt.wantOK || !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParsePrice(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFetchPriceHistory(t *testing.T) {
	pages := map[string]string{
		"0": table(statsRow("10.01.2020", "1 010,0 RUB"), statsRow("09.01.2020", "- RUB"), statsRow("08.01.2020", "1 008,0 RUB")),
		"1": table(statsRow("03.01.2020", "1 003,5 RUB")),
	}
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/etf/ref-1/stats" {
			http.NotFound(w, r)
			return
		}
		queries = append(queries, r.URL.RawQuery)
		if r.URL.Query().Get("dateStart") != "01.01.2020" || r.URL.Query().Get("dateEnd") != "10.01.2020" {
			http.Error(w, "bad dates", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, pages[r.URL.Query().Get("p")])
	}))
	defer srv.Close()

	asset := portfolio.AssetDescriptor{ID: "A", Kind: portfolio.ETF, Ref: "ref-1"}
	got, err := newTestProvider(srv).FetchPriceHistory(context.Background(), asset, date.New(2020, 1, 1), date.New(2020, 1, 10))
	if err != nil {
		t.Fatalf("FetchPriceHistory() error = %v", err)
	}
	want := []portfolio.Observation{
		{Date: date.New(2020, 1, 3), Price: decimal.RequireFromString("1003.5")},
		{Date: date.New(2020, 1, 8), Price: decimal.RequireFromString("1008")},
		{Date: date.New(2020, 1, 10), Price: decimal.RequireFromString("1010")},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d observations, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Date != want[i].Date || !got[i].Price.Equal(want[i].Price) {
			t.Errorf("observation %d: got %v %v, want %v %v", i, got[i].Date, got[i].Price, want[i].Date, want[i].Price)
		}
	}
	// pages 0 and 1 have data, page 2 is empty.
	if len(queries) != 3 {
		t.Errorf("got %d requests, want 3", len(queries))
	}
}

func TestFetchPriceHistory_RepeatedPage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, table(fundRow("10.01.2020", "5 RUB")))
	}))
	defer srv.Close()

	asset := portfolio.AssetDescriptor{ID: "F", Kind: portfolio.Fund, Ref: "42"}
	got, err := newTestProvider(srv).FetchPriceHistory(context.Background(), asset, date.New(2020, 1, 1), date.New(2020, 1, 10))
	if err != nil {
		t.Fatalf("FetchPriceHistory() error = %v", err)
	}
	if len(got) != 1 || calls != 2 {
		t.Errorf("got %d observations in %d calls, want 1 in 2", len(got), calls)
	}
}

func TestFetchPriceHistory_Fund(t *testing.T) {
	page, err := os.ReadFile("testdata/fund_stats.html")
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/funds/3441/stats" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("p") == "0" {
			w.Write(page)
			return
		}
		fmt.Fprint(w, table())
	}))
	defer srv.Close()

	asset := portfolio.AssetDescriptor{ID: "fund-3441", Kind: portfolio.Fund, Ref: "3441"}
	got, err := newTestProvider(srv).FetchPriceHistory(context.Background(), asset, date.New(2020, 1, 1), date.New(2020, 1, 10))
	if err != nil {
		t.Fatalf("FetchPriceHistory() error = %v", err)
	}
	// the price is the share price, not the net asset value.
	want := []portfolio.Observation{
		{Date: date.New(2020, 1, 3), Price: decimal.RequireFromString("1283.71")},
		{Date: date.New(2020, 1, 9), Price: decimal.RequireFromString("1269.98")},
		{Date: date.New(2020, 1, 10), Price: decimal.RequireFromString("1275.31")},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d observations, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Date != want[i].Date || !got[i].Price.Equal(want[i].Price) {
			t.Errorf("observation %d: got %v %v, want %v %v", i, got[i].Date, got[i].Price, want[i].Date, want[i].Price)
		}
	}
}

func TestFetchPriceHistory_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/etf/bad-date/stats":
			fmt.Fprint(w, table(statsRow("2020-01-10", "5 RUB")))
		case "/etf/short/stats":
			fmt.Fprint(w, table("<tr><td>10.01.2020</td><td>5 RUB</td></tr>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	p := newTestProvider(srv)

	tests := []struct {
		name  string
		asset portfolio.AssetDescriptor
		want  error
	}{
		{"bad date", portfolio.AssetDescriptor{ID: "A", Kind: portfolio.ETF, Ref: "bad-date"}, portfolio.ErrParse},
		{"short row", portfolio.AssetDescriptor{ID: "A", Kind: portfolio.ETF, Ref: "short"}, portfolio.ErrParse},
		{"not found", portfolio.AssetDescriptor{ID: "A", Kind: portfolio.ETF, Ref: "missing"}, portfolio.ErrNetwork},
		{"no ref", portfolio.AssetDescriptor{ID: "A", Kind: portfolio.ETF}, portfolio.ErrValidation},
		{"unknown kind", portfolio.AssetDescriptor{ID: "A", Kind: "bond", Ref: "x"}, portfolio.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.FetchPriceHistory(context.Background(), tt.asset, date.New(2020, 1, 1), date.New(2020, 1, 10))
			if !errors.Is(err, tt.want) {
				t.Errorf("FetchPriceHistory() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFetchCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/etf/" && r.URL.Query().Get("p") == "0":
			fmt.Fprint(w, table(
				`<tr><td><a href="/etf/fxus/">FinEx US Equity</a></td><td>MOEX</td><td>FXUS</td></tr>`,
				`<tr><td>no link</td><td>MOEX</td><td>NONE</td></tr>`,
			))
		case r.URL.Path == "/etf/" && r.URL.Query().Get("p") == "1":
			// the site repeats the last page past the end.
			fmt.Fprint(w, table(`<tr><td><a href="/etf/fxus/">FinEx US Equity</a></td><td>MOEX</td><td>FXUS</td></tr>`))
		case r.URL.Path == "/funds/" && r.URL.Query().Get("npage") == "0":
			if r.URL.Query().Get("exclude_qualified") != "1" {
				http.Error(w, "qualified", http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, table(`<tr><td><a href="https://pif.example/funds/3441">Sber  Gold</a></td></tr>`))
		default:
			fmt.Fprint(w, "<html><body>empty</body></html>")
		}
	}))
	defer srv.Close()

	got, err := newTestProvider(srv).FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v", err)
	}
	want := []portfolio.AssetDescriptor{
		{ID: "etf-fxus", Name: "FinEx US Equity", Ticker: "FXUS", Exchange: "MOEX", Kind: portfolio.ETF, Ref: "fxus"},
		{ID: "fund-3441", Name: "Sber Gold", Kind: portfolio.Fund, Ref: "3441"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d assets, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("asset %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}
