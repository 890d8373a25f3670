package catalog

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/assetutils/portfolio"
)

var (
	fxus = portfolio.AssetDescriptor{ID: "etf-fxus", Name: "FinEx US Equity", Ticker: "FXUS", Exchange: "MOEX", Kind: portfolio.ETF, Ref: "fxus"}
	fxgd = portfolio.AssetDescriptor{ID: "etf-fxgd", Name: "FinEx Gold", Ticker: "FXGD", Exchange: "MOEX", Kind: portfolio.ETF, Ref: "fxgd"}
	gold = portfolio.AssetDescriptor{ID: "fund-3441", Name: "Sber Gold", Kind: portfolio.Fund, Ref: "3441"}
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New(fxus, fxgd, gold)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func ids(list []portfolio.AssetDescriptor) string {
	var s []string
	for _, a := range list {
		s = append(s, a.ID)
	}
	return strings.Join(s, ",")
}

func TestSearch(t *testing.T) {
	c := testCatalog(t)
	tests := []struct {
		token string
		want  string
	}{
		{"gold", "etf-fxgd,fund-3441"},
		{"FINEX", "etf-fxus,etf-fxgd"},
		{"fxus", "etf-fxus"},
		{"fund-3441", "fund-3441"},
		{"FX", ""},
		{"", "etf-fxus,etf-fxgd,fund-3441"},
	}
	for _, tt := range tests {
		if got := ids(c.Search(tt.token)); got != tt.want {
			t.Errorf("Search(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestLookupAndResolve(t *testing.T) {
	c := testCatalog(t)
	if got, err := c.Lookup("etf-fxgd"); err != nil || got != fxgd {
		t.Errorf("Lookup() = %v, %v, want %v", got, err, fxgd)
	}
	if _, err := c.Lookup("FXGD"); !errors.Is(err, portfolio.ErrNotFound) {
		t.Errorf("Lookup() error = %v, want %v", err, portfolio.ErrNotFound)
	}
	if got, err := c.Resolve("FXGD"); err != nil || got != fxgd {
		t.Errorf("Resolve() = %v, %v, want %v", got, err, fxgd)
	}
	if _, err := c.Resolve("gold"); !errors.Is(err, portfolio.ErrValidation) {
		t.Errorf("Resolve() error = %v, want %v", err, portfolio.ErrValidation)
	}
	if _, err := c.Resolve("bond"); !errors.Is(err, portfolio.ErrNotFound) {
		t.Errorf("Resolve() error = %v, want %v", err, portfolio.ErrNotFound)
	}
}

func TestAdd(t *testing.T) {
	c := testCatalog(t)
	tests := []struct {
		name string
		a    portfolio.AssetDescriptor
	}{
		{"duplicate", fxus},
		{"no id", portfolio.AssetDescriptor{Name: "x", Kind: portfolio.ETF}},
		{"bad kind", portfolio.AssetDescriptor{ID: "x", Kind: "bond"}},
	}
	for _, tt := range tests {
		if err := c.Add(tt.a); !errors.Is(err, portfolio.ErrValidation) {
			t.Errorf("%s: Add() error = %v, want %v", tt.name, err, portfolio.ErrValidation)
		}
	}
	if c.Len() != 3 {
		t.Errorf("got %d assets, want 3", c.Len())
	}
}

func TestMerge(t *testing.T) {
	c := testCatalog(t)
	renamed := fxus
	renamed.Name = "FinEx USA"
	extra := portfolio.AssetDescriptor{ID: "etf-fxcn", Name: "FinEx China", Ticker: "FXCN", Kind: portfolio.ETF, Ref: "fxcn"}
	added, err := c.Merge([]portfolio.AssetDescriptor{renamed, extra})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if added != 1 {
		t.Errorf("Merge() added %d, want 1", added)
	}
	if got := ids(c.All()); got != "etf-fxus,etf-fxgd,fund-3441,etf-fxcn" {
		t.Errorf("got order %q", got)
	}
	if got, _ := c.Lookup("etf-fxus"); got.Name != "FinEx USA" {
		t.Errorf("got name %q, want %q", got.Name, "FinEx USA")
	}
}

func TestEncodeDecode(t *testing.T) {
	c := testCatalog(t)
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := `{"id":"etf-fxus","name":"FinEx US Equity","ticker":"FXUS","exchange":"MOEX","type":"etf","ref":"fxus"}
{"id":"etf-fxgd","name":"FinEx Gold","ticker":"FXGD","exchange":"MOEX","type":"etf","ref":"fxgd"}
{"id":"fund-3441","name":"Sber Gold","type":"fund","ref":"3441"}
`
	if got := buf.String(); got != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", got, want)
	}

	got, err := Decode(strings.NewReader("\n" + want + "\n"))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if ids(got.All()) != ids(c.All()) {
		t.Errorf("Decode() = %q, want %q", ids(got.All()), ids(c.All()))
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"not json", "{", portfolio.ErrParse},
		{"duplicate", `{"id":"a","type":"etf"}` + "\n" + `{"id":"a","type":"etf"}`, portfolio.ErrValidation},
		{"unknown kind", `{"id":"a","type":"bond"}`, portfolio.ErrValidation},
	}
	for _, tt := range tests {
		if _, err := Decode(strings.NewReader(tt.in)); !errors.Is(err, tt.want) {
			t.Errorf("%s: Decode() error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestLoadSave(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "data", "catalog.jsonl")

	empty, err := Load(filename)
	if err != nil {
		t.Fatalf("Load() of a missing file error = %v", err)
	}
	if empty.Len() != 0 {
		t.Errorf("got %d assets, want 0", empty.Len())
	}

	if err := testCatalog(t).Save(filename); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	c, err := Load(filename)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := ids(c.All()); got != "etf-fxus,etf-fxgd,fund-3441" {
		t.Errorf("Load() = %q", got)
	}
}
