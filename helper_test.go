package portfolio

import (
	"context"
	"sync"
	"testing"

	"github.com/assetutils/portfolio/date"
	"github.com/shopspring/decimal"
)

var (
	assetA = AssetDescriptor{ID: "A", Name: "Asset A", Ticker: "AAA", Exchange: "MOEX", Kind: ETF, Ref: "a"}
	assetB = AssetDescriptor{ID: "B", Name: "Asset B", Kind: Fund, Ref: "b"}
)

// d is a helper for test to parse a date from const.
func d(s string) date.Date { return date.MustParse(s) }

// dec is a helper for test to create a decimal from const.
func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// obs is a helper for test to create an observation.
func obs(day string, price float64) Observation { return Observation{Date: d(day), Price: dec(price)} }

// stubProvider serves fixed observations, indexed by asset ref.
type stubProvider struct {
	quotes map[string][]Observation
	fail   map[string]error

	mu    sync.Mutex // assets are fetched concurrently.
	calls []fetchCall
}

type fetchCall struct {
	ref      string
	from, to date.Date
}

func (s *stubProvider) FetchPriceHistory(_ context.Context, asset AssetDescriptor, from, to date.Date) ([]Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fetchCall{asset.Ref, from, to})
	if err := s.fail[asset.Ref]; err != nil {
		return nil, err
	}
	var res []Observation
	for _, o := range s.quotes[asset.Ref] {
		if !o.Date.Before(from) && !o.Date.After(to) {
			res = append(res, o)
		}
	}
	return res, nil
}

// scenario1 returns a portfolio created on 2020-01-01, holding 10 A bought at
// 100 with a fee of 1, updated to 2020-01-10 with A quoted 100 then 110 from
// 2020-01-05.
func scenario1(t *testing.T) *Portfolio {
	t.Helper()
	ctx := context.Background()
	provider := &stubProvider{quotes: map[string][]Observation{
		"a": {obs("2020-01-01", 100), obs("2020-01-05", 110)},
	}}
	p := New(d("2020-01-01"), WithProvider(provider), WithCurrency("USD"))
	if _, err := p.AddAsset(ctx, assetA); err != nil {
		t.Fatalf("AddAsset() error = %v", err)
	}
	if err := p.Update(ctx, d("2020-01-01")); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := p.Buy("A", d("2020-01-01"), dec(100), Q(10), dec(1)); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if err := p.Update(ctx, d("2020-01-10")); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	return p
}
