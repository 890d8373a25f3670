package portfolio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/assetutils/portfolio/date"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// FormatVersion is the version of the portfolio file format written by EncodePortfolio.
const FormatVersion = 1

const attrKind = "kind"

// record kinds of the portfolio file.
const (
	kindPortfolio = "portfolio"
	kindAsset     = "asset"
	kindPrice     = "price"
	kindPosition  = string(KindPosition)
	kindFee       = string(KindFee)
)

// This file persists a portfolio as JSONL, one record per line, each with a
// "kind" discriminant. The format is meant to stay human-readable and
// git-friendly:
//
//	{"kind":"portfolio","version":1,"created":"2020-01-01","updated":"2020-01-10","currency":"RUB"}
//	{"kind":"asset","id":"A","name":"Asset A","type":"etf","ref":"a"}
//	{"kind":"price","asset":"A","date":"2020-01-01","price":100}
//	{"kind":"position","id":"…","asset":"A","date":"2020-01-01","price":100,"count":10,"fee":1}
//	{"kind":"fee","id":"…","date":"2020-01-02","amount":3,"memo":"custody"}
//
// Prices are only written on the first day and when they change, the series
// is rebuilt by forward-fill. Counts are not written at all, positions are
// replayed instead.

// EncodePortfolio writes the portfolio to w.
func EncodePortfolio(w io.Writer, p *Portfolio) error {
	bw := bufio.NewWriter(w)

	header := newLine(kindPortfolio).
		Append("version", FormatVersion).
		Append("created", p.created).
		Append("updated", p.lastUpdated).
		Append("currency", p.currency)
	if err := header.writeTo(bw); err != nil {
		return fmt.Errorf("cannot encode portfolio header: %w", err)
	}

	for _, a := range p.assets {
		d := a.desc
		line := newLine(kindAsset).
			Append("id", d.ID).
			Append("name", d.Name).
			Optional("ticker", d.Ticker).
			Optional("exchange", d.Exchange).
			Append("type", d.Kind).
			Optional("ref", d.Ref)
		if err := line.writeTo(bw); err != nil {
			return fmt.Errorf("cannot encode asset %q: %w", d.ID, err)
		}
	}

	for _, a := range p.assets {
		var last decimal.Decimal
		for i, r := range a.records {
			if i > 0 && r.Price.Equal(last) {
				continue
			}
			last = r.Price
			line := newLine(kindPrice).Append("asset", a.desc.ID).Append("date", r.Date).Append("price", r.Price)
			if err := line.writeTo(bw); err != nil {
				return fmt.Errorf("cannot encode price of %q on %s: %w", a.desc.ID, r.Date, err)
			}
		}
	}

	for _, e := range p.events {
		var line *jsonLine
		switch e := e.(type) {
		case *Position:
			line = newLine(kindPosition).
				Append("id", e.ID).
				Append("asset", e.Asset.ID()).
				Append("date", e.Date).
				Append("price", e.Price).
				Append("count", e.Count).
				Append("fee", e.Fee)
		case *Fee:
			line = newLine(kindFee).
				Append("id", e.ID).
				Append("date", e.Date).
				Append("amount", e.Amount).
				Optional("memo", e.Memo)
		default:
			panic(fmt.Sprintf("unknown event type %T", e))
		}
		if err := line.writeTo(bw); err != nil {
			return fmt.Errorf("cannot encode event %s: %w", e.EventID(), err)
		}
	}
	return bw.Flush()
}

// decoded lines, with json tags.
type (
	headerLine struct {
		Version  int       `json:"version"`
		Created  date.Date `json:"created"`
		Updated  date.Date `json:"updated"`
		Currency string    `json:"currency"`
	}
	priceLine struct {
		Asset string          `json:"asset"`
		Date  date.Date       `json:"date"`
		Price decimal.Decimal `json:"price"`
	}
	positionLine struct {
		ID    string          `json:"id"`
		Asset string          `json:"asset"`
		Date  date.Date       `json:"date"`
		Price decimal.Decimal `json:"price"`
		Count Quantity        `json:"count"`
		Fee   decimal.Decimal `json:"fee"`
	}
	feeLine struct {
		ID     string          `json:"id"`
		Date   date.Date       `json:"date"`
		Amount decimal.Decimal `json:"amount"`
		Memo   string          `json:"memo"`
	}
)

// DecodePortfolio reads a portfolio written by EncodePortfolio.
//
// Options are applied first, the currency of the file header takes
// precedence. Records of an unknown kind are skipped.
func DecodePortfolio(r io.Reader, opts ...Option) (*Portfolio, error) {
	var (
		p      *Portfolio
		prices = make(map[string]*date.History[decimal.Decimal])
		events []json.RawMessage // replayed once the series are rebuilt.
		lines  []int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if strings.TrimSpace(string(line)) == "" {
			continue
		}
		var id struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(line, &id); err != nil {
			return nil, fmt.Errorf("%w: line %d is not a JSON object: %v", ErrParse, n, err)
		}
		if p == nil && id.Kind != kindPortfolio {
			return nil, fmt.Errorf("%w: line %d: missing portfolio header, got %q", ErrParse, n, id.Kind)
		}

		switch id.Kind {
		case kindPortfolio:
			if p != nil {
				return nil, fmt.Errorf("%w: line %d: duplicate portfolio header", ErrParse, n)
			}
			var h headerLine
			if err := json.Unmarshal(line, &h); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrParse, n, err)
			}
			if h.Version > FormatVersion {
				return nil, fmt.Errorf("%w: file format version %d is newer than supported version %d", ErrValidation, h.Version, FormatVersion)
			}
			p = New(h.Created, opts...)
			if h.Currency != "" {
				p.currency = h.Currency
			}
			p.lastUpdated = h.Updated

		case kindAsset:
			var d AssetDescriptor
			if err := json.Unmarshal(line, &d); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrParse, n, err)
			}
			if d.ID == "" || p.assetIndex(d.ID) >= 0 {
				return nil, fmt.Errorf("%w: line %d: missing or duplicate asset id %q", ErrParse, n, d.ID)
			}
			a := NewAsset(d, p.created)
			a.lookback = p.lookback
			p.assets = append(p.assets, a)
			prices[d.ID] = new(date.History[decimal.Decimal])

		case kindPrice:
			var pl priceLine
			if err := json.Unmarshal(line, &pl); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrParse, n, err)
			}
			h, ok := prices[pl.Asset]
			if !ok {
				return nil, fmt.Errorf("%w: line %d: price of undeclared asset %q", ErrParse, n, pl.Asset)
			}
			h.Append(pl.Date, pl.Price)

		case kindPosition, kindFee:
			events = append(events, json.RawMessage(append([]byte(nil), line...)))
			lines = append(lines, n)

		default:
			log.Warn().Int("line", n).Str("kind", id.Kind).Msg("skipping unknown portfolio record")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read portfolio: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: empty portfolio file", ErrParse)
	}

	for _, a := range p.assets {
		if err := a.restore(prices[a.desc.ID], p.lastUpdated); err != nil {
			return nil, err
		}
	}

	for i, raw := range events {
		if err := p.replay(raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", lines[i], err)
		}
	}
	return p, nil
}

// replay applies a persisted event.
func (p *Portfolio) replay(raw json.RawMessage) error {
	var id struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &id); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	switch id.Kind {
	case kindPosition:
		var l positionLine
		if err := json.Unmarshal(raw, &l); err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		if l.Count.IsZero() {
			return fmt.Errorf("%w: position %s has a zero count", ErrValidation, l.ID)
		}
		_, err := p.addPosition(l.ID, l.Asset, l.Date, l.Price, l.Count, l.Fee)
		return err
	case kindFee:
		var l feeLine
		if err := json.Unmarshal(raw, &l); err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		_, err := p.addFee(l.ID, l.Date, l.Amount, l.Memo)
		return err
	default:
		return fmt.Errorf("%w: %q is not an event", ErrParse, id.Kind)
	}
}

// restore rebuilds the series up to 'to' from sparse prices, with no holdings.
func (a *Asset) restore(prices *date.History[decimal.Decimal], to date.Date) error {
	records := make([]DailyRecord, 0, max(0, to.Sub(a.created)+1))
	for on := a.created; !on.After(to); on = on.Add(1) {
		price, ok := prices.ValueAsOf(on)
		if !ok {
			return fmt.Errorf("%w: %s on %s", ErrNoPriceData, a.desc.ID, on)
		}
		records = append(records, DailyRecord{Date: on, Price: price})
	}
	a.records = records
	a.lastUpdated = to
	return nil
}
