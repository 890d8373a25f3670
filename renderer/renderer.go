// Package renderer turns portfolio reports into markdown documents.
package renderer

import (
	"bytes"
	"fmt"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/date"
	md "github.com/nao1215/markdown"
)

// StatsMarkdown renders the all time statistics.
func StatsMarkdown(s portfolio.Stats) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Portfolio on %s", s.Date))
	writeTable(doc, md.TableSet{
		Header: []string{md.Bold("Value"), md.Bold(s.Value.String())},
		Rows: [][]string{
			{"Opens", s.Opens.String()},
			{"Closes", s.Closes.String()},
			{"Fees", s.Fees.String()},
			{md.Bold("Result"), md.Bold(s.Result.SignedString())},
			{"Result %", s.ResultPercent.SignedString()},
		},
	})
	return doc.String()
}

// HistoryMarkdown renders the daily value of the portfolio.
func HistoryMarkdown(currency string, h *date.History[portfolio.Money]) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("History in %s", currency))
	table := md.TableSet{
		Header: []string{"Date", "Value"},
		Rows:   [][]string{},
	}
	for day, v := range h.Values() {
		table.Rows = append(table.Rows, []string{day.String(), v.String()})
	}
	writeTable(doc, table)
	return doc.String()
}

// PeriodicMarkdown renders a periodic report, one row per window, the most
// recent first.
func PeriodicMarkdown(r *portfolio.PeriodicReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("%s report", capitalize(r.Period.String())))
	header := []string{"Period"}
	for _, a := range r.Assets {
		header = append(header, a.Label(), "%")
	}
	header = append(header, "Value", "Opens", "Closes", "Return")

	table := md.TableSet{Header: header, Rows: [][]string{}}
	for _, row := range r.Rows {
		cells := []string{row.Range.String()}
		for _, c := range row.Assets {
			cells = append(cells, c.Value.String(), c.Change.SignedString())
		}
		cells = append(cells,
			md.Bold(row.Value.String()),
			row.Opens.String(),
			row.Closes.String(),
			row.Return.SignedString(),
		)
		table.Rows = append(table.Rows, cells)
	}
	writeTable(doc, table)
	return doc.String()
}

// DistributionMarkdown renders the share of each asset in the portfolio value.
func DistributionMarkdown(on date.Date, shares []portfolio.Share) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Distribution on %s", on))
	table := md.TableSet{
		Header: []string{"Asset", "Name", "Value", "Share"},
		Rows:   [][]string{},
	}
	for _, s := range shares {
		table.Rows = append(table.Rows, []string{s.Asset.ID, s.Asset.Name, s.Value.String(), s.Percent().String()})
	}
	writeTable(doc, table)
	return doc.String()
}

// LogMarkdown renders the event log. The index column is the one used to
// remove an event.
func LogMarkdown(currency string, events []portfolio.Event) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Events")
	table := md.TableSet{
		Header: []string{"#", "Date", "Action", "Asset", "Count", "Price", "Amount", "Fee", "Memo"},
		Rows:   [][]string{},
	}
	for i, e := range events {
		var cells []string
		switch e := e.(type) {
		case *portfolio.Position:
			cells = []string{
				e.Type().String(),
				e.Asset.ID(),
				e.Count.Abs().String(),
				e.Price.String(),
				portfolio.M(e.Amount(), currency).String(),
				portfolio.M(e.Fee, currency).String(),
				"",
			}
		case *portfolio.Fee:
			cells = []string{"fee", "", "", "", "", portfolio.M(e.Amount, currency).String(), e.Memo}
		}
		table.Rows = append(table.Rows, append([]string{fmt.Sprint(i), e.When().String()}, cells...))
	}
	writeTable(doc, table)
	return doc.String()
}

// AssetsMarkdown renders a list of assets, like catalog search results.
func AssetsMarkdown(title string, assets []portfolio.AssetDescriptor) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(title)
	if len(assets) == 0 {
		doc.PlainText("No asset found.")
		return doc.String()
	}
	table := md.TableSet{
		Header: []string{"ID", "Name", "Ticker", "Exchange", "Type"},
		Rows:   [][]string{},
	}
	for _, a := range assets {
		table.Rows = append(table.Rows, []string{a.ID, a.Name, a.Ticker, a.Exchange, string(a.Kind)})
	}
	writeTable(doc, table)
	return doc.String()
}

// writeTable writes t keeping the header casing, cells are never wrapped.
func writeTable(doc *md.Markdown, t md.TableSet) {
	doc.CustomTable(t, md.TableOptions{AutoWrapText: false, AutoFormatHeaders: false})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
