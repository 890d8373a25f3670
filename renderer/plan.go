package renderer

import (
	"bytes"
	"fmt"

	"github.com/assetutils/portfolio/rebalance"
	md "github.com/nao1215/markdown"
)

// PlanMarkdown renders a rebalance plan: the trades first, then the
// distribution before and after.
func PlanMarkdown(p *rebalance.Plan) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Rebalance on %s", p.Date))
	writeTable(doc, md.TableSet{
		Header: []string{md.Bold("Target Value"), md.Bold(p.TargetValue.String())},
		Rows: [][]string{
			{"Current Value", p.Value.String()},
			{"Extra Cash", p.ExtraCash.String()},
			{"Rebalanced Value", p.Rebalanced().String()},
		},
	})

	doc.H2("Trades")
	trades := md.TableSet{
		Header: []string{"Asset", "Price", "Current", "Target", "Action"},
		Rows:   [][]string{},
	}
	for _, l := range p.Lines {
		trades.Rows = append(trades.Rows, []string{
			l.Asset.Label(),
			l.Price.String(),
			l.Current.String(),
			l.Target.String(),
			md.Bold(l.String()),
		})
	}
	writeTable(doc, trades)

	doc.H2("Distribution")
	dist := md.TableSet{
		Header: []string{"Asset", "Current", "Target", "Rebalanced"},
		Rows:   [][]string{},
	}
	for _, l := range p.Lines {
		dist.Rows = append(dist.Rows, []string{
			l.Asset.Label(),
			l.CurrentPercent.String(),
			l.TargetPercent.String(),
			l.RebalancedPercent.String(),
		})
	}
	writeTable(doc, dist)
	return doc.String()
}
