// Package rebalance computes the trades that bring a portfolio as close as
// possible to a target distribution.
//
// The problem is solved over integer unit counts: whole units for
// exchange-traded assets and units scaled by FractionalScale for funds, whose
// shares are fractional. The portfolio itself is never modified, callers
// record the resulting trades themselves.
package rebalance

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/assetutils/portfolio"
	"github.com/assetutils/portfolio/date"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidTarget reports a target distribution or a snapshot that cannot be rebalanced.
	ErrInvalidTarget = errors.New("invalid rebalance target")
	// ErrSolverTimeout reports a solver that ran out of budget before finding any solution.
	ErrSolverTimeout = errors.New("rebalance solver timeout")
)

const (
	// FractionalScale is the number of solver units in one fund share.
	FractionalScale = 1_000_000
	// Tolerance is the accepted error on the sum of the target distribution.
	Tolerance = 1e-6
	// deadBand is the smallest trade reported as an action.
	deadBand = 1e-6
	// fractionalDigits is the precision of fund trades.
	fractionalDigits = 5
)

// Action is what to do with an asset.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
	Hold Action = ""
)

// Options tune a rebalance.
type Options struct {
	ExtraCash   decimal.Decimal // ExtraCash is invested on top of the current value.
	NoOverspend bool            // NoOverspend forbids spending more than the target value.
	// MaxIterations caps the NoOverspend search, 0 means DefaultMaxIterations.
	MaxIterations int
	Solver        Solver // Solver defaults to LeastSquares.
}

// Line is the trade computed for one asset.
type Line struct {
	Asset     portfolio.AssetDescriptor
	Price     decimal.Decimal
	Current   portfolio.Quantity
	Target    portfolio.Quantity // Target is the count after rebalancing.
	Delta     portfolio.Quantity // Delta is Target - Current.
	Action    Action
	Magnitude decimal.Decimal // Magnitude is |Delta| rounded to the tradeable precision.

	CurrentPercent    portfolio.Percent
	TargetPercent     portfolio.Percent
	RebalancedPercent portfolio.Percent
}

// String returns a human readable action, like "buy 5".
func (l Line) String() string {
	if l.Action == Hold {
		return "-"
	}
	return fmt.Sprintf("%s %s", l.Action, l.Magnitude)
}

// Plan is the list of trades that rebalances a portfolio.
type Plan struct {
	Date        date.Date
	Value       portfolio.Money // Value is the current portfolio value.
	ExtraCash   portfolio.Money
	TargetValue portfolio.Money // TargetValue is Value + ExtraCash.
	Lines       []Line
}

// Rebalanced returns the value of the portfolio once the plan is executed.
func (p *Plan) Rebalanced() portfolio.Money {
	total := decimal.Zero
	for _, l := range p.Lines {
		total = total.Add(l.Target.Decimal().Mul(l.Price))
	}
	return portfolio.M(total, p.Value.Currency())
}

// Rebalance computes the plan that moves the snapshot holdings toward target.
//
// target[i] is the wanted fraction of the value for snapshot.Holdings[i].
func Rebalance(ctx context.Context, snapshot portfolio.Snapshot, target []float64, opts Options) (*Plan, error) {
	holdings := snapshot.Holdings
	if err := validate(holdings, target, opts); err != nil {
		return nil, err
	}

	value := snapshot.Value()
	targetValue := value.Decimal().Add(opts.ExtraCash)
	if !targetValue.IsPositive() {
		return nil, fmt.Errorf("%w: nothing to invest, target value is %s", ErrInvalidTarget, targetValue)
	}

	tv := targetValue.InexactFloat64()
	pb := Problem{
		Weights:       make([]float64, len(holdings)),
		Target:        target,
		Budget:        opts.NoOverspend,
		MaxIterations: opts.MaxIterations,
	}
	for i, h := range holdings {
		pb.Weights[i] = h.Price.InexactFloat64() / tv
		if h.Asset.Kind.Fractional() {
			pb.Weights[i] /= FractionalScale
		}
	}

	solver := opts.Solver
	if solver == nil {
		solver = LeastSquares{}
	}
	x, err := solver.Solve(ctx, pb)
	if err != nil {
		return nil, err
	}
	if len(x) != len(holdings) {
		return nil, fmt.Errorf("solver returned %d counts for %d assets", len(x), len(holdings))
	}

	plan := &Plan{
		Date:        snapshot.Date,
		Value:       value,
		ExtraCash:   portfolio.M(opts.ExtraCash, snapshot.Currency),
		TargetValue: portfolio.M(targetValue, snapshot.Currency),
	}

	rebalanced := decimal.Zero
	counts := make([]decimal.Decimal, len(holdings))
	for i, h := range holdings {
		counts[i] = decimal.NewFromInt(x[i])
		if h.Asset.Kind.Fractional() {
			counts[i] = counts[i].Div(decimal.NewFromInt(FractionalScale))
		}
		rebalanced = rebalanced.Add(counts[i].Mul(h.Price))
	}

	for i, h := range holdings {
		delta := counts[i].Sub(h.Count.Decimal())
		line := Line{
			Asset:             h.Asset,
			Price:             h.Price,
			Current:           h.Count,
			Target:            portfolio.Q(counts[i]),
			Delta:             portfolio.Q(delta),
			Action:            Hold,
			CurrentPercent:    percent(h.Value(), value.Decimal()),
			TargetPercent:     portfolio.Percent(target[i] * 100),
			RebalancedPercent: percent(counts[i].Mul(h.Price), rebalanced),
		}
		if math.Abs(delta.InexactFloat64()) >= deadBand {
			line.Action = Buy
			if delta.IsNegative() {
				line.Action = Sell
			}
			digits := int32(0)
			if h.Asset.Kind.Fractional() {
				digits = fractionalDigits
			}
			line.Magnitude = delta.Abs().Round(digits)
		}
		plan.Lines = append(plan.Lines, line)
	}
	return plan, nil
}

// validate checks the target against the holdings.
func validate(holdings []portfolio.Holding, target []float64, opts Options) error {
	if len(holdings) == 0 {
		return fmt.Errorf("%w: no asset to rebalance", ErrInvalidTarget)
	}
	if len(target) != len(holdings) {
		return fmt.Errorf("%w: %d targets for %d assets", ErrInvalidTarget, len(target), len(holdings))
	}
	var sum float64
	for i, t := range target {
		if math.IsNaN(t) || t < 0 || t > 1 {
			return fmt.Errorf("%w: target of %s is %v, want a fraction in [0,1]", ErrInvalidTarget, holdings[i].Asset.ID, t)
		}
		sum += t
	}
	if math.Abs(sum-1) > Tolerance {
		return fmt.Errorf("%w: targets sum to %v, want 1", ErrInvalidTarget, sum)
	}
	for _, h := range holdings {
		if !h.Price.IsPositive() {
			return fmt.Errorf("%w: price of %s is %s", ErrInvalidTarget, h.Asset.ID, h.Price)
		}
	}
	if opts.ExtraCash.IsNegative() {
		return fmt.Errorf("%w: extra cash %s is negative", ErrInvalidTarget, opts.ExtraCash)
	}
	return nil
}

// percent returns 100*part/total, or 0 if total is zero.
func percent(part, total decimal.Decimal) portfolio.Percent {
	if total.IsZero() {
		return 0
	}
	return portfolio.Percent(part.Div(total).InexactFloat64() * 100)
}
