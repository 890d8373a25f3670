package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Percent float64

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" {
		return "-"
	}
	return res
}

// PercentChange is a percentage that may be undefined, typically because it
// would divide by zero. Reports carry it per cell instead of failing.
type PercentChange struct {
	Value   Percent
	Defined bool
}

// Undefined is the PercentChange that has no value.
var Undefined = PercentChange{}

// ratio returns 100*num/den, undefined if den is zero.
func ratio(num, den decimal.Decimal) PercentChange {
	if den.IsZero() {
		return Undefined
	}
	v := num.Mul(decimal.NewFromInt(100)).Div(den).InexactFloat64()
	return PercentChange{Value: Percent(v), Defined: true}
}

func (p PercentChange) String() string {
	if !p.Defined {
		return "n/a"
	}
	return p.Value.String()
}

func (p PercentChange) SignedString() string {
	if !p.Defined {
		return "n/a"
	}
	return p.Value.SignedString()
}
