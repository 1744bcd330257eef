package brackets

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Bracket is a rate band over [Min, Max]. A nil Max leaves the band open at
// the top.
type Bracket struct {
	Name        string
	Min         decimal.Decimal
	Max         *decimal.Decimal
	RatePercent decimal.Decimal
}

func (b Bracket) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(b.Min) {
		return false
	}
	return b.Max == nil || amount.LessThanOrEqual(*b.Max)
}

func (b Bracket) Validate() error {
	if b.Min.IsNegative() {
		return fmt.Errorf("bracket %q: min must be non-negative", b.Name)
	}
	if b.RatePercent.IsNegative() || b.RatePercent.GreaterThan(hundred) {
		return fmt.Errorf("bracket %q: rate out of range: %s", b.Name, b.RatePercent)
	}
	if b.Max != nil && b.Max.LessThan(b.Min) {
		return fmt.Errorf("bracket %q: max must be >= min", b.Name)
	}
	return nil
}

// Select returns the bracket containing amount. When bands overlap the one
// with the highest Min wins.
func Select(list []Bracket, amount decimal.Decimal) (Bracket, bool) {
	if len(list) == 0 {
		return Bracket{}, false
	}
	sorted := make([]Bracket, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min.GreaterThan(sorted[j].Min) })
	for _, b := range sorted {
		if b.Contains(amount) {
			return b, true
		}
	}
	return Bracket{}, false
}

// PercentOf returns amount * percent / 100 rounded half-up to cents.
func PercentOf(amount decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	if amount.IsZero() || percent.IsZero() {
		return decimal.Zero
	}
	return Round2(amount.Mul(percent).Div(hundred))
}

// Apply selects the matching bracket and charges its rate on amount. No
// matching bracket charges nothing.
func Apply(list []Bracket, amount decimal.Decimal) decimal.Decimal {
	b, ok := Select(list, amount)
	if !ok {
		return decimal.Zero
	}
	return PercentOf(amount, b.RatePercent)
}

func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
