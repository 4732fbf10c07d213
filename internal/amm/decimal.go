package amm

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// All ledger arithmetic runs at 40 digits of division precision with
// round-half-up semantics (shopspring DivRound rounds half away from zero,
// which is half-up for the non-negative quantities this domain deals in).
const divisionPrecision = 40

// sqrtPrecision gives Newton iterations headroom beyond the layer precision.
const sqrtPrecision = divisionPrecision + 2

func init() {
	decimal.DivisionPrecision = divisionPrecision
}

var (
	basisPoints = decimal.NewFromInt(10000)
	two         = decimal.NewFromInt(2)
)

// Parse converts a textual amount into a decimal, rejecting empty and
// non-finite input. Amounts cross the service boundary as strings so no
// float coercion can lose precision on the way in.
func Parse(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty amount", ErrInvalidInput)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a decimal", ErrInvalidInput, value)
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid, used by tests and seeds.
func MustParse(value string) decimal.Decimal {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Sqrt computes the square root of d by Newton iteration at the layer's
// precision. The operand is rescaled into [1, 100) before iterating, so the
// computation stays well conditioned at any magnitude, including far outside
// float64 range. Negative input is rejected; Sqrt(0) is 0.
func Sqrt(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: square root of negative value %s", ErrInvalidInput, d)
	}
	if d.IsZero() {
		return decimal.Decimal{}, nil
	}

	// d lies in [10^(magnitude-1), 10^magnitude); pulling out 10^(2k) leaves
	// a mantissa in [1, 100) whose root scales back exactly by 10^k.
	magnitude := int32(d.NumDigits()) + d.Exponent()
	k := (magnitude - 1) / 2
	if (magnitude-1)%2 != 0 && magnitude < 1 {
		k--
	}
	mantissa := d.Shift(-2 * k)

	f, _ := mantissa.Float64()
	x := decimal.NewFromFloat(math.Sqrt(f))
	epsilon := decimal.New(1, -divisionPrecision)
	for i := 0; i < 100; i++ {
		next := x.Add(mantissa.DivRound(x, sqrtPrecision)).DivRound(two, sqrtPrecision)
		if next.Sub(x).Abs().LessThanOrEqual(epsilon) {
			return next.Shift(k), nil
		}
		x = next
	}
	return decimal.Decimal{}, fmt.Errorf("square root of %s did not converge", d)
}
