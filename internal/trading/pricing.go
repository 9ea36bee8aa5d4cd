package trading

import (
	"math"

	"github.com/shopspring/decimal"
)

// Price math runs through decimal so 5-digit quotes never pick up
// float residue (0.1 + 0.2 style) on their way into a command payload.

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

// AddPips moves price up by n pips of size pip.
func AddPips(price, pip, n float64) float64 {
	return decToFloat(decFromFloat(price).Add(decFromFloat(pip).Mul(decFromFloat(n))))
}

// SubPips moves price down by n pips of size pip.
func SubPips(price, pip, n float64) float64 {
	return decToFloat(decFromFloat(price).Sub(decFromFloat(pip).Mul(decFromFloat(n))))
}

// PipDistance returns |a-b| expressed in pips, 0 when pip is not positive.
func PipDistance(a, b, pip float64) float64 {
	if pip <= 0 {
		return 0
	}
	diff := decFromFloat(a).Sub(decFromFloat(b)).Abs()
	return decToFloat(diff.Div(decFromFloat(pip)))
}

// RoundToDigits quantizes price to the instrument digit count.
func RoundToDigits(price float64, digits int) float64 {
	if digits < 0 {
		return price
	}
	return decToFloat(decFromFloat(price).Round(int32(digits)))
}

// BreakEvenStop is the stop that locks a filled order at entry: one pip
// past the open price, on the profitable side, to absorb the spread.
func BreakEvenStop(o Order, pip float64) float64 {
	if o.Type.Buy() {
		return AddPips(o.Price, pip, 1)
	}
	return SubPips(o.Price, pip, 1)
}

// NormalizeLots clamps lots down to the broker volume step.
func NormalizeLots(lots, step float64) float64 {
	if step <= 0 {
		return lots
	}
	d := decFromFloat(lots).Div(decFromFloat(step)).Floor()
	return decToFloat(d.Mul(decFromFloat(step)))
}
