package strategy

import (
	talib "github.com/markcheno/go-talib"
)

// EMASeries returns the EMA array of closes aligned with the input.
// Nil when the series is shorter than the period.
func EMASeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}
	return talib.Ema(closes, period)
}

// Pivot is one detected swing point.
type Pivot struct {
	Value float64
	Index int
}

// PivotsHigh finds up to n pivot highs, newest first. A bar is a pivot
// high when it tops the left bars before it and the right bars after
// it, so the last right bars of the series can never qualify.
func PivotsHigh(values []float64, left, right, n int) []Pivot {
	return pivots(values, left, right, n, func(candidate, neighbor float64) bool {
		return candidate > neighbor
	})
}

// PivotsLow finds up to n pivot lows, newest first.
func PivotsLow(values []float64, left, right, n int) []Pivot {
	return pivots(values, left, right, n, func(candidate, neighbor float64) bool {
		return candidate < neighbor
	})
}

func pivots(values []float64, left, right, n int, beats func(candidate, neighbor float64) bool) []Pivot {
	if left < 1 || right < 1 || n < 1 {
		return nil
	}
	found := make([]Pivot, 0, n)
	for i := len(values) - 1 - right; i >= left && len(found) < n; i-- {
		candidate := values[i]
		isPivot := true
		for j := i - left; j <= i+right; j++ {
			if j == i {
				continue
			}
			if !beats(candidate, values[j]) {
				isPivot = false
				break
			}
		}
		if isPivot {
			found = append(found, Pivot{Value: candidate, Index: i})
		}
	}
	return found
}
