package trading

import (
	"math/rand/v2"
	"time"
)

// NewMagicNumber mints a magic number for a fresh order: minute-of-year
// in the high digits for rough traceability, random tail to keep two
// orders in the same minute apart.
func NewMagicNumber(now time.Time) int {
	minuteOfYear := now.UTC().YearDay()*1440 + now.UTC().Hour()*60 + now.UTC().Minute()
	return minuteOfYear*1000 + rand.IntN(1000)
}
