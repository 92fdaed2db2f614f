package domain

import (
	"github.com/shopspring/decimal"
)

// ValuationPoint is one observed NAV of a scheme on a calendar day.
// At most one point exists per (scheme code, date) in the Series Store.
type ValuationPoint struct {
	Date Date
	NAV  decimal.Decimal // Non-negative per-unit value
}

// SeriesPoint is one day of a continuous (gap-free) daily series
type SeriesPoint struct {
	Date  Date
	Value float64
}

// ReturnPoint is the annualized trailing return observed on Date.
// NAV is the series value on that same day.
type ReturnPoint struct {
	Date   Date
	NAV    float64
	Return float64
}
