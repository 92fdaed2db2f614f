package timeseries

import (
	"math"

	"github.com/simaogato/navflow-backend/internal/domain"
)

// DaysPerYear converts a horizon in years to calendar days
const DaysPerYear = 365

// HorizonDays returns floor(years * 365)
func HorizonDays(years float64) int {
	return int(math.Floor(years * DaysPerYear))
}

// RollingReturns computes the annualized trailing return at every date that has a value
// exactly HorizonDays(years) earlier in the continuous series:
//
//	r[i] = (v[i] / v[i-h]) ^ (1/years) - 1
//
// A series with h or fewer points produces an empty result (insufficient data).
// Points whose base value is zero, or whose result is not finite, are excluded.
func RollingReturns(series []domain.SeriesPoint, years float64) []domain.ReturnPoint {
	h := HorizonDays(years)
	if h < 1 || len(series) <= h {
		return []domain.ReturnPoint{}
	}

	exponent := 1 / years
	returns := make([]domain.ReturnPoint, 0, len(series)-h)
	for i := h; i < len(series); i++ {
		base := series[i-h].Value
		if base == 0 {
			continue
		}
		r := math.Pow(series[i].Value/base, exponent) - 1
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		returns = append(returns, domain.ReturnPoint{
			Date:   series[i].Date,
			NAV:    series[i].Value,
			Return: r,
		})
	}

	return returns
}

// Values extracts the return column of a rolling sample
func Values(returns []domain.ReturnPoint) []float64 {
	values := make([]float64, len(returns))
	for i, p := range returns {
		values[i] = p.Return
	}
	return values
}
