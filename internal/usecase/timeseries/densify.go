// Package timeseries turns sparse NAV observations into a continuous daily series
// and computes trailing rolling returns over it.
package timeseries

import (
	"slices"

	"github.com/simaogato/navflow-backend/internal/domain"
)

// Densify returns one point per calendar day from the first to the last input date.
// Days without an observation carry the previous day's value forward.
//
// Input is expected ascending, which is how the Series Store returns it; unsorted input
// is sorted into a copy first. When a date repeats, the later point wins. Empty input
// yields an empty series.
func Densify(points []domain.ValuationPoint) []domain.SeriesPoint {
	if len(points) == 0 {
		return []domain.SeriesPoint{}
	}

	if !slices.IsSortedFunc(points, compareDates) {
		points = slices.Clone(points)
		slices.SortStableFunc(points, compareDates)
	}

	first, last := points[0].Date, points[len(points)-1].Date
	series := make([]domain.SeriesPoint, 0, last.DaysSince(first)+1)

	next := 0
	var current float64
	for day := first; !day.After(last); day = day.AddDays(1) {
		// Consume the observations for this day, if any
		for next < len(points) && !points[next].Date.After(day) {
			current = points[next].NAV.InexactFloat64()
			next++
		}
		series = append(series, domain.SeriesPoint{Date: day, Value: current})
	}

	return series
}

func compareDates(a, b domain.ValuationPoint) int {
	switch {
	case a.Date.Before(b.Date):
		return -1
	case a.Date.After(b.Date):
		return 1
	}
	return 0
}
