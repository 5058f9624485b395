package phenology

import (
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
)

// HeatUnit returns one day's heat accumulation above base. When maxCap is
// non-nil the high is clamped to it before averaging (the modified 86/50
// method). The result is never negative.
func HeatUnit(high, low, base float64, maxCap *float64) float64 {
	if maxCap != nil && high > *maxCap {
		high = *maxCap
	}
	avg := (high + low) / 2
	if avg <= base {
		return 0
	}
	return avg - base
}

// HeatUnits maps observations to per-day heat units.
func HeatUnits(obs []domain.DailyObservation, base float64, maxCap *float64) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = HeatUnit(o.TempHigh, o.TempLow, base, maxCap)
	}
	return out
}

// Between returns the date-sorted observations whose date lies in
// [start, end]. A zero end means no upper bound.
func Between(obs []domain.DailyObservation, start, end time.Time) []domain.DailyObservation {
	lo := len(obs)
	for i, o := range obs {
		if !o.Date.Before(start) {
			lo = i
			break
		}
	}
	hi := len(obs)
	if !end.IsZero() {
		for hi > lo && obs[hi-1].Date.After(end) {
			hi--
		}
	}
	return obs[lo:hi]
}
