package phenology

import (
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
)

const (
	// FullChillDay is credited for a day whose average is at or below the threshold.
	FullChillDay = 18.0
	// MaxPartialChill caps the credit for a day where only the low dips below.
	MaxPartialChill = 12.0
)

// ChillHours estimates the hours at or below threshold for one day from its
// daily extremes. There is no hourly data, so this is a heuristic: a cold day
// counts FullChillDay hours; a day that only dips below the threshold is
// credited with the fraction of the diurnal range below it, capped at
// MaxPartialChill.
func ChillHours(o domain.DailyObservation, threshold float64) float64 {
	if o.Average() <= threshold {
		return FullChillDay
	}
	if o.TempLow >= threshold || o.TempHigh <= o.TempLow {
		return 0
	}
	return min(MaxPartialChill, 24*(threshold-o.TempLow)/(o.TempHigh-o.TempLow))
}

// ChillResult summarizes dormancy accumulation for one season.
type ChillResult struct {
	Hours float64
	Met   bool
	// MetDate is the day the requirement was satisfied; nil when not met.
	MetDate *time.Time
	// Skipped is set for crops with no chill requirement.
	Skipped bool
}

// AccumulateChill sums chill hours over date-sorted observations from the
// profile's chill start for the bloom year through end. A zero end, or one
// past the dormancy season, stops at the day before the next season's chill
// start. Crops without a chill requirement skip the model and are treated as
// released on January 1.
func AccumulateChill(obs []domain.DailyObservation, p domain.CropProfile, year int, end time.Time) ChillResult {
	if p.ChillHoursRequired <= 0 {
		jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return ChillResult{Met: true, MetDate: &jan1, Skipped: true}
	}

	seasonEnd := p.ChillStart(year + 1).AddDate(0, 0, -1)
	if end.IsZero() || end.After(seasonEnd) {
		end = seasonEnd
	}
	window := Between(obs, p.ChillStart(year), end)
	values := make([]float64, len(window))
	for i, o := range window {
		values[i] = ChillHours(o, p.ChillThreshold)
	}

	scan := Scan(values, p.ChillHoursRequired)
	res := ChillResult{Hours: scan.Total, Met: scan.Reached}
	if scan.Reached {
		d := window[scan.Index].Date
		res.MetDate = &d
	}
	return res
}
