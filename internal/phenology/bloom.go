package phenology

import (
	"math"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
)

// HeatResult is the HeatModel's bloom estimate.
type HeatResult struct {
	BloomDate time.Time
	// HeatUnits is the total accumulated over the observed days since start.
	HeatUnits float64
	// Extrapolated is set when the threshold was not reached in the observed
	// data and the date was projected from the recent rate.
	Extrapolated bool
	DailyRate    float64
	// ObservedDays is the number of observations that contributed.
	ObservedDays int
}

// PredictBloomFromHeat accumulates heat units from start (the chill release
// date) over date-sorted observations and returns the day the profile's
// heat_units_to_bloom threshold is crossed.
//
// If the threshold is crossed inside the data the crossing day is returned.
// Otherwise the remaining deficit is divided by the mean rate of the last
// RecentWindowDays observations (MinDailyRate when that is zero or
// unavailable) and the ceiling of that many days is added to the last
// observed date, or to start when there are no observations.
func PredictBloomFromHeat(obs []domain.DailyObservation, p domain.CropProfile, start time.Time) HeatResult {
	window := Between(obs, start, time.Time{})
	values := HeatUnits(window, p.HeatBaseTemp, p.MaxTempCap)
	scan := Scan(values, p.HeatUnitsToBloom)

	res := HeatResult{HeatUnits: scan.Total, ObservedDays: len(window)}
	if scan.Reached {
		res.BloomDate = window[scan.Index].Date
		return res
	}

	res.Extrapolated = true
	res.DailyRate = RecentRate(values, RecentWindowDays)

	last := start
	if len(window) > 0 {
		last = window[len(window)-1].Date
	}
	days := int(math.Ceil((p.HeatUnitsToBloom - scan.Total) / res.DailyRate))
	res.BloomDate = last.AddDate(0, 0, days)
	return res
}
