package main

import (
	"context"
	"math"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/phenology"
)

// climatologyBase is the base temperature the climatology rates are quoted at.
const climatologyBase = 50.0

// synthesize produces one observation per day in [start, end].
func synthesize(c phenology.Climatology, state string, start, end time.Time, amplitude, halfRange float64) []domain.DailyObservation {
	var out []domain.DailyObservation
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		doy := float64(phenology.DayOfYear(d))
		winter := math.Max(0, math.Cos(2*math.Pi*(doy-15)/365))
		avg := climatologyBase + c.Rate(state, d.Month()) - amplitude*winter
		avg = math.Round(avg*10) / 10

		mean := avg
		out = append(out, domain.DailyObservation{
			Date:     d,
			TempHigh: avg + halfRange,
			TempLow:  avg - halfRange,
			TempAvg:  &mean,
		})
	}
	return out
}

// staticWeather serves a fixed set of observations.
type staticWeather []domain.DailyObservation

func (w staticWeather) DailyObservations(_ context.Context, _ string, start, end time.Time) ([]domain.DailyObservation, error) {
	return phenology.Between(w, start, end), nil
}
