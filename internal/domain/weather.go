package domain

import (
	"context"
	"time"
)

// DailyObservation is one calendar day of weather for a region.
// Temperatures are degrees Fahrenheit, precipitation is inches.
type DailyObservation struct {
	Date          time.Time `json:"date"`
	TempHigh      float64   `json:"temp_high"`
	TempLow       float64   `json:"temp_low"`
	TempAvg       *float64  `json:"temp_avg,omitempty"`
	Precipitation *float64  `json:"precipitation,omitempty"`
}

// Average returns the reported daily mean, or the high/low midpoint when the
// source did not provide one.
func (o DailyObservation) Average() float64 {
	if o.TempAvg != nil {
		return *o.TempAvg
	}
	return (o.TempHigh + o.TempLow) / 2
}

// WeatherSource provides historical (and possibly forecast) daily weather.
type WeatherSource interface {
	// DailyObservations returns observations for regionID between start and end
	// inclusive, ordered by date. Days with missing sensor data may be omitted.
	DailyObservations(ctx context.Context, regionID string, start, end time.Time) ([]DailyObservation, error)
}

// BloomObservation is a single phenology-network report for a species.
type BloomObservation struct {
	DayOfYear int `json:"day_of_year"`
	// Status is 1 when the phenophase was observed, 0 when it was absent and
	// -1 when the observer was uncertain.
	Status int `json:"phenophase_status"`
}

// Positive reports whether the observer saw the phenophase.
func (o BloomObservation) Positive() bool { return o.Status == 1 }

// PhenologyNetwork queries crowd-observed bloom reports.
type PhenologyNetwork interface {
	BloomObservations(ctx context.Context, speciesID, year int, lat, lon, radiusKm float64) ([]BloomObservation, error)
}

// Region is a named growing region with a representative coordinate.
type Region struct {
	ID    string  `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	State string  `json:"state" yaml:"state"`
	Lat   float64 `json:"lat" yaml:"lat"`
	Lon   float64 `json:"lon" yaml:"lon"`
}

// RegionLocator resolves a region ID to its coordinates.
type RegionLocator interface {
	Region(regionID string) (Region, error)
}
