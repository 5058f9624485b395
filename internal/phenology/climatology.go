package phenology

import (
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
)

// Climatology is a table of mean daily GDD by state and calendar month.
type Climatology map[string][12]float64

// defaultClimatologyKey is used for states without an entry.
const defaultClimatologyKey = "default"

// DefaultClimatology returns regional monthly GDD rates, January first.
func DefaultClimatology() Climatology {
	return Climatology{
		"FL":                  {15, 17, 20, 23, 25, 26, 26, 26, 25, 22, 18, 15},
		"CA":                  {10, 12, 15, 18, 22, 25, 28, 27, 24, 19, 13, 10},
		"TX":                  {12, 14, 18, 22, 26, 28, 30, 30, 27, 22, 16, 12},
		"GA":                  {8, 10, 15, 20, 24, 27, 28, 28, 25, 18, 12, 8},
		"WA":                  {2, 4, 8, 12, 16, 20, 24, 23, 18, 11, 5, 2},
		"MI":                  {0, 2, 6, 12, 18, 22, 25, 24, 18, 10, 4, 0},
		"NY":                  {0, 2, 6, 12, 18, 22, 25, 24, 18, 10, 4, 0},
		"PA":                  {0, 2, 6, 12, 18, 22, 25, 24, 18, 10, 4, 0},
		"NJ":                  {2, 4, 8, 14, 20, 24, 26, 25, 20, 12, 6, 2},
		"OR":                  {2, 4, 8, 12, 16, 20, 24, 23, 18, 11, 5, 2},
		"OH":                  {0, 2, 6, 12, 18, 22, 25, 24, 18, 10, 4, 0},
		"NC":                  {6, 8, 12, 18, 22, 26, 28, 27, 24, 16, 10, 6},
		"SC":                  {8, 10, 14, 20, 24, 27, 28, 28, 25, 18, 12, 8},
		defaultClimatologyKey: {5, 7, 12, 16, 20, 24, 26, 25, 20, 14, 8, 5},
	}
}

// Rate returns the mean daily GDD for state in month.
func (c Climatology) Rate(state string, month time.Month) float64 {
	rates, ok := c[state]
	if !ok {
		rates = c[defaultClimatologyKey]
	}
	return rates[month-1]
}

// Series returns one synthetic daily value per day in [from, to).
func (c Climatology) Series(state string, from, to time.Time) ([]time.Time, []float64) {
	var (
		dates  []time.Time
		values []float64
	)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
		values = append(values, c.Rate(state, d.Month()))
	}
	return dates, values
}

// NormalBandPct is the percent departure from normal still reported as normal.
const NormalBandPct = 10.0

// CompareToNormal measures current GDD against the expected climatological
// total. A non-positive expectation has no meaningful percentage, so the
// season is reported as normal with a zero percent departure.
func CompareToNormal(current, expected float64) domain.SeasonComparison {
	res := domain.SeasonComparison{
		ExpectedGDD:  Round1(expected),
		DeviationGDD: Round1(current - expected),
		Pace:         domain.PaceNormal,
	}
	if expected <= 0 {
		return res
	}
	pct := (current - expected) / expected * 100
	res.DeviationPct = Round1(pct)
	switch {
	case pct > NormalBandPct:
		res.Pace = domain.PaceAhead
	case pct < -NormalBandPct:
		res.Pace = domain.PaceBehind
	}
	return res
}
