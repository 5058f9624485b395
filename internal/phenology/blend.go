package phenology

import (
	"math"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/montanaflynn/stats"
)

const (
	// AgreementDays is the largest model/observation divergence that counts
	// as agreement.
	AgreementDays = 7
	// BlendDays is the largest divergence resolved by averaging; beyond it
	// the observation overrides the model.
	BlendDays = 14
	// MinObservationDays is the weather history below which a model-only
	// prediction is reported with low confidence.
	MinObservationDays = 30
)

// BlendResult is the reconciled bloom date.
type BlendResult struct {
	Date         time.Time
	DayOfYear    int
	Confidence   domain.Confidence
	Source       domain.DataSource
	ObservedDate *time.Time
}

// Blend reconciles the model's bloom date with an externally observed median
// day of year. observedDOY is nil when no observation is available;
// weatherDays is the number of observations behind the model date.
//
// Policy, in order:
//   - no observation: model date, medium confidence (low under MinObservationDays)
//   - |Δ| <= AgreementDays: model date, high confidence
//   - |Δ| <= BlendDays: mean day of year in the prediction year, medium
//   - otherwise: observed date, medium, source npn_observed
func Blend(modelDate time.Time, year int, observedDOY *int, weatherDays int) BlendResult {
	modelDOY := DayOfYear(modelDate)
	res := BlendResult{
		Date:      modelDate,
		DayOfYear: modelDOY,
		Source:    domain.SourceCalculated,
	}

	if observedDOY == nil {
		res.Confidence = domain.ConfidenceMedium
		if weatherDays < MinObservationDays {
			res.Confidence = domain.ConfidenceLow
		}
		return res
	}

	obs := *observedDOY
	observed := DateFromDayOfYear(year, obs)
	res.ObservedDate = &observed

	diff := modelDOY - obs
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff <= AgreementDays:
		res.Confidence = domain.ConfidenceHigh
	case diff <= BlendDays:
		mean := int(math.Round(float64(modelDOY+obs) / 2))
		res.Date = DateFromDayOfYear(year, mean)
		res.DayOfYear = DayOfYear(res.Date)
		res.Confidence = domain.ConfidenceMedium
	default:
		res.Date = observed
		res.DayOfYear = DayOfYear(observed)
		res.Confidence = domain.ConfidenceMedium
		res.Source = domain.SourceNPNObserved
	}
	return res
}

// MedianObservedDOY returns the rounded median day of year of the positive
// observations, or nil when there are none.
func MedianObservedDOY(observations []domain.BloomObservation) *int {
	var days stats.Float64Data
	for _, o := range observations {
		if o.Positive() && o.DayOfYear > 0 {
			days = append(days, float64(o.DayOfYear))
		}
	}
	if len(days) == 0 {
		return nil
	}
	median, err := days.Median()
	if err != nil {
		return nil
	}
	doy := int(math.Round(median))
	return &doy
}
