package forecast

import (
	"context"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/phenology"
)

// PredictBloom predicts the bloom date of cropType in regionID for year using
// weather observed up to today (or December 31 for past years).
func (p *Predictor) PredictBloom(ctx context.Context, cropType, regionID string, year int) (domain.BloomPrediction, error) {
	profile, region, err := p.lookup(cropType, regionID)
	if err != nil {
		return domain.BloomPrediction{}, err
	}

	end := domain.Today()
	if yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC); end.After(yearEnd) {
		end = yearEnd
	}

	s := p.loadSeason(ctx, profile, region, year, end)
	pred := p.bloomFromSeason(profile, region.ID, year, s)
	p.recordBloom(pred)
	return pred, nil
}

func (p *Predictor) recordBloom(pred domain.BloomPrediction) {
	p.metrics.Predictions.WithLabelValues(string(domain.KindBloom), string(pred.Confidence)).Inc()
	p.metrics.BloomDataSource.WithLabelValues(string(pred.DataSource)).Inc()
}

// bloomFromSeason runs chill, heat and crosscheck over the loaded season.
func (p *Predictor) bloomFromSeason(profile domain.CropProfile, regionID string, year int, s season) domain.BloomPrediction {
	typical := profile.TypicalBloomDate(year)
	pred := domain.BloomPrediction{
		CropType:         profile.Key,
		RegionID:         regionID,
		Year:             year,
		TypicalBloomDate: typical,
	}
	if s.observedDOY != nil {
		observed := phenology.DateFromDayOfYear(year, *s.observedDOY)
		pred.NPNObservedDate = &observed
	}

	if !s.weatherOK() {
		pred.PredictedBloomDate = typical
		pred.PredictedBloomDOY = phenology.DayOfYear(typical)
		pred.Confidence = domain.ConfidenceLow
		pred.DataSource = domain.SourceFallbackTypical
		return pred
	}

	chill := phenology.AccumulateChill(s.obs, profile, year, time.Time{})
	heatStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if chill.Met {
		heatStart = *chill.MetDate
	}

	heat := phenology.PredictBloomFromHeat(s.obs, profile, heatStart)
	// Dormancy ends at bloom; cold days after it do not count.
	chillHours := phenology.AccumulateChill(s.obs, profile, year, heat.BloomDate).Hours
	blend := phenology.Blend(heat.BloomDate, year, s.observedDOY, len(s.obs))

	pred.PredictedBloomDate = blend.Date
	pred.PredictedBloomDOY = blend.DayOfYear
	pred.DaysFromTypical = phenology.DaysBetween(typical, blend.Date)
	pred.ChillHoursAccumulated = phenology.Round1(chillHours)
	pred.ChillRequirementMet = chill.Met
	pred.HeatUnitsAccumulated = phenology.Round1(heat.HeatUnits)
	pred.Confidence = blend.Confidence
	pred.DataSource = blend.Source

	// An unmet chill requirement means dormancy release is a guess.
	if !chill.Met && blend.Source == domain.SourceCalculated {
		pred.Confidence = domain.ConfidenceLow
	}
	return pred
}
