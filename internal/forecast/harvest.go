package forecast

import (
	"context"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/phenology"
)

// PredictHarvest predicts the harvest status of cropType in regionID for the
// season that blooms in year, as of asOf (today when zero). GDD is
// accumulated from the predicted bloom date; when weather is unavailable the
// regional climatology stands in for it.
func (p *Predictor) PredictHarvest(ctx context.Context, cropType, regionID string, year int, asOf time.Time) (domain.HarvestPrediction, error) {
	profile, region, err := p.lookup(cropType, regionID)
	if err != nil {
		return domain.HarvestPrediction{}, err
	}
	if asOf.IsZero() {
		asOf = domain.Today()
	}
	asOf = domain.DateOf(asOf)

	s := p.loadSeason(ctx, profile, region, year, asOf)
	bloom := p.bloomFromSeason(profile, region.ID, year, s)
	bloomDate := bloom.PredictedBloomDate

	var (
		dates  []time.Time
		values []float64
		source = domain.SourceCalculated
	)
	if s.weatherOK() {
		window := phenology.Between(s.obs, bloomDate, asOf)
		values = phenology.HeatUnits(window, profile.BaseTemp, profile.MaxTempCap)
		dates = make([]time.Time, len(window))
		for i, o := range window {
			dates[i] = o.Date
		}
	} else {
		source = domain.SourceClimatology
		dates, values = p.climate.Series(region.State, bloomDate, asOf.AddDate(0, 0, 1))
	}

	rate := phenology.RecentRate(values, phenology.RecentWindowDays)
	projectFrom := asOf
	if len(values) == 0 {
		// Bloom has not happened yet; project from bloom at the climatological rate.
		rate = max(p.climate.Rate(region.State, bloomDate.Month()), phenology.MinDailyRate)
		if bloomDate.After(asOf) {
			projectFrom = bloomDate
		}
	}

	th := phenology.ThresholdsFor(profile)
	total := phenology.Scan(values, th.Maturity).Total
	cls := phenology.ClassifyHarvest(total, th, rate)
	windows := phenology.ProjectWindows(dates, values, th, projectFrom, rate)

	confidence := cls.Confidence
	if source == domain.SourceClimatology || bloom.DataSource == domain.SourceFallbackTypical {
		confidence = min(confidence, MaxClimatologyConfidence)
	}

	pred := domain.HarvestPrediction{
		CropType:           profile.Key,
		RegionID:           region.ID,
		Year:               year,
		BloomDate:          bloomDate,
		AsOf:               asOf,
		CurrentGDD:         phenology.Round1(total),
		GDDToMaturity:      th.Maturity,
		GDDToPeak:          th.Peak,
		PercentToMaturity:  cls.PercentToMaturity,
		PercentToPeak:      cls.PercentToPeak,
		Status:             cls.Status,
		DaysToHarvest:      cls.DaysToHarvest,
		DaysToPeak:         cls.DaysToPeak,
		HarvestWindowStart: windows.HarvestStart,
		HarvestWindowEnd:   windows.HarvestEnd,
		PeakWindowStart:    windows.PeakStart,
		PeakWindowEnd:      windows.PeakEnd,
		Confidence:         confidence,
		DataSource:         source,
	}
	if source == domain.SourceCalculated && len(values) > 0 {
		_, normal := p.climate.Series(region.State, dates[0], dates[len(dates)-1].AddDate(0, 0, 1))
		var expected float64
		for _, v := range normal {
			expected += v
		}
		vs := phenology.CompareToNormal(total, expected)
		pred.VsNormal = &vs
	}
	p.metrics.Predictions.WithLabelValues(string(domain.KindHarvest), string(tier(confidence))).Inc()
	return pred, nil
}
