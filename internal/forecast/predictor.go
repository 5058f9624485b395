// Package forecast assembles bloom, harvest and quality predictions from the
// phenology models and the external weather and phenology-network sources.
//
// External failures never fail a prediction: the weather source falling over
// degrades bloom to the crop's typical date and harvest to regional
// climatology, and the network crosscheck is simply skipped. Only an unknown
// crop or region is returned as an error.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/observability"
	"github.com/couchcryptid/crop-phenology-service/internal/phenology"
	"golang.org/x/sync/errgroup"
)

// MaxClimatologyConfidence caps harvest confidence when GDD comes from
// climatology or bloom fell back to the typical date.
const MaxClimatologyConfidence = 0.5

// Predictor computes predictions. It holds no mutable state and is safe for
// concurrent use.
type Predictor struct {
	weather  domain.WeatherSource
	network  domain.PhenologyNetwork
	regions  domain.RegionLocator
	profiles *domain.ProfileRegistry
	climate  phenology.Climatology
	radiusKm float64
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Predictor. Pass a nil network to disable the crosscheck.
func New(
	weather domain.WeatherSource,
	network domain.PhenologyNetwork,
	regions domain.RegionLocator,
	profiles *domain.ProfileRegistry,
	radiusKm float64,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Predictor {
	return &Predictor{
		weather:  weather,
		network:  network,
		regions:  regions,
		profiles: profiles,
		climate:  phenology.DefaultClimatology(),
		radiusKm: radiusKm,
		metrics:  metrics,
		logger:   logger,
	}
}

// Profiles returns the crop profile registry the predictor was built with.
func (p *Predictor) Profiles() *domain.ProfileRegistry {
	return p.profiles
}

// season is the external data gathered for one (crop, region, year).
type season struct {
	obs         []domain.DailyObservation
	weatherErr  error
	observedDOY *int
}

// weatherOK reports whether there is any weather to model from.
func (s season) weatherOK() bool {
	return s.weatherErr == nil && len(s.obs) > 0
}

// loadSeason fetches weather from the start of dormancy through end and, when
// enabled for the crop, the network's bloom observations. The two fetches run
// concurrently and their failures are recorded rather than returned.
func (p *Predictor) loadSeason(ctx context.Context, profile domain.CropProfile, region domain.Region, year int, end time.Time) season {
	var (
		s  season
		g  errgroup.Group
		lg = p.logger.With("crop_type", profile.Key, "region_id", region.ID, "year", year)
	)

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if profile.ChillHoursRequired > 0 {
		start = profile.ChillStart(year)
	}

	if !end.Before(start) {
		g.Go(func() error {
			obs, err := p.weather.DailyObservations(ctx, region.ID, start, end)
			if err != nil {
				lg.Warn("weather fetch failed, degrading prediction", "error", err)
				s.weatherErr = err
				return nil
			}
			s.obs = obs
			return nil
		})
	}

	if p.network != nil && profile.NetworkSpeciesID != 0 {
		g.Go(func() error {
			observations, err := p.network.BloomObservations(ctx, profile.NetworkSpeciesID, year, region.Lat, region.Lon, p.radiusKm)
			if err != nil {
				lg.Warn("phenology network fetch failed, continuing without crosscheck", "error", err)
				return nil
			}
			s.observedDOY = phenology.MedianObservedDOY(observations)
			return nil
		})
	}

	_ = g.Wait()
	return s
}

func (p *Predictor) lookup(cropType, regionID string) (domain.CropProfile, domain.Region, error) {
	profile, err := p.profiles.Lookup(cropType)
	if err != nil {
		return domain.CropProfile{}, domain.Region{}, err
	}
	region, err := p.regions.Region(regionID)
	if err != nil {
		return domain.CropProfile{}, domain.Region{}, err
	}
	return profile, region, nil
}

// PredictQuality evaluates the sugar and acid curves at gdd.
func (p *Predictor) PredictQuality(cropType string, gdd float64) (domain.QualityCurveResult, error) {
	profile, err := p.profiles.Lookup(cropType)
	if err != nil {
		return domain.QualityCurveResult{}, err
	}
	if math.IsNaN(gdd) || math.IsInf(gdd, 0) || gdd < 0 {
		return domain.QualityCurveResult{}, fmt.Errorf("gdd must be finite and >= 0, got %v", gdd)
	}
	res := phenology.PredictQuality(gdd, profile)
	p.metrics.Predictions.WithLabelValues(string(domain.KindQuality), string(tier(res.Confidence))).Inc()
	return res, nil
}

// tier buckets a numeric confidence for metric labels.
func tier(c float64) domain.Confidence {
	switch {
	case c >= 0.8:
		return domain.ConfidenceHigh
	case c >= 0.6:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
