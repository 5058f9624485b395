package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/observability"
	"github.com/couchcryptid/crop-phenology-service/internal/phenology"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticWeather generates one observation per day from temps.
type syntheticWeather struct {
	temps func(d time.Time) (high, low float64)
	err   error
	calls atomic.Int32
}

func (w *syntheticWeather) DailyObservations(_ context.Context, _ string, start, end time.Time) ([]domain.DailyObservation, error) {
	w.calls.Add(1)
	if w.err != nil {
		return nil, w.err
	}
	var out []domain.DailyObservation
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		high, low := w.temps(d)
		out = append(out, domain.DailyObservation{Date: d, TempHigh: high, TempLow: low})
	}
	return out, nil
}

type staticNetwork struct {
	doys  []int
	err   error
	calls atomic.Int32
}

func (n *staticNetwork) BloomObservations(context.Context, int, int, float64, float64, float64) ([]domain.BloomObservation, error) {
	n.calls.Add(1)
	if n.err != nil {
		return nil, n.err
	}
	out := make([]domain.BloomObservation, len(n.doys))
	for i, doy := range n.doys {
		out[i] = domain.BloomObservation{DayOfYear: doy, Status: 1}
	}
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
}

// coldThenWarm is 18 chill hours a day through January, then 10 apple heat
// units a day.
func coldThenWarm(d time.Time) (float64, float64) {
	if d.Before(date(2024, time.February, 1)) {
		return 40, 30
	}
	return 63, 43
}

func alwaysWarm(time.Time) (float64, float64) { return 63, 43 }

// tenGDD gives 10 GDD a day over a base of 50.
func tenGDD(time.Time) (float64, float64) { return 70, 50 }

func testRegistry(t *testing.T) *domain.ProfileRegistry {
	t.Helper()
	reg, err := domain.NewProfileRegistry(domain.CropProfile{
		Key: "testcrop", Name: "Test Crop",
		BaseTemp: 50, HeatBaseTemp: 50, HeatUnitsToBloom: 100,
		TypicalBloomMonth: time.April, TypicalBloomDay: 1,
		GDDToMaturity: 1000, GDDToPeak: 1200, GDDWindow: 400,
		Quality: domain.QualityCurve{BrixMin: 8, BrixMax: 18},
	})
	require.NoError(t, err)
	return reg
}

func newPredictor(weather domain.WeatherSource, network domain.PhenologyNetwork, profiles *domain.ProfileRegistry) *Predictor {
	if profiles == nil {
		profiles = domain.DefaultProfiles()
	}
	return New(weather, network, domain.DefaultRegions(), profiles, 100, observability.NewMetricsForTesting(), discardLogger())
}

func TestPredictBloom_UnknownInputs(t *testing.T) {
	p := newPredictor(&syntheticWeather{temps: alwaysWarm}, nil, nil)

	_, err := p.PredictBloom(context.Background(), "banana", "georgia_peach", 2024)
	require.ErrorIs(t, err, domain.ErrMissingProfile)

	_, err = p.PredictBloom(context.Background(), "apple", "atlantis", 2024)
	require.ErrorIs(t, err, domain.ErrUnknownRegion)
}

func TestPredictBloom_NoChillCrop(t *testing.T) {
	freezeClock(t, date(2024, time.June, 1))
	// Orange heat base is 55, so 75/55 gives 10 a day toward 250.
	weather := &syntheticWeather{temps: func(time.Time) (float64, float64) { return 75, 55 }}
	p := newPredictor(weather, &staticNetwork{doys: []int{1}}, nil)

	pred, err := p.PredictBloom(context.Background(), "citrus_orange", "indian_river", 2024)
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.January, 25), pred.PredictedBloomDate)
	assert.Equal(t, 25, pred.PredictedBloomDOY)
	assert.True(t, pred.ChillRequirementMet)
	assert.Equal(t, domain.ConfidenceMedium, pred.Confidence)
	assert.Equal(t, domain.SourceCalculated, pred.DataSource)
	assert.Equal(t, date(2024, time.March, 15), pred.TypicalBloomDate)
	assert.Equal(t, -50, pred.DaysFromTypical)
	assert.Nil(t, pred.NPNObservedDate, "crosscheck disabled for crops without a species id")
}

func TestPredictBloom_ChillThenHeat(t *testing.T) {
	freezeClock(t, date(2024, time.June, 1))

	tests := []struct {
		name       string
		network    *staticNetwork
		wantDate   time.Time
		wantConf   domain.Confidence
		wantSource domain.DataSource
	}{
		{
			name:       "no crosscheck",
			wantDate:   date(2024, time.March, 11),
			wantConf:   domain.ConfidenceMedium,
			wantSource: domain.SourceCalculated,
		},
		{
			name:       "network agrees",
			network:    &staticNetwork{doys: []int{70, 72, 74}},
			wantDate:   date(2024, time.March, 11),
			wantConf:   domain.ConfidenceHigh,
			wantSource: domain.SourceCalculated,
		},
		{
			name:       "network disagrees moderately",
			network:    &staticNetwork{doys: []int{80}},
			wantDate:   date(2024, time.March, 16),
			wantConf:   domain.ConfidenceMedium,
			wantSource: domain.SourceCalculated,
		},
		{
			name:       "network overrides",
			network:    &staticNetwork{doys: []int{90}},
			wantDate:   date(2024, time.March, 31),
			wantConf:   domain.ConfidenceMedium,
			wantSource: domain.SourceNPNObserved,
		},
		{
			name:       "network failure is ignored",
			network:    &staticNetwork{err: errors.New("timeout")},
			wantDate:   date(2024, time.March, 11),
			wantConf:   domain.ConfidenceMedium,
			wantSource: domain.SourceCalculated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var network domain.PhenologyNetwork
			if tt.network != nil {
				network = tt.network
			}
			p := newPredictor(&syntheticWeather{temps: coldThenWarm}, network, nil)

			pred, err := p.PredictBloom(context.Background(), "apple", "michigan_west", 2024)
			require.NoError(t, err)

			assert.Equal(t, tt.wantDate, pred.PredictedBloomDate)
			assert.Equal(t, tt.wantConf, pred.Confidence)
			assert.Equal(t, tt.wantSource, pred.DataSource)
			assert.True(t, pred.ChillRequirementMet)
			assert.GreaterOrEqual(t, pred.ChillHoursAccumulated, 1000.0)
			assert.GreaterOrEqual(t, pred.HeatUnitsAccumulated, 400.0)
			if tt.network != nil {
				assert.Equal(t, int32(1), tt.network.calls.Load())
			}
		})
	}
}

func TestPredictBloom_ChillNotMet(t *testing.T) {
	freezeClock(t, date(2024, time.June, 1))
	p := newPredictor(&syntheticWeather{temps: alwaysWarm}, nil, nil)

	pred, err := p.PredictBloom(context.Background(), "apple", "georgia_piedmont", 2024)
	require.NoError(t, err)

	assert.False(t, pred.ChillRequirementMet)
	assert.Less(t, pred.ChillHoursAccumulated, 1000.0)
	// Heat counts from January 1 when dormancy never released.
	assert.Equal(t, date(2024, time.February, 9), pred.PredictedBloomDate)
	assert.Equal(t, domain.ConfidenceLow, pred.Confidence)
	assert.Equal(t, domain.SourceCalculated, pred.DataSource)
}

func TestPredictBloom_WeatherUnavailable(t *testing.T) {
	freezeClock(t, date(2024, time.June, 1))

	tests := []struct {
		name    string
		weather *syntheticWeather
	}{
		{"error", &syntheticWeather{err: errors.New("status 503")}},
		{"empty", &syntheticWeather{temps: alwaysWarm}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPredictor(tt.weather, nil, nil)
			year := 2024
			if tt.name == "empty" {
				// A season that has not started yet has no weather.
				year = 2026
			}

			pred, err := p.PredictBloom(context.Background(), "peach", "georgia_peach", year)
			require.NoError(t, err)

			assert.Equal(t, date(year, time.March, 15), pred.PredictedBloomDate)
			assert.Equal(t, pred.TypicalBloomDate, pred.PredictedBloomDate)
			assert.Zero(t, pred.DaysFromTypical)
			assert.Equal(t, domain.ConfidenceLow, pred.Confidence)
			assert.Equal(t, domain.SourceFallbackTypical, pred.DataSource)
		})
	}
}

func TestPredictBloom_PastYearStopsAtYearEnd(t *testing.T) {
	freezeClock(t, date(2025, time.August, 1))
	var lastEnd time.Time
	var mu sync.Mutex
	weather := &syntheticWeather{temps: func(d time.Time) (float64, float64) {
		mu.Lock()
		if d.After(lastEnd) {
			lastEnd = d
		}
		mu.Unlock()
		return 75, 55
	}}
	p := newPredictor(weather, nil, nil)

	_, err := p.PredictBloom(context.Background(), "citrus_orange", "indian_river", 2023)
	require.NoError(t, err)
	assert.Equal(t, date(2023, time.December, 31), lastEnd)
}

func TestPredictBloom_PastYearChillStopsAtBloom(t *testing.T) {
	freezeClock(t, date(2026, time.March, 1))
	// Dormancy through January, no chill during the growing season, then
	// the next winter starts in November.
	weather := &syntheticWeather{temps: func(d time.Time) (float64, float64) {
		if d.Before(date(2024, time.February, 1)) || !d.Before(date(2024, time.November, 1)) {
			return 40, 30
		}
		return 65, 45
	}}
	p := newPredictor(weather, nil, nil)

	pred, err := p.PredictBloom(context.Background(), "apple", "michigan_west", 2024)
	require.NoError(t, err)

	assert.True(t, pred.ChillRequirementMet)
	assert.True(t, pred.PredictedBloomDate.Before(date(2024, time.May, 1)))
	// November 2023 through January 2024 only.
	assert.InDelta(t, 92*phenology.FullChillDay, pred.ChillHoursAccumulated, 1e-9)
}

func TestPredictBloom_Concurrent(t *testing.T) {
	freezeClock(t, date(2024, time.June, 1))
	weather := &syntheticWeather{temps: coldThenWarm}
	p := newPredictor(weather, &staticNetwork{doys: []int{71}}, nil)

	var wg sync.WaitGroup
	results := make([]domain.BloomPrediction, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pred, err := p.PredictBloom(context.Background(), "apple", "michigan_west", 2024)
			assert.NoError(t, err)
			results[i] = pred
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.Equal(t, int32(8), weather.calls.Load())
}

func TestPredictHarvest_FromObservedWeather(t *testing.T) {
	p := newPredictor(&syntheticWeather{temps: tenGDD}, nil, testRegistry(t))

	pred, err := p.PredictHarvest(context.Background(), "testcrop", "georgia_peach", 2024, date(2024, time.March, 31))
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.January, 10), pred.BloomDate)
	assert.Equal(t, date(2024, time.March, 31), pred.AsOf)
	assert.InDelta(t, 820.0, pred.CurrentGDD, 1e-9)
	assert.InDelta(t, 82.0, pred.PercentToMaturity, 1e-9)
	assert.InDelta(t, 68.3, pred.PercentToPeak, 1e-9)
	assert.Equal(t, domain.StatusApproaching, pred.Status)
	require.NotNil(t, pred.DaysToHarvest)
	require.NotNil(t, pred.DaysToPeak)
	assert.Equal(t, 18, *pred.DaysToHarvest)
	assert.Equal(t, 38, *pred.DaysToPeak)
	assert.Equal(t, date(2024, time.April, 18), pred.HarvestWindowStart)
	assert.Equal(t, date(2024, time.April, 28), pred.PeakWindowStart)
	assert.Equal(t, date(2024, time.May, 18), pred.PeakWindowEnd)
	assert.Equal(t, date(2024, time.May, 28), pred.HarvestWindowEnd)
	assert.InDelta(t, 0.91, pred.Confidence, 1e-9)
	assert.Equal(t, domain.SourceCalculated, pred.DataSource)

	// Georgia normal from January 10: 22·8 + 29·10 + 31·15 = 931.
	require.NotNil(t, pred.VsNormal)
	assert.InDelta(t, 931.0, pred.VsNormal.ExpectedGDD, 1e-9)
	assert.InDelta(t, -111.0, pred.VsNormal.DeviationGDD, 1e-9)
	assert.InDelta(t, -11.9, pred.VsNormal.DeviationPct, 1e-9)
	assert.Equal(t, domain.PaceBehind, pred.VsNormal.Pace)
}

func TestPredictHarvest_ClimatologyFallback(t *testing.T) {
	p := newPredictor(&syntheticWeather{err: errors.New("connection refused")}, nil, testRegistry(t))

	pred, err := p.PredictHarvest(context.Background(), "testcrop", "michigan_west", 2024, date(2024, time.April, 30))
	require.NoError(t, err)

	// Typical bloom April 1, then 30 days at Michigan's April rate of 12.
	assert.Equal(t, date(2024, time.April, 1), pred.BloomDate)
	assert.InDelta(t, 360.0, pred.CurrentGDD, 1e-9)
	assert.Equal(t, domain.StatusPreSeason, pred.Status)
	assert.Equal(t, domain.SourceClimatology, pred.DataSource)
	assert.InDelta(t, MaxClimatologyConfidence, pred.Confidence, 1e-9)
	require.NotNil(t, pred.DaysToHarvest)
	assert.Equal(t, 54, *pred.DaysToHarvest)
	assert.Nil(t, pred.VsNormal, "no comparison without observed weather")
}

func TestPredictHarvest_BeforeBloom(t *testing.T) {
	p := newPredictor(&syntheticWeather{err: errors.New("down")}, nil, testRegistry(t))

	pred, err := p.PredictHarvest(context.Background(), "testcrop", "michigan_west", 2024, date(2024, time.March, 1))
	require.NoError(t, err)

	assert.Zero(t, pred.CurrentGDD)
	assert.Equal(t, domain.StatusPreSeason, pred.Status)
	// Projection starts at bloom with the April rate of 12: ceil(1000/12) = 84.
	assert.Equal(t, date(2024, time.April, 1).AddDate(0, 0, 84), pred.HarvestWindowStart)
	assert.True(t, pred.HarvestWindowStart.Before(pred.PeakWindowStart))
	assert.True(t, pred.PeakWindowEnd.Before(pred.HarvestWindowEnd))
}

func TestPredictHarvest_DefaultsAsOfToToday(t *testing.T) {
	freezeClock(t, date(2024, time.March, 31))
	p := newPredictor(&syntheticWeather{temps: tenGDD}, nil, testRegistry(t))

	pred, err := p.PredictHarvest(context.Background(), "testcrop", "georgia_peach", 2024, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.March, 31), pred.AsOf)
	assert.InDelta(t, 820.0, pred.CurrentGDD, 1e-9)
}

func TestPredictHarvest_UnknownCrop(t *testing.T) {
	p := newPredictor(&syntheticWeather{temps: tenGDD}, nil, nil)
	_, err := p.PredictHarvest(context.Background(), "durian", "georgia_peach", 2024, date(2024, time.June, 1))
	require.ErrorIs(t, err, domain.ErrMissingProfile)
}

func TestPredictQuality(t *testing.T) {
	p := newPredictor(&syntheticWeather{temps: tenGDD}, nil, testRegistry(t))

	res, err := p.PredictQuality("testcrop", 1100)
	require.NoError(t, err)
	assert.Greater(t, res.PredictedBrix, 8.0)
	assert.LessOrEqual(t, res.PredictedBrix, 18.0)
	require.NotNil(t, res.PredictedAcid)
	require.NotNil(t, res.BrixAcidRatio)

	for _, gdd := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = p.PredictQuality("testcrop", gdd)
		require.Error(t, err, gdd)
	}

	_, err = p.PredictQuality("durian", 100)
	require.ErrorIs(t, err, domain.ErrMissingProfile)
}

func TestTier(t *testing.T) {
	assert.Equal(t, domain.ConfidenceHigh, tier(0.95))
	assert.Equal(t, domain.ConfidenceMedium, tier(0.6))
	assert.Equal(t, domain.ConfidenceLow, tier(0.5))
}
