// Command genmock synthesizes a deterministic weather season for one or more
// crop/region pairs from the regional GDD climatology and writes it, together
// with the bloom and harvest predictions the engine makes from it, as JSON
// fixtures. It runs the real forecast package against an in-memory weather
// source under a frozen clock, so fixtures are reproducible.
//
// Usage:
//
//	go run ./cmd/genmock --year 2024 --pairs apple:michigan_west,peach:georgia_peach --out data/mock
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/forecast"
	"github.com/couchcryptid/crop-phenology-service/internal/observability"
	"github.com/couchcryptid/crop-phenology-service/internal/phenology"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	year      int
	pairs     []string
	outDir    string
	amplitude float64
	diurnal   float64
)

var rootCmd = &cobra.Command{
	Use:   "genmock",
	Short: "Generate deterministic season fixtures from climatology",
	Long: `Genmock builds one fixture per crop:region pair. Daily mean temperature is
50°F plus the state's climatological GDD rate for the month, depressed in
winter by a cosine of the given amplitude; highs and lows sit the diurnal
half-range either side of the mean.`,
	SilenceUsage: true,
	RunE:         runGenmock,
}

func init() {
	rootCmd.Flags().IntVar(&year, "year", 2024, "bloom year to synthesize")
	rootCmd.Flags().StringSliceVar(&pairs, "pairs", []string{"apple:michigan_west", "peach:georgia_peach", "citrus_orange:indian_river"}, "crop:region pairs")
	rootCmd.Flags().StringVar(&outDir, "out", "data/mock", "output directory")
	rootCmd.Flags().Float64Var(&amplitude, "amplitude", 20, "winter temperature depression in °F")
	rootCmd.Flags().Float64Var(&diurnal, "diurnal", 10, "half the daily high-low range in °F")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// fixture is the on-disk shape of one generated season.
type fixture struct {
	CropType     string                    `json:"crop_type"`
	RegionID     string                    `json:"region_id"`
	Year         int                       `json:"year"`
	Observations []domain.DailyObservation `json:"observations"`
	Bloom        domain.BloomPrediction    `json:"bloom"`
	Harvest      domain.HarvestPrediction  `json:"harvest"`
}

func runGenmock(cmd *cobra.Command, _ []string) error {
	// Fixed clock so "as of" dates are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(year, time.December, 31, 6, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	regions := domain.DefaultRegions()
	profiles := domain.DefaultProfiles()
	climate := phenology.DefaultClimatology()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, pair := range pairs {
		crop, regionID, ok := strings.Cut(pair, ":")
		if !ok {
			return fmt.Errorf("pair %q: want crop:region", pair)
		}

		fx, err := generate(cmd.Context(), crop, regionID, regions, profiles, climate, logger)
		if err != nil {
			return fmt.Errorf("generate %s: %w", pair, err)
		}

		path := filepath.Join(outDir, fmt.Sprintf("%s_%s_%d.json", fx.CropType, fx.RegionID, year))
		if err := writeJSON(path, fx); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("%s/%s: %d days, bloom %s (%s), harvest %s", fx.CropType, fx.RegionID,
			len(fx.Observations), fx.Bloom.PredictedBloomDate.Format("2006-01-02"), fx.Bloom.Confidence, fx.Harvest.Status)
	}
	return nil
}

func generate(
	ctx context.Context,
	crop, regionID string,
	regions *domain.RegionRegistry,
	profiles *domain.ProfileRegistry,
	climate phenology.Climatology,
	logger *slog.Logger,
) (fixture, error) {
	profile, err := profiles.Lookup(crop)
	if err != nil {
		return fixture{}, err
	}
	region, err := regions.Region(regionID)
	if err != nil {
		return fixture{}, err
	}

	start := profile.ChillStart(year)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	obs := synthesize(climate, region.State, start, end, amplitude, diurnal)

	predictor := forecast.New(staticWeather(obs), nil, regions, profiles, 0, observability.NewMetricsForTesting(), logger)

	bloom, err := predictor.PredictBloom(ctx, profile.Key, region.ID, year)
	if err != nil {
		return fixture{}, err
	}
	harvest, err := predictor.PredictHarvest(ctx, profile.Key, region.ID, year, end)
	if err != nil {
		return fixture{}, err
	}

	return fixture{
		CropType:     profile.Key,
		RegionID:     region.ID,
		Year:         year,
		Observations: obs,
		Bloom:        bloom,
		Harvest:      harvest,
	}, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
