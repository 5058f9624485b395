// Command validate compares the model against independent references: bloom
// days of year against the phenology network's observed median, and
// projected harvest windows against extension-service harvest calendars.
//
// Usage:
//
//	go run ./cmd/validate --years 2022,2023 --crops apple,peach --delay 2s
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/adapter/npn"
	"github.com/couchcryptid/crop-phenology-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/crop-phenology-service/internal/config"
	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/forecast"
	"github.com/couchcryptid/crop-phenology-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	years     []int
	crops     []string
	regionIDs []string
	tolerance int
	delay     time.Duration
	skipBloom bool
	skipHarv  bool
)

var rootCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate bloom and harvest predictions against reference data",
	Long: `Validate runs two phases:

  Phase 1  model bloom day of year (network crosscheck disabled) versus the
           median of positive phenology-network flower observations
  Phase 2  projected harvest and peak windows versus extension-service
           harvest calendars, allowing one month either side

Weather and network endpoints come from the same environment variables as
the service. Requests to the network are spaced by --delay.`,
	SilenceUsage: true,
	RunE:         runValidate,
}

func init() {
	lastYear := time.Now().Year() - 1
	rootCmd.Flags().IntSliceVar(&years, "years", []int{lastYear}, "bloom years to validate")
	rootCmd.Flags().StringSliceVar(&crops, "crops", nil, "crop types for phase 1 (default: all with a network species id)")
	rootCmd.Flags().StringSliceVar(&regionIDs, "regions", nil, "regions for phase 1 (default: all)")
	rootCmd.Flags().IntVar(&tolerance, "tolerance", 14, "maximum |model - observed| bloom difference in days")
	rootCmd.Flags().DurationVar(&delay, "delay", time.Second, "fixed spacing between network requests")
	rootCmd.Flags().BoolVar(&skipBloom, "skip-bloom", false, "skip phase 1")
	rootCmd.Flags().BoolVar(&skipHarv, "skip-harvest", false, "skip phase 2")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cmdLogger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	// Warnings from degraded predictions would interleave with the report.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	regions := domain.DefaultRegions()
	profiles := domain.DefaultProfiles()

	weather, err := openmeteo.NewCachedWeatherSource(
		openmeteo.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, regions, metrics, logger),
		cfg.WeatherCacheSize, metrics)
	if err != nil {
		return err
	}
	network := npn.NewClient(cfg.NPNBaseURL, cfg.NPNTimeout, cfg.NPNRequestInterval, metrics, logger)

	v := &validator{
		// Crosscheck disabled so the model is compared, not the blend.
		predictor: forecast.New(weather, nil, regions, profiles, cfg.NPNRadiusKm, metrics, logger),
		network:   network,
		regions:   regions,
		profiles:  profiles,
		radiusKm:  cfg.NPNRadiusKm,
		tolerance: tolerance,
		delay:     delay,
		clock:     clockwork.NewRealClock(),
		out:       cmd.OutOrStdout(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmdLogger.Info("validation started",
		"years", years, "tolerance_days", tolerance, "delay", delay,
		"weather_url", cfg.WeatherBaseURL, "npn_url", cfg.NPNBaseURL)

	fmt.Fprintln(v.out, "=== Crop Phenology Validation ===")
	fmt.Fprintln(v.out)

	var phases []*phase
	if !skipBloom {
		phases = append(phases, v.bloomPhase(ctx, v.bloomCombos(crops, regionIDs), years))
	}
	if !skipHarv {
		for _, year := range years {
			phases = append(phases, v.harvestPhase(ctx, year))
		}
	}

	if !report(v.out, phases) {
		cmdLogger.Error("validation failed", "phases", len(phases))
		return fmt.Errorf("validation failed")
	}
	cmdLogger.Info("validation passed", "phases", len(phases))
	return nil
}

// bloomCombos expands the crop and region selections. Crops without a
// network species cannot be checked and are dropped.
func (v *validator) bloomCombos(cropFilter, regionFilter []string) []combo {
	if len(cropFilter) == 0 {
		cropFilter = v.profiles.Keys()
	}
	if len(regionFilter) == 0 {
		regionFilter = domain.DefaultRegions().IDs()
	}

	var out []combo
	for _, c := range cropFilter {
		p, err := v.profiles.Lookup(strings.ToLower(c))
		if err != nil || p.NetworkSpeciesID == 0 {
			continue
		}
		for _, r := range regionFilter {
			out = append(out, combo{crop: p.Key, region: strings.ToLower(r)})
		}
	}
	return out
}

