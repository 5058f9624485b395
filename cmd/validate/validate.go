package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/phenology"
	"github.com/jonboulle/clockwork"
)

// bloomPredictor is the slice of the forecast engine the validator uses.
type bloomPredictor interface {
	PredictBloom(ctx context.Context, cropType, regionID string, year int) (domain.BloomPrediction, error)
	PredictHarvest(ctx context.Context, cropType, regionID string, year int, asOf time.Time) (domain.HarvestPrediction, error)
}

type validator struct {
	predictor bloomPredictor
	network   domain.PhenologyNetwork
	regions   domain.RegionLocator
	profiles  *domain.ProfileRegistry
	radiusKm  float64
	tolerance int
	delay     time.Duration
	clock     clockwork.Clock
	out       io.Writer
}

type combo struct {
	crop   string
	region string
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	checked int
	skipped int
	errors  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// pace waits the configured delay between network requests.
func (v *validator) pace(ctx context.Context) bool {
	if v.delay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-v.clock.After(v.delay):
		return true
	}
}

// ── Phase 1: Bloom vs network ──

func (v *validator) bloomPhase(ctx context.Context, combos []combo, years []int) *phase {
	p := &phase{name: "Phase 1: Bloom DOY vs network median"}

	fmt.Fprintf(v.out, "  %-12s %-28s %-5s %6s %6s %5s  %s\n", "CROP", "REGION", "YEAR", "MODEL", "NPN", "DIFF", "RESULT")
	for _, c := range combos {
		region, err := v.regions.Region(c.region)
		if err != nil {
			p.errorf("%s/%s: %v", c.crop, c.region, err)
			continue
		}
		profile, err := v.profiles.Lookup(c.crop)
		if err != nil {
			p.errorf("%s/%s: %v", c.crop, c.region, err)
			continue
		}

		for _, year := range years {
			if !v.pace(ctx) {
				p.errorf("interrupted")
				return p
			}

			pred, err := v.predictor.PredictBloom(ctx, c.crop, c.region, year)
			if err != nil {
				p.errorf("%s/%s %d: predict: %v", c.crop, c.region, year, err)
				fmt.Fprintf(v.out, "  %-12s %-28s %-5d %6s %6s %5s  %s\n", c.crop, c.region, year, "-", "-", "-", "ERROR")
				continue
			}
			observations, err := v.network.BloomObservations(ctx, profile.NetworkSpeciesID, year, region.Lat, region.Lon, v.radiusKm)
			if err != nil {
				p.errorf("%s/%s %d: network: %v", c.crop, c.region, year, err)
				fmt.Fprintf(v.out, "  %-12s %-28s %-5d %6d %6s %5s  %s\n", c.crop, c.region, year, pred.PredictedBloomDOY, "-", "-", "ERROR")
				continue
			}

			median := phenology.MedianObservedDOY(observations)
			if median == nil || pred.DataSource == domain.SourceFallbackTypical {
				p.skipped++
				fmt.Fprintf(v.out, "  %-12s %-28s %-5d %6d %6s %5s  %s\n", c.crop, c.region, year, pred.PredictedBloomDOY, "-", "-", "SKIP")
				continue
			}

			p.checked++
			diff := absInt(pred.PredictedBloomDOY - *median)
			result := "PASS"
			if diff > v.tolerance {
				result = "FAIL"
				p.errorf("%s/%s %d: model DOY %d vs observed %d (|Δ| %d > %d)",
					c.crop, c.region, year, pred.PredictedBloomDOY, *median, diff, v.tolerance)
			}
			fmt.Fprintf(v.out, "  %-12s %-28s %-5d %6d %6d %5d  %s\n", c.crop, c.region, year, pred.PredictedBloomDOY, *median, diff, result)
		}
	}
	fmt.Fprintln(v.out)
	return p
}

// ── Phase 2: Harvest windows vs extension calendars ──

// harvestReference is an extension-service harvest calendar for one crop and
// region. Months wrap across the new year.
type harvestReference struct {
	crop    string
	region  string
	harvest []time.Month
	peak    []time.Month
	source  string
}

var harvestReferences = []harvestReference{
	{"citrus_orange", "indian_river", months(11, 12, 1), months(12, 1), "UF/IFAS"},
	{"citrus_grapefruit", "indian_river", months(11, 12, 1, 2, 3, 4, 5), months(1, 2, 3), "UF/IFAS"},
	{"citrus_tangerine", "indian_river", months(11, 12), months(12), "UF/IFAS"},
	{"citrus_grapefruit", "texas_rgv", months(10, 11, 12, 1, 2, 3), months(12, 1, 2), "Texas A&M"},
	{"peach", "georgia_piedmont", months(5, 6, 7, 8), months(6, 7), "UGA Extension"},
	{"peach", "california_central_valley", months(5, 6, 7, 8, 9), months(6, 7, 8), "UC Davis"},
	{"cherry", "pacific_nw_yakima", months(6, 7), months(6, 7), "WSU Extension"},
	{"apple", "pacific_nw_wenatchee", months(8, 9, 10, 11), months(9, 10), "WSU Extension"},
	{"apple", "michigan_west", months(8, 9, 10), months(9, 10), "MSU Extension"},
	{"pear", "pacific_nw_hood_river", months(8, 9, 10), months(8, 9), "OSU Extension"},
	{"blueberry", "michigan_west", months(7, 8), months(7, 8), "MSU Extension"},
}

func months(ms ...int) []time.Month {
	out := make([]time.Month, len(ms))
	for i, m := range ms {
		out[i] = time.Month(m)
	}
	return out
}

func (v *validator) harvestPhase(ctx context.Context, year int) *phase {
	p := &phase{name: fmt.Sprintf("Phase 2: Harvest windows %d vs extension calendars", year)}
	// Late enough that every reference season has finished.
	asOf := time.Date(year+1, time.June, 30, 0, 0, 0, 0, time.UTC)

	for _, ref := range harvestReferences {
		if ctx.Err() != nil {
			p.errorf("interrupted")
			return p
		}
		pred, err := v.predictor.PredictHarvest(ctx, ref.crop, ref.region, year, asOf)
		if err != nil {
			p.errorf("%s/%s: predict: %v", ref.crop, ref.region, err)
			continue
		}
		p.checked++

		issues := checkHarvestWindow(pred, ref)
		result := "PASS"
		if len(issues) > 0 {
			result = "FAIL"
		}
		fmt.Fprintf(v.out, "  %-18s %-28s harvest %s..%s peak %s..%s  %s (%s)\n",
			ref.crop, ref.region,
			pred.HarvestWindowStart.Format("Jan 02"), pred.HarvestWindowEnd.Format("Jan 02"),
			pred.PeakWindowStart.Format("Jan 02"), pred.PeakWindowEnd.Format("Jan 02"),
			result, ref.source)
		for _, issue := range issues {
			p.errorf("%s/%s: %s", ref.crop, ref.region, issue)
		}
	}
	fmt.Fprintln(v.out)
	return p
}

// checkHarvestWindow allows the harvest start and end one month outside the
// reference calendar and requires the peak window to overlap the reference
// peak widened by one month either side.
func checkHarvestWindow(pred domain.HarvestPrediction, ref harvestReference) []string {
	var issues []string

	tolerantHarvest := widen(ref.harvest)
	if m := pred.HarvestWindowStart.Month(); !slices.Contains(tolerantHarvest, m) {
		issues = append(issues, fmt.Sprintf("harvest start %s outside %v", m, ref.harvest))
	}
	if m := pred.HarvestWindowEnd.Month(); !slices.Contains(tolerantHarvest, m) {
		issues = append(issues, fmt.Sprintf("harvest end %s outside %v", m, ref.harvest))
	}

	tolerantPeak := widen(ref.peak)
	overlap := false
	for _, m := range monthSpan(pred.PeakWindowStart.Month(), pred.PeakWindowEnd.Month()) {
		if slices.Contains(tolerantPeak, m) {
			overlap = true
			break
		}
	}
	if !overlap {
		issues = append(issues, fmt.Sprintf("peak %s..%s does not overlap %v",
			pred.PeakWindowStart.Month(), pred.PeakWindowEnd.Month(), ref.peak))
	}
	return issues
}

// monthSpan lists the months from start through end, wrapping December.
func monthSpan(start, end time.Month) []time.Month {
	out := []time.Month{start}
	for m := start; m != end && len(out) < 12; {
		m = m%12 + 1
		out = append(out, m)
	}
	return out
}

// widen adds the neighbouring month on each side of every month in ms.
func widen(ms []time.Month) []time.Month {
	out := slices.Clone(ms)
	for _, m := range ms {
		before := (m+10)%12 + 1
		after := m%12 + 1
		for _, n := range []time.Month{before, after} {
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// report prints the phase summary and details, returning whether all passed.
func report(w io.Writer, phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-52s %s  (%d checked, %d skipped)\n", p.name, status, p.checked, p.skipped)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return true
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return false
}
