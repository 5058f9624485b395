package phenology

import (
	"math"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
)

const (
	// PreSeasonFraction of gdd_to_maturity below which a crop is pre-season.
	PreSeasonFraction = 0.8
	// PeakBandFraction of gdd_window on either side of gdd_to_peak that counts as peak.
	PeakBandFraction = 0.25
	// MaxHarvestConfidence caps the proximity-based harvest confidence.
	MaxHarvestConfidence = 0.95
)

// HarvestThresholds are the GDD milestones of a crop's harvest season.
type HarvestThresholds struct {
	Maturity float64
	Peak     float64
	Window   float64
}

// ThresholdsFor extracts the harvest milestones from a profile.
func ThresholdsFor(p domain.CropProfile) HarvestThresholds {
	return HarvestThresholds{Maturity: p.GDDToMaturity, Peak: p.GDDToPeak, Window: p.GDDWindow}
}

// PeakBand returns the half width of the peak band in GDD.
func (t HarvestThresholds) PeakBand() float64 { return t.Window * PeakBandFraction }

// WindowEnd returns the GDD at which the harvest season is over.
func (t HarvestThresholds) WindowEnd() float64 { return t.Maturity + t.Window }

// Status maps cumulative GDD onto the six harvest states:
//
//	[0, 0.8·maturity)                  pre_season
//	[0.8·maturity, maturity)           approaching
//	[maturity, peak-band)              harvest_window
//	[peak-band, peak+band]             at_peak
//	(peak+band, maturity+window]       late_season
//	> maturity+window                  post_season
//
// States are tested in order, so a peak band that overlaps maturity or the
// window end simply narrows the neighbouring states.
func (t HarvestThresholds) Status(gdd float64) domain.HarvestStatus {
	band := t.PeakBand()
	switch {
	case gdd < t.Maturity*PreSeasonFraction:
		return domain.StatusPreSeason
	case gdd < t.Maturity:
		return domain.StatusApproaching
	case gdd < t.Peak-band:
		return domain.StatusHarvestWindow
	case gdd <= t.Peak+band:
		return domain.StatusAtPeak
	case gdd <= t.WindowEnd():
		return domain.StatusLateSeason
	default:
		return domain.StatusPostSeason
	}
}

// HarvestClassification is the classifier output for one GDD position.
type HarvestClassification struct {
	Status            domain.HarvestStatus
	PercentToMaturity float64
	PercentToPeak     float64
	DaysToHarvest     *int
	DaysToPeak        *int
	Confidence        float64
}

// ClassifyHarvest positions currentGDD within the season. avgDailyGDD is the
// recent accumulation rate used to estimate days to each milestone; a
// non-positive rate falls back to MinDailyRate.
func ClassifyHarvest(currentGDD float64, t HarvestThresholds, avgDailyGDD float64) HarvestClassification {
	if avgDailyGDD <= 0 {
		avgDailyGDD = MinDailyRate
	}
	pctMaturity := percentOf(currentGDD, t.Maturity)

	return HarvestClassification{
		Status:            t.Status(currentGDD),
		PercentToMaturity: Round1(pctMaturity),
		PercentToPeak:     Round1(percentOf(currentGDD, t.Peak)),
		DaysToHarvest:     daysTo(t.Maturity, currentGDD, avgDailyGDD),
		DaysToPeak:        daysTo(t.Peak, currentGDD, avgDailyGDD),
		Confidence:        round2(min(MaxHarvestConfidence, 0.5+pctMaturity/200)),
	}
}

func percentOf(current, target float64) float64 {
	if target <= 0 {
		return 100
	}
	return min(100, current/target*100)
}

// daysTo returns nil once the milestone has been reached.
func daysTo(target, current, rate float64) *int {
	remaining := target - current
	if remaining <= 0 {
		return nil
	}
	d := int(math.Ceil(remaining / rate))
	return &d
}

// HarvestWindows holds the calendar estimates of each milestone.
type HarvestWindows struct {
	HarvestStart time.Time
	HarvestEnd   time.Time
	PeakStart    time.Time
	PeakEnd      time.Time
}

// ProjectWindows dates each milestone from the daily GDD series since bloom.
// Milestones already crossed take the scanner's crossing date; the rest are
// projected from the last observed date (asOf when the series is empty) at
// rate GDD per day.
func ProjectWindows(dates []time.Time, values []float64, t HarvestThresholds, asOf time.Time, rate float64) HarvestWindows {
	if rate <= 0 {
		rate = MinDailyRate
	}
	last := asOf
	if len(dates) > 0 {
		last = dates[len(dates)-1]
	}

	milestone := func(target float64) time.Time {
		scan := Scan(values, target)
		if scan.Reached {
			return dates[scan.Index]
		}
		days := int(math.Ceil((target - scan.Total) / rate))
		return last.AddDate(0, 0, days)
	}

	band := t.PeakBand()
	return HarvestWindows{
		HarvestStart: milestone(t.Maturity),
		HarvestEnd:   milestone(t.WindowEnd()),
		PeakStart:    milestone(max(0, t.Peak-band)),
		PeakEnd:      milestone(t.Peak + band),
	}
}
