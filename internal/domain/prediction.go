package domain

import "time"

// Confidence is the coarse trust tier attached to a bloom prediction.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DataSource records which estimator produced a prediction.
type DataSource string

const (
	SourceCalculated      DataSource = "calculated"
	SourceNPNObserved     DataSource = "npn_observed"
	SourceFallbackTypical DataSource = "fallback_typical"
	SourceClimatology     DataSource = "climatology"
)

// HarvestStatus is the position of a crop in its harvest season.
type HarvestStatus string

const (
	StatusPreSeason     HarvestStatus = "pre_season"
	StatusApproaching   HarvestStatus = "approaching"
	StatusHarvestWindow HarvestStatus = "harvest_window"
	StatusAtPeak        HarvestStatus = "at_peak"
	StatusLateSeason    HarvestStatus = "late_season"
	StatusPostSeason    HarvestStatus = "post_season"
)

// SeasonPace compares a season's heat accumulation with the regional normal.
type SeasonPace string

const (
	PaceAhead  SeasonPace = "ahead"
	PaceNormal SeasonPace = "normal"
	PaceBehind SeasonPace = "behind"
)

// SeasonComparison is the departure of observed GDD since bloom from the
// climatological expectation over the same days.
type SeasonComparison struct {
	ExpectedGDD  float64    `json:"expected_gdd"`
	DeviationGDD float64    `json:"deviation_gdd"`
	DeviationPct float64    `json:"deviation_pct"`
	Pace         SeasonPace `json:"pace"`
}

// BloomPrediction is the predicted bloom date for a crop in a region and year.
type BloomPrediction struct {
	CropType              string     `json:"crop_type"`
	RegionID              string     `json:"region_id"`
	Year                  int        `json:"year"`
	PredictedBloomDate    time.Time  `json:"predicted_bloom_date"`
	PredictedBloomDOY     int        `json:"predicted_bloom_doy"`
	TypicalBloomDate      time.Time  `json:"typical_bloom_date"`
	DaysFromTypical       int        `json:"days_from_typical"`
	ChillHoursAccumulated float64    `json:"chill_hours_accumulated"`
	ChillRequirementMet   bool       `json:"chill_requirement_met"`
	HeatUnitsAccumulated  float64    `json:"heat_units_accumulated"`
	Confidence            Confidence `json:"confidence"`
	DataSource            DataSource `json:"data_source"`
	NPNObservedDate       *time.Time `json:"npn_observed_date,omitempty"`
}

// HarvestPrediction describes progress toward maturity and peak quality.
type HarvestPrediction struct {
	CropType           string        `json:"crop_type,omitempty"`
	RegionID           string        `json:"region_id,omitempty"`
	Year               int           `json:"year,omitempty"`
	BloomDate          time.Time     `json:"bloom_date"`
	AsOf               time.Time     `json:"as_of"`
	CurrentGDD         float64       `json:"current_gdd"`
	GDDToMaturity      float64       `json:"gdd_to_maturity"`
	GDDToPeak          float64       `json:"gdd_to_peak"`
	PercentToMaturity  float64       `json:"percent_to_maturity"`
	PercentToPeak      float64       `json:"percent_to_peak"`
	Status             HarvestStatus `json:"status"`
	DaysToHarvest      *int          `json:"days_to_harvest,omitempty"`
	DaysToPeak         *int          `json:"days_to_peak,omitempty"`
	HarvestWindowStart time.Time     `json:"harvest_window_start"`
	HarvestWindowEnd   time.Time     `json:"harvest_window_end"`
	PeakWindowStart    time.Time     `json:"peak_window_start"`
	PeakWindowEnd      time.Time     `json:"peak_window_end"`
	Confidence         float64       `json:"confidence"`
	DataSource         DataSource    `json:"data_source,omitempty"`

	// VsNormal is set only when GDD comes from observed weather.
	VsNormal *SeasonComparison `json:"vs_normal,omitempty"`
}

// QualityCurveResult is the predicted quality metric at a GDD position.
type QualityCurveResult struct {
	PredictedBrix float64  `json:"predicted_brix"`
	Confidence    float64  `json:"confidence"`
	PredictedAcid *float64 `json:"predicted_acid,omitempty"`
	BrixAcidRatio *float64 `json:"brix_acid_ratio,omitempty"`
	BrimA         *float64 `json:"brima,omitempty"`
}
