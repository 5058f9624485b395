// Package domain models crop phenology reference data and the prediction
// records produced from it.
//
// # Units
//
// Temperatures are degrees Fahrenheit and precipitation is inches. Heat units,
// growing degree days (GDD) and chill hours are unitless accumulations over
// daily observations; there is no hourly data anywhere in the system.
//
// # Crop Profiles
//
// Every prediction is parameterized by a [CropProfile] looked up by crop key
// (e.g. "apple", "citrus_orange"). Profiles are static reference data held in
// an immutable [ProfileRegistry] built once at start-up, optionally merged
// with a YAML override file (see [ProfileRegistry.WithOverrides]). Two
// invariants are enforced when a registry is built:
//
//	heat_units_to_bloom > 0
//	gdd_to_peak >= gdd_to_maturity
//
// A crop without a profile is the only hard failure ([ErrMissingProfile]);
// every other problem degrades the prediction's confidence instead.
//
// # Seasons
//
// Dormancy (chill) accumulation for a bloom year Y starts on the first day of
// the profile's chill start month in year Y-1, typically November 1. Crops
// with chill_hours_required = 0 (subtropical citrus) skip dormancy and start
// heat accumulation on January 1 of Y.
//
// # Kafka Messages
//
// The prediction pipeline consumes [PredictionRequest] JSON and produces
// [PredictionEnvelope] JSON. Output keys are deterministic hashes of
// crop|region|year so that all predictions for one season share a partition.
package domain
