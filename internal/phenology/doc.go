// Package phenology implements the pure crop development models: daily heat
// units, threshold scanning, chill-hour dormancy, heat-to-bloom prediction,
// external crosscheck blending, harvest-window classification and the sugar
// and acid quality curves.
//
// Nothing in this package performs I/O or holds mutable state, so any number
// of predictions may run concurrently over shared inputs.
package phenology
