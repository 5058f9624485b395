package phenology

import "time"

// AccumulationState is the transient per-(crop, region, year) working set
// shared by the bloom and harvest computations. It is never persisted.
type AccumulationState struct {
	ChillHours   float64
	ChillMetDate *time.Time
	HeatUnits    float64
	// Anchor is the reference date for GDDSinceAnchor, normally the bloom date.
	Anchor         time.Time
	GDDSinceAnchor float64
}
