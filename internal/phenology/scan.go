package phenology

import "github.com/montanaflynn/stats"

// ScanResult is the outcome of a single forward accumulation pass.
type ScanResult struct {
	Total float64
	// Index is the position of the first value at which the running sum met
	// the threshold, or -1 when it was never reached.
	Index   int
	Reached bool
}

// Scan accumulates values in order and reports the total together with the
// first index where the cumulative sum is >= threshold. An empty input yields
// a zero total and no crossing.
func Scan(values []float64, threshold float64) ScanResult {
	res := ScanResult{Index: -1}
	for i, v := range values {
		res.Total += v
		if !res.Reached && res.Total >= threshold {
			res.Reached = true
			res.Index = i
		}
	}
	return res
}

// RecentWindowDays is the trailing window used to estimate the current
// accumulation rate.
const RecentWindowDays = 14

// MinDailyRate replaces a zero or unavailable recent rate so projections
// never divide by zero.
const MinDailyRate = 5.0

// RecentRate returns the mean of the last window values, or MinDailyRate when
// there are none or the mean is not positive.
func RecentRate(values []float64, window int) float64 {
	if window <= 0 || len(values) == 0 {
		return MinDailyRate
	}
	if len(values) > window {
		values = values[len(values)-window:]
	}
	mean, err := stats.Mean(values)
	if err != nil || mean <= 0 {
		return MinDailyRate
	}
	return mean
}
