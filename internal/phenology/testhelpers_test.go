package phenology

import (
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// series builds n consecutive observations starting at start with a fixed
// high and low.
func series(start time.Time, n int, high, low float64) []domain.DailyObservation {
	obs := make([]domain.DailyObservation, n)
	for i := range obs {
		obs[i] = domain.DailyObservation{Date: start.AddDate(0, 0, i), TempHigh: high, TempLow: low}
	}
	return obs
}

func testProfile() domain.CropProfile {
	return domain.CropProfile{
		Key: "test", BaseTemp: 50, HeatBaseTemp: 50,
		ChillHoursRequired: 180, ChillThreshold: 45, ChillStartMonth: time.November,
		HeatUnitsToBloom:  100,
		TypicalBloomMonth: time.April, TypicalBloomDay: 1,
		GDDToMaturity: 1000, GDDToPeak: 1200, GDDWindow: 400,
		Quality: domain.QualityCurve{BrixMin: 8, BrixMax: 18, Acid0: 2.0, AcidK: 0.0003},
	}
}

func ptr[T any](v T) *T { return &v }
