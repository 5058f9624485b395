package phenology

import (
	"math"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
)

// SugarBrix evaluates the logistic sugar curve
//
//	Brix = Bmin + (Bmax-Bmin) / (1 + exp(-(GDD-DD50)/slope))
//
// A non-positive slope degenerates to a step at dd50 with the midpoint
// exactly at dd50.
func SugarBrix(gdd, brixMin, brixMax, dd50, slope float64) float64 {
	if slope <= 0 {
		switch {
		case gdd < dd50:
			return brixMin
		case gdd > dd50:
			return brixMax
		default:
			return (brixMin + brixMax) / 2
		}
	}
	return brixMin + (brixMax-brixMin)/(1+math.Exp(-(gdd-dd50)/slope))
}

// Acid evaluates the exponential acid decline acid0·exp(-k·GDD).
func Acid(gdd, acid0, k float64) float64 {
	return acid0 * math.Exp(-k*gdd)
}

// BrixAcidRatio returns brix/acid, or 0 when acid is 0.
func BrixAcidRatio(brix, acid float64) float64 {
	if acid == 0 {
		return 0
	}
	return brix / acid
}

// BrimA returns the acid-corrected sweetness index brix - 4·acid.
func BrimA(brix, acid float64) float64 {
	return brix - 4*acid
}

// QualityConfidence is a step function of GDD position relative to the
// maturity and peak milestones.
func QualityConfidence(gdd, maturity, peak float64) float64 {
	switch {
	case gdd < 0.7*maturity:
		return 0.5
	case gdd < maturity:
		return 0.7
	case gdd <= peak:
		return 0.85
	default:
		return 0.75
	}
}

// PredictQuality maps a cumulative GDD position to predicted sugar, acid and
// the derived indices, all rounded to one decimal.
func PredictQuality(gdd float64, p domain.CropProfile) domain.QualityCurveResult {
	slope := (p.GDDToPeak - p.GDDToMaturity) / 4
	brix := SugarBrix(gdd, p.Quality.BrixMin, p.Quality.BrixMax, p.GDDToMaturity, slope)
	acid := Acid(gdd, p.Quality.Acid0, p.Quality.AcidK)

	ratio := Round1(BrixAcidRatio(brix, acid))
	brimA := Round1(BrimA(brix, acid))
	acidOut := Round1(acid)

	return domain.QualityCurveResult{
		PredictedBrix: Round1(brix),
		Confidence:    QualityConfidence(gdd, p.GDDToMaturity, p.GDDToPeak),
		PredictedAcid: &acidOut,
		BrixAcidRatio: &ratio,
		BrimA:         &brimA,
	}
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
