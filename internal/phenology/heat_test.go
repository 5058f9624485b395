package phenology

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeatUnit(t *testing.T) {
	tests := []struct {
		name      string
		high, low float64
		base      float64
		maxCap    *float64
		want      float64
	}{
		{"above base", 80, 60, 50, nil, 20},
		{"below base clamps to zero", 50, 30, 50, nil, 0},
		{"exactly base", 60, 40, 50, nil, 0},
		{"cap clamps high", 100, 60, 50, ptr(86.0), 23},
		{"cap above high has no effect", 80, 60, 50, ptr(86.0), 20},
		{"negative temperatures", -10, -30, 50, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, HeatUnit(tt.high, tt.low, tt.base, tt.maxCap), 1e-9)
		})
	}
}

func TestHeatUnit_Properties(t *testing.T) {
	capT := 86.0
	for low := -20.0; low <= 90; low += 5 {
		prevUncapped, prevCapped := -1.0, -1.0
		for high := low; high <= 120; high++ {
			u := HeatUnit(high, low, 50, nil)
			c := HeatUnit(high, low, 50, &capT)

			assert.GreaterOrEqual(t, u, 0.0)
			assert.GreaterOrEqual(t, c, 0.0)
			assert.GreaterOrEqual(t, u, prevUncapped, "non-decreasing in high")
			assert.GreaterOrEqual(t, c, prevCapped, "non-decreasing in high")
			if high > capT {
				assert.Equal(t, HeatUnit(capT, low, 50, &capT), c, "constant above cap")
			}
			prevUncapped, prevCapped = u, c
		}
	}
}

func TestBetween(t *testing.T) {
	obs := series(date(2024, 1, 1), 10, 70, 50)

	got := Between(obs, date(2024, 1, 3), date(2024, 1, 5))
	assert.Len(t, got, 3)
	assert.Equal(t, date(2024, 1, 3), got[0].Date)

	assert.Len(t, Between(obs, date(2024, 1, 8), time.Time{}), 3)
	assert.Empty(t, Between(obs, date(2024, 2, 1), time.Time{}))
	assert.Empty(t, Between(nil, date(2024, 1, 1), time.Time{}))
}
