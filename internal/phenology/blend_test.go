package phenology

import (
	"testing"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlend(t *testing.T) {
	model := DateFromDayOfYear(2024, 80)

	t.Run("no observation", func(t *testing.T) {
		res := Blend(model, 2024, nil, 120)
		assert.Equal(t, domain.ConfidenceMedium, res.Confidence)
		assert.Equal(t, domain.SourceCalculated, res.Source)
		assert.Equal(t, model, res.Date)
		assert.Equal(t, 80, res.DayOfYear)
		assert.Nil(t, res.ObservedDate)
	})

	t.Run("no observation and little weather", func(t *testing.T) {
		res := Blend(model, 2024, nil, MinObservationDays-1)
		assert.Equal(t, domain.ConfidenceLow, res.Confidence)
	})

	tests := []struct {
		name       string
		observed   int
		wantDOY    int
		confidence domain.Confidence
		source     domain.DataSource
	}{
		{"agree within 4 days", 84, 80, domain.ConfidenceHigh, domain.SourceCalculated},
		{"agree at 7 days", 73, 80, domain.ConfidenceHigh, domain.SourceCalculated},
		{"blend at 10 days", 90, 85, domain.ConfidenceMedium, domain.SourceCalculated},
		{"blend rounds half up", 89, 85, domain.ConfidenceMedium, domain.SourceCalculated},
		{"blend at 14 days", 66, 73, domain.ConfidenceMedium, domain.SourceCalculated},
		{"override at 15 days", 95, 95, domain.ConfidenceMedium, domain.SourceNPNObserved},
		{"override earlier observation", 40, 40, domain.ConfidenceMedium, domain.SourceNPNObserved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Blend(model, 2024, &tt.observed, 120)

			assert.Equal(t, tt.confidence, res.Confidence)
			assert.Equal(t, tt.source, res.Source)
			assert.Equal(t, tt.wantDOY, res.DayOfYear)
			assert.Equal(t, DateFromDayOfYear(2024, tt.wantDOY), res.Date)
			require.NotNil(t, res.ObservedDate)
			assert.Equal(t, DateFromDayOfYear(2024, tt.observed), *res.ObservedDate)
		})
	}

	t.Run("agreement keeps the model date exactly", func(t *testing.T) {
		observed := 84
		res := Blend(date(2024, time.March, 21), 2024, &observed, 10)
		assert.Equal(t, date(2024, time.March, 21), res.Date)
		assert.Equal(t, domain.ConfidenceHigh, res.Confidence)
	})
}

func TestMedianObservedDOY(t *testing.T) {
	t.Run("odd count of positives", func(t *testing.T) {
		got := MedianObservedDOY([]domain.BloomObservation{
			{DayOfYear: 100, Status: 1},
			{DayOfYear: 110, Status: 1},
			{DayOfYear: 90, Status: 0},
			{DayOfYear: 120, Status: 1},
			{DayOfYear: 105, Status: -1},
		})
		require.NotNil(t, got)
		assert.Equal(t, 110, *got)
	})

	t.Run("even count rounds", func(t *testing.T) {
		got := MedianObservedDOY([]domain.BloomObservation{
			{DayOfYear: 100, Status: 1},
			{DayOfYear: 111, Status: 1},
		})
		require.NotNil(t, got)
		assert.Equal(t, 106, *got)
	})

	t.Run("no positives", func(t *testing.T) {
		assert.Nil(t, MedianObservedDOY([]domain.BloomObservation{{DayOfYear: 100, Status: 0}}))
		assert.Nil(t, MedianObservedDOY(nil))
	})
}
