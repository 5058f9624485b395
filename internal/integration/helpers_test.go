//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/forecast"
	"github.com/couchcryptid/crop-phenology-service/internal/observability"
	"github.com/couchcryptid/crop-phenology-service/internal/phenology"
	kafkago "github.com/segmentio/kafka-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/stretchr/testify/require"
)

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("crop-phenology-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// climateWeather serves deterministic observations built from the regional
// climatology so the pipeline runs without network access.
type climateWeather struct {
	regions domain.RegionLocator
	climate phenology.Climatology
}

func (w climateWeather) DailyObservations(_ context.Context, regionID string, start, end time.Time) ([]domain.DailyObservation, error) {
	region, err := w.regions.Region(regionID)
	if err != nil {
		return nil, err
	}
	var out []domain.DailyObservation
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		avg := 50 + w.climate.Rate(region.State, d.Month())
		if d.Month() == time.December || d.Month() <= time.February {
			avg -= 20
		}
		out = append(out, domain.DailyObservation{Date: d, TempHigh: avg + 10, TempLow: avg - 10})
	}
	return out, nil
}

func newPredictor() *forecast.Predictor {
	regions := domain.DefaultRegions()
	weather := climateWeather{regions: regions, climate: phenology.DefaultClimatology()}
	return forecast.New(weather, nil, regions, domain.DefaultProfiles(), 100,
		observability.NewMetricsForTesting(), discardLogger())
}
