package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/config"
	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"kind":"bloom","crop_type":"apple"}`),
		Topic:     "phenology-prediction-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("scheduler")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"kind":"bloom","crop_type":"apple"}`, string(raw.Value))
	assert.Equal(t, "phenology-prediction-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "scheduler", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestToMessage(t *testing.T) {
	processed := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	out, err := domain.SerializeEnvelope(domain.PredictionEnvelope{
		RequestID:   "req-1",
		Kind:        domain.KindBloom,
		CropType:    "apple",
		RegionID:    "michigan_west",
		Year:        2024,
		ProcessedAt: processed,
	})
	require.NoError(t, err)

	msg := toMessage(out)

	assert.Equal(t, out.Key, msg.Key)
	assert.Contains(t, string(msg.Value), `"crop_type":"apple"`)
	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("bloom"), msg.Headers[0].Value)
	assert.Equal(t, "outcome", msg.Headers[1].Key)
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(processed.Format(time.RFC3339)), msg.Headers[2].Value)
	assert.Equal(t, "request_id", msg.Headers[3].Key)
}

func TestWriter_LoadBatchEmpty(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaSinkTopic: "sink"}, nil)
	defer w.Close()

	assert.NoError(t, w.LoadBatch(context.Background(), nil))
}
