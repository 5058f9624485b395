package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// PredictionKind selects which prediction a request asks for.
type PredictionKind string

const (
	KindBloom   PredictionKind = "bloom"
	KindHarvest PredictionKind = "harvest"
	KindQuality PredictionKind = "quality"
)

// PredictionRequest is the JSON payload consumed from the source topic.
type PredictionRequest struct {
	RequestID string         `json:"request_id,omitempty"`
	Kind      PredictionKind `json:"kind"`
	CropType  string         `json:"crop_type"`
	RegionID  string         `json:"region_id,omitempty"`
	Year      int            `json:"year,omitempty"`
	AsOf      *time.Time     `json:"as_of,omitempty"`
	GDD       *float64       `json:"gdd,omitempty"`
}

// PredictionEnvelope is the JSON payload produced to the sink topic. Exactly
// one of Bloom, Harvest, Quality or Error is set.
type PredictionEnvelope struct {
	RequestID   string              `json:"request_id"`
	Kind        PredictionKind      `json:"kind"`
	CropType    string              `json:"crop_type"`
	RegionID    string              `json:"region_id,omitempty"`
	Year        int                 `json:"year,omitempty"`
	Bloom       *BloomPrediction    `json:"bloom,omitempty"`
	Harvest     *HarvestPrediction  `json:"harvest,omitempty"`
	Quality     *QualityCurveResult `json:"quality,omitempty"`
	Error       string              `json:"error,omitempty"`
	ProcessedAt time.Time           `json:"processed_at"`
}
