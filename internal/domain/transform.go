package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParsePredictionRequest deserializes and normalizes a request from the source
// topic. A missing request ID is replaced by a random UUID; a missing year
// defaults to the year of the message timestamp (or the clock when unset).
func ParsePredictionRequest(raw RawEvent) (PredictionRequest, error) {
	var req PredictionRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return PredictionRequest{}, fmt.Errorf("parse prediction request: %w", err)
	}

	req.Kind = PredictionKind(strings.ToLower(strings.TrimSpace(string(req.Kind))))
	req.CropType = strings.ToLower(strings.TrimSpace(req.CropType))
	req.RegionID = strings.ToLower(strings.TrimSpace(req.RegionID))

	if err := validateRequest(req); err != nil {
		return PredictionRequest{}, fmt.Errorf("parse prediction request: %w", err)
	}

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Year == 0 {
		ts := raw.Timestamp
		if ts.IsZero() {
			ts = clock.Now()
		}
		req.Year = ts.UTC().Year()
	}
	return req, nil
}

func validateRequest(req PredictionRequest) error {
	if req.CropType == "" {
		return errors.New("crop_type is required")
	}
	switch req.Kind {
	case KindBloom, KindHarvest:
		if req.RegionID == "" {
			return fmt.Errorf("region_id is required for %s predictions", req.Kind)
		}
	case KindQuality:
		if req.GDD == nil {
			return errors.New("gdd is required for quality predictions")
		}
	default:
		return fmt.Errorf("unknown prediction kind %q", req.Kind)
	}
	return nil
}

// SerializeEnvelope marshals a prediction envelope into an output event keyed
// by a deterministic hash of crop, region and year so that predictions for the
// same season land on the same partition.
func SerializeEnvelope(env PredictionEnvelope) (OutputEvent, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize prediction envelope: %w", err)
	}

	outcome := "ok"
	if env.Error != "" {
		outcome = "error"
	}

	return OutputEvent{
		Key:   []byte(seasonKey(env.CropType, env.RegionID, env.Year)),
		Value: data,
		Headers: map[string]string{
			"kind":         string(env.Kind),
			"request_id":   env.RequestID,
			"outcome":      outcome,
			"processed_at": env.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

// seasonKey produces a deterministic partition key for a crop season.
func seasonKey(cropType, regionID string, year int) string {
	input := fmt.Sprintf("%s|%s|%d", cropType, regionID, year)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if cropType == "" {
		return short
	}
	return cropType + "-" + short
}
