package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
)

// Predictor is the forecast surface the transformer dispatches to.
type Predictor interface {
	PredictBloom(ctx context.Context, cropType, regionID string, year int) (domain.BloomPrediction, error)
	PredictHarvest(ctx context.Context, cropType, regionID string, year int, asOf time.Time) (domain.HarvestPrediction, error)
	PredictQuality(cropType string, gdd float64) (domain.QualityCurveResult, error)
}

// PredictionTransformer turns prediction requests into prediction envelopes.
type PredictionTransformer struct {
	predictor Predictor
	logger    *slog.Logger
}

// NewTransformer creates a PredictionTransformer.
func NewTransformer(predictor Predictor, logger *slog.Logger) *PredictionTransformer {
	return &PredictionTransformer{
		predictor: predictor,
		logger:    logger,
	}
}

// Transform parses the request and runs the prediction. Unparseable messages
// are returned as errors so the pipeline skips them. A well-formed request
// the predictor rejects, such as one naming an unknown crop or region, yields
// an envelope carrying the error so the caller still gets an answer.
func (t *PredictionTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParsePredictionRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	env := domain.PredictionEnvelope{
		RequestID: req.RequestID,
		Kind:      req.Kind,
		CropType:  req.CropType,
		RegionID:  req.RegionID,
		Year:      req.Year,
	}

	switch req.Kind {
	case domain.KindBloom:
		var pred domain.BloomPrediction
		pred, err = t.predictor.PredictBloom(ctx, req.CropType, req.RegionID, req.Year)
		env.Bloom = &pred
	case domain.KindHarvest:
		var asOf time.Time
		if req.AsOf != nil {
			asOf = *req.AsOf
		}
		var pred domain.HarvestPrediction
		pred, err = t.predictor.PredictHarvest(ctx, req.CropType, req.RegionID, req.Year, asOf)
		env.Harvest = &pred
	case domain.KindQuality:
		var res domain.QualityCurveResult
		res, err = t.predictor.PredictQuality(req.CropType, *req.GDD)
		env.Quality = &res
	}

	if err != nil {
		t.logger.Warn("prediction rejected", "request_id", req.RequestID, "kind", req.Kind, "error", err)
		env.Bloom, env.Harvest, env.Quality = nil, nil, nil
		env.Error = err.Error()
	}

	env.ProcessedAt = domain.Now()
	return domain.SerializeEnvelope(env)
}
