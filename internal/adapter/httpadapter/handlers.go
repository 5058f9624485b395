package httpadapter

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
)

// Predictor is the forecast surface served over HTTP.
type Predictor interface {
	PredictBloom(ctx context.Context, cropType, regionID string, year int) (domain.BloomPrediction, error)
	PredictHarvest(ctx context.Context, cropType, regionID string, year int, asOf time.Time) (domain.HarvestPrediction, error)
	PredictQuality(cropType string, gdd float64) (domain.QualityCurveResult, error)
	Profiles() *domain.ProfileRegistry
}

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleListCrops(w http.ResponseWriter, _ *http.Request) {
	reg := s.predictor.Profiles()
	profiles := make([]domain.CropProfile, 0, len(reg.Keys()))
	for _, key := range reg.Keys() {
		p, err := reg.Lookup(key)
		if err != nil {
			continue
		}
		profiles = append(profiles, p)
	}
	sharedobs.WriteJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleBloom(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query().Get("year"), domain.Today().Year())
	if err != nil {
		s.badRequest(w, err)
		return
	}

	pred, err := s.predictor.PredictBloom(r.Context(), pathParam(r, "crop"), pathParam(r, "region"), year)
	if err != nil {
		s.predictionError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, pred)
}

func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var asOf time.Time
	if raw := q.Get("as_of"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			s.badRequest(w, errors.New("as_of must be YYYY-MM-DD"))
			return
		}
		asOf = t
	}

	defaultYear := domain.Today().Year()
	if !asOf.IsZero() {
		defaultYear = asOf.Year()
	}
	year, err := parseYear(q.Get("year"), defaultYear)
	if err != nil {
		s.badRequest(w, err)
		return
	}

	pred, err := s.predictor.PredictHarvest(r.Context(), pathParam(r, "crop"), pathParam(r, "region"), year, asOf)
	if err != nil {
		s.predictionError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, pred)
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("gdd")
	gdd, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(gdd) || math.IsInf(gdd, 0) || gdd < 0 {
		s.badRequest(w, errors.New("gdd must be a finite non-negative number"))
		return
	}

	res, err := s.predictor.PredictQuality(pathParam(r, "crop"), gdd)
	if err != nil {
		s.predictionError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *Server) predictionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingProfile), errors.Is(err, domain.ErrUnknownRegion):
		sharedobs.WriteJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("prediction failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func pathParam(r *http.Request, name string) string {
	return strings.ToLower(strings.TrimSpace(chi.URLParam(r, name)))
}

func parseYear(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 2200 {
		return 0, errors.New("year must be a four-digit year")
	}
	return year, nil
}
