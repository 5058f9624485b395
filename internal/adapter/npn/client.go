package npn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/observability"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the USA National Phenology Network portal.
	DefaultBaseURL = "https://services.usanpn.org/npn_portal"

	// openFlowersPhenophase is the NPN phenophase ID for "Open flowers".
	openFlowersPhenophase = "501"
	requestSource         = "crop-phenology-service"
	kmPerDegree           = 111.0
	metricSource          = "npn"
)

// Client implements domain.PhenologyNetwork using the USA-NPN observations API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NPN client. A positive interval spaces consecutive
// requests at least that far apart; zero disables client-side spacing.
func NewClient(baseURL string, timeout, interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
	if interval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return c
}

// BloomObservations returns open-flower observations of speciesID during year
// inside a bounding box of radiusKm around lat/lon.
func (c *Client) BloomObservations(ctx context.Context, speciesID, year int, lat, lon, radiusKm float64) ([]domain.BloomObservation, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("npn rate limit: %w", err)
		}
	}

	box := boundingBox(lat, lon, radiusKm)
	params := url.Values{
		"request_src":      {requestSource},
		"species_id[0]":    {strconv.Itoa(speciesID)},
		"phenophase_id[0]": {openFlowersPhenophase},
		"start_date":       {fmt.Sprintf("%d-01-01", year)},
		"end_date":         {fmt.Sprintf("%d-12-31", year)},
		// NPN names latitude x and longitude y.
		"bottom_left_x1": {formatCoord(box.minLat)},
		"bottom_left_y1": {formatCoord(box.minLon)},
		"upper_right_x2": {formatCoord(box.maxLat)},
		"upper_right_y2": {formatCoord(box.maxLon)},
	}

	obs, err := c.doRequest(ctx, c.baseURL+"/observations/getObservations.json?"+params.Encode())
	if err != nil {
		c.metrics.ExternalRequests.WithLabelValues(metricSource, "error").Inc()
		return nil, err
	}
	if len(obs) == 0 {
		c.metrics.ExternalRequests.WithLabelValues(metricSource, "empty").Inc()
	} else {
		c.metrics.ExternalRequests.WithLabelValues(metricSource, "success").Inc()
	}
	c.logger.Debug("npn observations fetched", "species_id", speciesID, "year", year, "count", len(obs))
	return obs, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.BloomObservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ExternalAPIDuration.WithLabelValues(metricSource).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, fmt.Errorf("npn observations request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("npn API error: status %d: %s", resp.StatusCode, body)
	}

	var records []observation
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]domain.BloomObservation, 0, len(records))
	for _, r := range records {
		out = append(out, domain.BloomObservation{DayOfYear: int(r.DayOfYear), Status: int(r.PhenophaseStatus)})
	}
	return out, nil
}

type box struct {
	minLat, minLon, maxLat, maxLon float64
}

// boundingBox approximates a radius as a lat/lon box. Longitude degrees shrink
// with the cosine of latitude.
func boundingBox(lat, lon, radiusKm float64) box {
	dLat := radiusKm / kmPerDegree
	dLon := radiusKm / (kmPerDegree * math.Max(math.Cos(lat*math.Pi/180), 0.01))
	return box{minLat: lat - dLat, minLon: lon - dLon, maxLat: lat + dLat, maxLon: lon + dLon}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// NPN API response types.

type observation struct {
	DayOfYear        flexInt `json:"day_of_year"`
	PhenophaseStatus flexInt `json:"phenophase_status"`
}

// flexInt accepts both JSON numbers and numeric strings; the portal has
// returned either depending on the endpoint version.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("parse integer %q: %w", b, err)
	}
	*f = flexInt(n)
	return nil
}
