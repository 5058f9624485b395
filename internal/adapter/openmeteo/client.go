package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/observability"
)

const (
	// DefaultBaseURL is the Open-Meteo historical archive endpoint.
	DefaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

	metricSource = "weather"
	dateLayout   = "2006-01-02"
)

// Client implements domain.WeatherSource using the Open-Meteo archive API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	regions    domain.RegionLocator
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo archive client. Region IDs are resolved to
// coordinates through regions.
func NewClient(baseURL string, timeout time.Duration, regions domain.RegionLocator, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		regions: regions,
		metrics: metrics,
		logger:  logger,
	}
}

// DailyObservations fetches daily high, low, mean and precipitation for the
// region between start and end inclusive. Days where the archive has no high
// or low are omitted.
func (c *Client) DailyObservations(ctx context.Context, regionID string, start, end time.Time) ([]domain.DailyObservation, error) {
	region, err := c.regions.Region(regionID)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"latitude":           {strconv.FormatFloat(region.Lat, 'f', 4, 64)},
		"longitude":          {strconv.FormatFloat(region.Lon, 'f', 4, 64)},
		"start_date":         {start.Format(dateLayout)},
		"end_date":           {end.Format(dateLayout)},
		"daily":              {"temperature_2m_max,temperature_2m_min,temperature_2m_mean,precipitation_sum"},
		"temperature_unit":   {"fahrenheit"},
		"precipitation_unit": {"inch"},
		"timezone":           {"auto"},
	}

	obs, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		c.metrics.ExternalRequests.WithLabelValues(metricSource, "error").Inc()
		return nil, err
	}
	if len(obs) == 0 {
		c.metrics.ExternalRequests.WithLabelValues(metricSource, "empty").Inc()
	} else {
		c.metrics.ExternalRequests.WithLabelValues(metricSource, "success").Inc()
	}
	c.logger.Debug("weather fetched", "region_id", regionID, "start", start.Format(dateLayout), "end", end.Format(dateLayout), "days", len(obs))
	return obs, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.DailyObservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ExternalAPIDuration.WithLabelValues(metricSource).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, fmt.Errorf("weather archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var archive response
	if err := json.NewDecoder(resp.Body).Decode(&archive); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return archive.Daily.observations()
}

// Open-Meteo API response types. Missing readings are JSON null.

type response struct {
	Daily daily `json:"daily"`
}

type daily struct {
	Time          []string   `json:"time"`
	TempMax       []*float64 `json:"temperature_2m_max"`
	TempMin       []*float64 `json:"temperature_2m_min"`
	TempMean      []*float64 `json:"temperature_2m_mean"`
	Precipitation []*float64 `json:"precipitation_sum"`
}

func (d daily) observations() ([]domain.DailyObservation, error) {
	out := make([]domain.DailyObservation, 0, len(d.Time))
	for i, day := range d.Time {
		high, low := at(d.TempMax, i), at(d.TempMin, i)
		if high == nil || low == nil {
			continue
		}
		date, err := time.Parse(dateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", day, err)
		}
		out = append(out, domain.DailyObservation{
			Date:          date,
			TempHigh:      *high,
			TempLow:       *low,
			TempAvg:       at(d.TempMean, i),
			Precipitation: at(d.Precipitation, i),
		})
	}
	return out, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
