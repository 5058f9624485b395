package npn

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/crop-phenology-service/internal/domain"
	"github.com/couchcryptid/crop-phenology-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, timeout, interval time.Duration) *Client {
	return NewClient(baseURL, timeout, interval, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_BloomObservations_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/observations/getObservations.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1226", q.Get("species_id[0]"))
		assert.Equal(t, "501", q.Get("phenophase_id[0]"))
		assert.Equal(t, "2023-01-01", q.Get("start_date"))
		assert.Equal(t, "2023-12-31", q.Get("end_date"))
		assert.Equal(t, "43.9000", q.Get("bottom_left_x1"))
		assert.Equal(t, "45.7000", q.Get("upper_right_x2"))
		assert.NotEmpty(t, q.Get("request_src"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[
			{"day_of_year":120,"phenophase_status":1},
			{"day_of_year":"125","phenophase_status":"1"},
			{"day_of_year":110,"phenophase_status":0},
			{"day_of_year":null,"phenophase_status":-1}
		]`))
	}))
	defer srv.Close()

	// 99.9 km is 0.9 degrees of latitude.
	obs, err := testClient(srv.URL, 5*time.Second, 0).BloomObservations(context.Background(), 1226, 2023, 44.8, -85.6, 99.9)
	require.NoError(t, err)

	assert.Equal(t, []domain.BloomObservation{
		{DayOfYear: 120, Status: 1},
		{DayOfYear: 125, Status: 1},
		{DayOfYear: 110, Status: 0},
		{DayOfYear: 0, Status: -1},
	}, obs)
}

func TestClient_BloomObservations_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second, 0).BloomObservations(context.Background(), 1226, 2023, 44.8, -85.6, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestClient_BloomObservations_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"day_of_year":"abc"}]`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second, 0).BloomObservations(context.Background(), 1226, 2023, 44.8, -85.6, 100)
	require.Error(t, err)
}

func TestClient_BloomObservations_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 50*time.Millisecond, 0).BloomObservations(context.Background(), 1226, 2023, 44.8, -85.6, 100)
	require.Error(t, err)
}

func TestClient_RequestSpacing(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second, 100*time.Millisecond)
	start := time.Now()
	for range 3 {
		_, err := c.BloomObservations(context.Background(), 1226, 2023, 44.8, -85.6, 100)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond, "three requests need two intervals")
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	c := testClient("http://127.0.0.1:0", 5*time.Second, time.Hour)
	c.limiter.Allow() // drain the single burst token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.BloomObservations(ctx, 1226, 2023, 44.8, -85.6, 100)
	require.Error(t, err)
}

func TestBoundingBox(t *testing.T) {
	b := boundingBox(0, 10, 111)
	assert.InDelta(t, -1.0, b.minLat, 1e-9)
	assert.InDelta(t, 1.0, b.maxLat, 1e-9)
	assert.InDelta(t, 9.0, b.minLon, 1e-9)
	assert.InDelta(t, 11.0, b.maxLon, 1e-9)

	north := boundingBox(60, 10, 111)
	assert.InDelta(t, 2.0, north.maxLon-10, 1e-6, "longitude span doubles at 60 degrees")
}
