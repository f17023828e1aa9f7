package ratesclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/ratecache"
)

const liveBody = `{
	"rates": [{"provider": "RateHub", "rates": [
		{"term": "5 Year", "rate": "4.79%", "type": "Fixed", "lender": "RMG", "payment": "$2,278.83", "popular": true, "bestFor": "Long-term stability"},
		{"term": "5 Year", "rate": "5.10%", "type": "Variable", "lender": "MCAP", "payment": "$2,349.24", "popular": false}
	]}],
	"lastUpdated": "2026-10-18T06:00:00Z",
	"source": "RateHub",
	"dataAge": 30,
	"stale": false,
	"region": "toronto"
}`

func newRateServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/rates", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

type memoryCache struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, maxAge time.Duration) ([]byte, bool, error) {
	m.lastTTL = maxAge
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, payload []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = payload
	return nil
}

func assertFallback(t *testing.T, res Result) {
	t.Helper()
	assert.True(t, res.Degraded)
	assert.NotEmpty(t, res.Reason)
	assert.Equal(t, FallbackSource, res.Source)
	assert.Equal(t, FallbackRates(), res.Rates)
}

func TestFallbackRates(t *testing.T) {
	rates := FallbackRates()
	require.Len(t, rates, 6)

	want := []struct {
		term string
		kind model.RateType
	}{
		{"1 Year", model.RateTypeFixed},
		{"2 Year", model.RateTypeFixed},
		{"3 Year", model.RateTypeFixed},
		{"5 Year", model.RateTypeFixed},
		{"10 Year", model.RateTypeFixed},
		{"5 Year", model.RateTypeVariable},
	}
	popular := 0
	for i, w := range want {
		assert.Equal(t, w.term, rates[i].Term)
		assert.Equal(t, w.kind, rates[i].Type)
		assert.NotEmpty(t, rates[i].Rate)
		if rates[i].Popular {
			popular++
		}
	}
	assert.Equal(t, 1, popular)
	assert.True(t, rates[3].Popular)

	rates[0].Rate = "0.00%"
	assert.Equal(t, "6.09%", FallbackRates()[0].Rate, "callers get a copy")
}

func TestClient_Fetch_Live(t *testing.T) {
	srv, _ := newRateServer(t, http.StatusOK, liveBody)
	client := New(Config{BaseURL: srv.URL + "/"}, nil, nil, nil)

	res := client.Fetch(context.Background(), "toronto")

	assert.False(t, res.Degraded)
	assert.Empty(t, res.Reason)
	assert.Equal(t, "RateHub", res.Source)
	assert.Equal(t, 30, res.DataAge)
	assert.Equal(t, time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC), res.LastUpdated.UTC())
	require.Len(t, res.Rates, 2)
	assert.True(t, res.Rates[0].Popular)
}

func TestClient_Fetch_SendsRegion(t *testing.T) {
	var gotRegion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRegion = r.URL.Query().Get("region")
		_, _ = w.Write([]byte(liveBody))
	}))
	defer srv.Close()

	New(Config{BaseURL: srv.URL}, nil, nil, nil).Fetch(context.Background(), "calgary")
	assert.Equal(t, "calgary", gotRegion)
}

func TestClient_Fetch_Degraded(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"unavailable", http.StatusServiceUnavailable, `{"error":"rates_unavailable","message":"Please call us.","timestamp":"2026-10-19T12:00:00Z"}`, "503: rates_unavailable"},
		{"server error", http.StatusInternalServerError, `oops`, "returned 500"},
		{"malformed body", http.StatusOK, `{"rates": [`, "decode rates"},
		{"empty rates", http.StatusOK, `{"rates": [], "source": "RateHub"}`, ErrNoRates.Error()},
		{"provider without rates", http.StatusOK, `{"rates": [{"provider": "RateHub", "rates": []}]}`, ErrNoRates.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newRateServer(t, tt.status, tt.body)
			res := New(Config{BaseURL: srv.URL}, nil, nil, nil).Fetch(context.Background(), "toronto")

			assertFallback(t, res)
			assert.Contains(t, res.Reason, tt.reason)
		})
	}
}

func TestClient_Fetch_TransportFailure(t *testing.T) {
	srv, _ := newRateServer(t, http.StatusOK, liveBody)
	srv.Close()

	res := New(Config{BaseURL: srv.URL}, nil, nil, nil).Fetch(context.Background(), "toronto")

	assertFallback(t, res)
	assert.Contains(t, res.Reason, "request rates")
}

func TestClient_Fetch_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	res := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil, nil, nil).Fetch(context.Background(), "")
	assertFallback(t, res)
}

func TestClient_FetchPrerender_CachesLiveResults(t *testing.T) {
	srv, hits := newRateServer(t, http.StatusOK, liveBody)
	cache := newMemoryCache()
	client := New(Config{BaseURL: srv.URL, CacheTTL: 4 * time.Hour}, nil, cache, nil)

	first := client.FetchPrerender(context.Background(), "Toronto")
	assert.False(t, first.Degraded)
	assert.False(t, first.FromCache)

	second := client.FetchPrerender(context.Background(), "toronto")
	assert.False(t, second.Degraded)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Rates, second.Rates)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 4*time.Hour, cache.lastTTL)
	assert.Contains(t, cache.data, "rates:toronto")
}

func TestClient_FetchPrerender_SendsCacheDirective(t *testing.T) {
	var directive string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		directive = r.Header.Get("Cache-Control")
		_, _ = w.Write([]byte(liveBody))
	}))
	defer srv.Close()

	New(Config{BaseURL: srv.URL, CacheTTL: 4 * time.Hour}, nil, nil, nil).FetchPrerender(context.Background(), "")
	assert.Equal(t, "max-age=14400", directive)
}

func TestClient_FetchPrerender_DoesNotCacheDegraded(t *testing.T) {
	srv, hits := newRateServer(t, http.StatusServiceUnavailable, `{"error":"rates_unavailable"}`)
	cache := newMemoryCache()
	client := New(Config{BaseURL: srv.URL, CacheTTL: time.Hour}, nil, cache, nil)

	assertFallback(t, client.FetchPrerender(context.Background(), "toronto"))
	assertFallback(t, client.FetchPrerender(context.Background(), "toronto"))

	assert.Empty(t, cache.data)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_FetchPrerender_CacheErrors(t *testing.T) {
	srv, _ := newRateServer(t, http.StatusOK, liveBody)
	cache := newMemoryCache()
	cache.getErr = errors.New("database is locked")
	cache.setErr = errors.New("disk I/O error")

	res := New(Config{BaseURL: srv.URL, CacheTTL: time.Hour}, nil, cache, nil).FetchPrerender(context.Background(), "toronto")

	assert.False(t, res.Degraded, "cache failures fall through to the API")
	assert.Len(t, res.Rates, 2)
}

func TestClient_FetchPrerender_UnreadableCacheEntry(t *testing.T) {
	srv, hits := newRateServer(t, http.StatusOK, liveBody)
	cache := newMemoryCache()
	cache.data["rates:toronto"] = []byte(`not json`)

	res := New(Config{BaseURL: srv.URL, CacheTTL: time.Hour}, nil, cache, nil).FetchPrerender(context.Background(), "toronto")

	assert.False(t, res.Degraded)
	assert.False(t, res.FromCache)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_FetchPrerender_SQLiteCache(t *testing.T) {
	srv, hits := newRateServer(t, http.StatusOK, liveBody)
	cache, err := ratecache.Open(filepath.Join(t.TempDir(), "rates.db"))
	require.NoError(t, err)
	defer cache.Close()

	client := New(Config{BaseURL: srv.URL, CacheTTL: 4 * time.Hour}, nil, cache, nil)
	client.FetchPrerender(context.Background(), "toronto")
	res := client.FetchPrerender(context.Background(), "toronto")

	assert.True(t, res.FromCache)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil, nil, nil)
	assert.Equal(t, "http://localhost:8080", c.cfg.BaseURL)
	assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
}
