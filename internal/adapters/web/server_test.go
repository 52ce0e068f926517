package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/corey/zeal/internal/app"
	"github.com/corey/zeal/internal/apperrors"
	"github.com/corey/zeal/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var _ Queries = (*app.App)(nil)

// mockQueries implements Queries for testing.
type mockQueries struct {
	mu        sync.Mutex
	results   []ports.Restaurant
	searchErr error
	loadErr   error
	last      app.SearchState
	gotQuery  ports.ExtractedQuery
	gotFind   string
	loads     int
}

func (m *mockQueries) Status() app.Status {
	return app.Status{Loaded: true, CacheBackend: "memory", Scorer: "lexicon"}
}

func (m *mockQueries) Load(context.Context) (app.LoadInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return app.LoadInfo{}, m.loadErr
	}
	return app.LoadInfo{Source: "test", Hash: "abc", Restaurants: len(m.results)}, nil
}

func (m *mockQueries) Search(_ context.Context, text string) ([]ports.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		m.last.Err = m.searchErr
		return nil, m.searchErr
	}
	dish := "taco"
	m.last = app.SearchState{Text: text, Query: ports.ExtractedQuery{Dish: &dish}, Results: m.results}
	return m.results, nil
}

func (m *mockQueries) SearchStructured(q ports.ExtractedQuery) []ports.Restaurant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotQuery = q
	return m.results
}

func (m *mockQueries) Find(text string) []ports.Restaurant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotFind = text
	return m.results
}

func (m *mockQueries) LastSearch() app.SearchState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func newMock() *mockQueries {
	rating := 4.5
	return &mockQueries{results: []ports.Restaurant{
		{ID: 1, Name: "Taqueria", Rating: &rating, Cuisines: []string{"mexican"}, PopularDishes: []string{"tacos"}},
	}}
}

func setupTestServer(t *testing.T, q Queries) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "zeal_test_total", Help: "test"}))
	srv := NewServer(q, reg, zaptest.NewLogger(t), "")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func postSearch(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/search", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t, newMock())

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["loaded"])
	assert.Equal(t, "memory", body["cache_backend"])
	assert.Contains(t, body, "uptime")
}

func TestRestaurantsEndpoint_Structured(t *testing.T) {
	m := newMock()
	ts := setupTestServer(t, m)

	resp, err := http.Get(ts.URL + "/api/v1/restaurants?dish=taco&location=%20CA%20")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Query   ports.ExtractedQuery `json:"query"`
		Count   int                  `json:"count"`
		Results []ports.Restaurant   `json:"results"`
	}
	decode(t, resp, &body)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "Taqueria", body.Results[0].Name)

	require.NotNil(t, m.gotQuery.Dish)
	assert.Equal(t, "taco", *m.gotQuery.Dish)
	require.NotNil(t, m.gotQuery.Location)
	assert.Equal(t, "CA", *m.gotQuery.Location)
	assert.Nil(t, m.gotQuery.Cuisine)
}

func TestRestaurantsEndpoint_FreeText(t *testing.T) {
	m := newMock()
	ts := setupTestServer(t, m)

	resp, err := http.Get(ts.URL + "/api/v1/restaurants?q=echo+park")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "echo park", m.gotFind)
}

func TestSearchEndpoint_OK(t *testing.T) {
	ts := setupTestServer(t, newMock())

	resp := postSearch(t, ts, `{"query": "tacos in LA"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Query ports.ExtractedQuery `json:"query"`
		Count int                  `json:"count"`
	}
	decode(t, resp, &body)
	assert.Equal(t, 1, body.Count)
	require.NotNil(t, body.Query.Dish)
	assert.Equal(t, "taco", *body.Query.Dish)
}

func TestSearchEndpoint_EmptyQuery(t *testing.T) {
	ts := setupTestServer(t, newMock())

	resp := postSearch(t, ts, `{"query": "  "}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postSearch(t, ts, `not json`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchEndpoint_WrongContentType(t *testing.T) {
	ts := setupTestServer(t, newMock())

	resp, err := http.Post(ts.URL+"/api/v1/search", "text/plain", strings.NewReader(`{"query":"x"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestSearchEndpoint_ExtractionFailure(t *testing.T) {
	m := newMock()
	m.searchErr = apperrors.NewExtractionError(apperrors.KindParse, errors.New("not json"))
	ts := setupTestServer(t, m)

	resp := postSearch(t, ts, `{"query": "tacos"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body struct {
		Error apperrors.StandardError `json:"error"`
	}
	decode(t, resp, &body)
	assert.Equal(t, apperrors.ErrCodeExtractionServiceFailure, body.Error.Code)
	assert.Equal(t, apperrors.KindParse, body.Error.Kind)
}

func TestSearchEndpoint_ConfigMissing(t *testing.T) {
	m := newMock()
	m.searchErr = apperrors.NewConfigMissingError("llm.api_key")
	ts := setupTestServer(t, m)

	resp := postSearch(t, ts, `{"query": "tacos"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLastSearchEndpoint(t *testing.T) {
	m := newMock()
	ts := setupTestServer(t, m)

	resp := postSearch(t, ts, `{"query": "tacos"}`)
	resp.Body.Close()

	m.mu.Lock()
	m.searchErr = apperrors.NewExtractionError(apperrors.KindNetwork, errors.New("timeout"))
	m.mu.Unlock()
	resp = postSearch(t, ts, `{"query": "ramen"}`)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/v1/search/last")
	require.NoError(t, err)
	var body struct {
		Text    string                   `json:"text"`
		Results []ports.Restaurant       `json:"results"`
		Error   *apperrors.StandardError `json:"error"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "tacos", body.Text)
	assert.Len(t, body.Results, 1, "previous results survive a failed search")
	require.NotNil(t, body.Error)
	assert.Equal(t, apperrors.KindNetwork, body.Error.Kind)
}

func TestReloadEndpoint(t *testing.T) {
	m := newMock()
	ts := setupTestServer(t, m)

	resp, err := http.Post(ts.URL+"/api/v1/reload", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var info app.LoadInfo
	decode(t, resp, &info)
	assert.Equal(t, "abc", info.Hash)

	m.mu.Lock()
	m.loadErr = apperrors.NewSourceUnavailableError("/missing.json", os.ErrNotExist)
	m.mu.Unlock()
	resp, err = http.Post(ts.URL+"/api/v1/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	m.mu.Lock()
	assert.Equal(t, 2, m.loads)
	m.mu.Unlock()
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t, newMock())

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "zeal_test_total")
}

func TestStartStop_PortFile(t *testing.T) {
	portFile := filepath.Join(t.TempDir(), "http.port")
	srv := NewServer(newMock(), nil, zaptest.NewLogger(t), portFile)

	require.NoError(t, srv.Start("127.0.0.1:0"))
	raw, err := os.ReadFile(portFile)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d", srv.Port()), string(raw))

	resp, err := http.Get(srv.URL() + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop(context.Background()))
	_, err = os.Stat(portFile)
	assert.True(t, os.IsNotExist(err))

	// Idempotent
	assert.NoError(t, srv.Stop(context.Background()))
}
