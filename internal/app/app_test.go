package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corey/zeal/internal/adapters/memory"
	"github.com/corey/zeal/internal/apperrors"
	"github.com/corey/zeal/internal/config"
	"github.com/corey/zeal/internal/domain/cache"
	"github.com/corey/zeal/internal/ports"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type positiveScorer struct{}

func (positiveScorer) Score(context.Context, string) (float64, error) { return 0.9, nil }

// stubExtractor returns q, or err when set.
type stubExtractor struct {
	mu  sync.Mutex
	q   ports.ExtractedQuery
	err error
}

func (s *stubExtractor) Extract(context.Context, string) (ports.ExtractedQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q, s.err
}

func (s *stubExtractor) set(q ports.ExtractedQuery, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.q, s.err = q, err
}

func strp(s string) *string { return &s }

func newTestApp(t *testing.T, settings *config.Config, ext ports.QueryExtractor) *App {
	t.Helper()
	if settings == nil {
		settings = config.Default()
	}
	settings.Cache.Backend = config.CacheMemory
	settings.Build.Workers = 2
	a, err := New(context.Background(), Config{
		Settings:  settings,
		Log:       zaptest.NewLogger(t),
		Store:     memory.NewStore(),
		Extractor: ext,
		Scorer:    positiveScorer{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func writeSource(t *testing.T, path string, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestApp_SearchBeforeLoad_Empty(t *testing.T) {
	ext := &stubExtractor{q: ports.ExtractedQuery{Dish: strp("taco")}}
	a := newTestApp(t, nil, ext)

	results, err := a.Search(context.Background(), "tacos please")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.False(t, a.Status().Loaded)
}

func TestApp_Load_Bundle_SecondLoadHits(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil, nil)

	first, err := a.Load(ctx)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, cache.OutcomeMiss, first.Outcome)
	assert.Greater(t, first.Restaurants, 0)
	assert.Equal(t, "bundle:restaurant_data.json", first.Source)

	second, err := a.Load(ctx)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Restaurants, len(a.Catalog()))

	reg := a.Registry()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.CatalogBuilds))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, float64(first.Restaurants), testutil.ToFloat64(a.metrics.Restaurants))
	n, err := testutil.GatherAndCount(reg, "zeal_catalog_builds_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApp_Invalidate_ForcesRebuild(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil, nil)

	_, err := a.Load(ctx)
	require.NoError(t, err)
	_, ok, err := a.StoredHash(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Invalidate(ctx))
	_, ok, err = a.StoredHash(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	info, err := a.Load(ctx)
	require.NoError(t, err)
	assert.False(t, info.CacheHit)
}

func TestApp_Search_FiltersAndRanks(t *testing.T) {
	ext := &stubExtractor{q: ports.ExtractedQuery{Dish: strp(" taco "), Location: strp("CA")}}
	a := newTestApp(t, nil, ext)
	_, err := a.Load(context.Background())
	require.NoError(t, err)

	results, err := a.Search(context.Background(), "tacos in california")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for i, r := range results {
		assert.True(t, strings.Contains(strings.Join(r.PopularDishes, " "), "taco"), "result %d dishes %v", i, r.PopularDishes)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].RatingOrZero(), r.RatingOrZero())
		}
	}

	last := a.LastSearch()
	assert.NoError(t, last.Err)
	assert.Equal(t, "tacos in california", last.Text)
	require.NotNil(t, last.Query.Dish)
	assert.Equal(t, "taco", *last.Query.Dish, "extracted fields are trimmed")
	assert.Len(t, last.Results, len(results))
}

func TestApp_Search_ExtractionFailureKeepsPreviousResults(t *testing.T) {
	ctx := context.Background()
	ext := &stubExtractor{q: ports.ExtractedQuery{Cuisine: strp("mexican")}}
	a := newTestApp(t, nil, ext)
	_, err := a.Load(ctx)
	require.NoError(t, err)

	before, err := a.Search(ctx, "mexican food")
	require.NoError(t, err)
	require.NotEmpty(t, before)

	ext.set(ports.ExtractedQuery{}, apperrors.NewExtractionError(apperrors.KindNetwork, errors.New("connection refused")))
	results, err := a.Search(ctx, "anything")
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, apperrors.ExtractionServiceFailure))

	last := a.LastSearch()
	assert.Equal(t, err, last.Err)
	assert.Equal(t, before, last.Results)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.Searches.WithLabelValues(searchFailed)))
}

func TestApp_Search_NoExtractorIsConfigMissing(t *testing.T) {
	a := newTestApp(t, nil, nil)

	_, err := a.Search(context.Background(), "sushi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ConfigMissing))
	assert.False(t, a.Status().Extraction)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.Searches.WithLabelValues(searchConfigMissing)))
}

func TestApp_SearchStructured_WildcardReturnsAllRanked(t *testing.T) {
	a := newTestApp(t, nil, nil)
	_, err := a.Load(context.Background())
	require.NoError(t, err)

	results := a.SearchStructured(ports.ExtractedQuery{Dish: strp("  ")})
	assert.Len(t, results, len(a.Catalog()))
	assert.Equal(t, results, a.LastSearch().Results)
}

func TestApp_Find(t *testing.T) {
	a := newTestApp(t, nil, nil)
	_, err := a.Load(context.Background())
	require.NoError(t, err)

	results := a.Find("Omakase")
	require.NotEmpty(t, results)
	assert.Equal(t, "Sakura Omakase", results[0].Name)
	assert.Empty(t, a.LastSearch().Results, "find does not replace the last search")
}

func TestApp_Load_SourceUnavailableKeepsCatalog(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "restaurants.json")
	writeSource(t, path, `[{"id": 1, "name": "One", "cuisine_list": ["Thai"]}]`)

	settings := config.Default()
	settings.Source.Path = path
	a := newTestApp(t, settings, nil)

	_, err := a.Load(ctx)
	require.NoError(t, err)
	require.Len(t, a.Catalog(), 1)

	require.NoError(t, os.Remove(path))
	_, err = a.Load(ctx)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSourceUnavailable, apperrors.CodeOf(err))
	assert.Len(t, a.Catalog(), 1)
}

func TestApp_Load_MalformedSourceIsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restaurants.json")
	writeSource(t, path, `{"not": "a list"}`)

	settings := config.Default()
	settings.Source.Path = path
	a := newTestApp(t, settings, nil)

	info, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, info.Restaurants)
	assert.Empty(t, a.Catalog())
}

func TestApp_Watch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restaurants.json")
	writeSource(t, path, `[{"id": 1, "name": "One"}]`)

	settings := config.Default()
	settings.Source.Path = path
	a := newTestApp(t, settings, nil)

	_, err := a.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.Watch())
	assert.True(t, a.Status().Watching)
	assert.Error(t, a.Watch(), "second watch is rejected")

	writeSource(t, path, `[{"id": 1, "name": "One"}, {"id": 2, "name": "Two"}]`)

	require.Eventually(t, func() bool {
		return len(a.Catalog()) == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestApp_Watch_NeedsSourcePath(t *testing.T) {
	a := newTestApp(t, nil, nil)
	assert.Error(t, a.Watch())
}

func TestApp_Status(t *testing.T) {
	a := newTestApp(t, nil, &stubExtractor{})
	_, err := a.Load(context.Background())
	require.NoError(t, err)

	s := a.Status()
	assert.True(t, s.Loaded)
	require.NotNil(t, s.Load)
	assert.Equal(t, config.CacheMemory, s.CacheBackend)
	assert.Equal(t, config.ScorerLexicon, s.Scorer)
	assert.True(t, s.Extraction)
	assert.Equal(t, 98, s.CuisineEntries)
	assert.Equal(t, 88, s.CuisineTerms)
}

func TestNew_LLMScorerNeedsKey(t *testing.T) {
	settings := config.Default()
	settings.Cache.Backend = config.CacheMemory
	settings.Sentiment.Scorer = config.ScorerLLM

	_, err := New(context.Background(), Config{Settings: settings, Store: memory.NewStore()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ConfigMissing))
}

func TestNew_OpensBboltFromSettings(t *testing.T) {
	settings := config.Default()
	settings.Cache.Path = filepath.Join(t.TempDir(), ".zeal", "cache.db")

	a, err := New(context.Background(), Config{Settings: settings, Scorer: positiveScorer{}})
	require.NoError(t, err)
	_, err = a.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// Reopening the same file sees the committed cache.
	b, err := New(context.Background(), Config{Settings: settings, Scorer: positiveScorer{}})
	require.NoError(t, err)
	defer b.Close()
	info, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, info.CacheHit)
}
