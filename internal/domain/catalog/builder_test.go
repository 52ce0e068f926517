package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/corey/zeal/bundle"
	"github.com/corey/zeal/internal/adapters/ahocorasick"
	"github.com/corey/zeal/internal/adapters/memory"
	"github.com/corey/zeal/internal/domain/cache"
	"github.com/corey/zeal/internal/domain/enricher"
	"github.com/corey/zeal/internal/domain/record"
	"github.com/corey/zeal/internal/domain/sentiment"
	"github.com/corey/zeal/internal/ports"
	"github.com/corey/zeal/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// wordScorer scores text positive when it contains a praise word.
type wordScorer struct {
	calls int
}

var praise = []string{"incredible", "loved", "amazing", "wonderful", "fluffy", "great"}

func (w *wordScorer) Score(_ context.Context, text string) (float64, error) {
	w.calls++
	lower := strings.ToLower(text)
	for _, p := range praise {
		if strings.Contains(lower, p) {
			return 0.8, nil
		}
	}
	return -0.5, nil
}

// countingStore counts writes and can be told to fail them.
type countingStore struct {
	*memory.Store
	sets    int
	failSet bool
}

func (c *countingStore) SetAll(ctx context.Context, entries map[string][]byte) error {
	c.sets++
	if c.failSet {
		return errors.New("read-only")
	}
	return c.Store.SetAll(ctx, entries)
}

func newBuilder(t *testing.T, store ports.KVStore, workers int) *Builder {
	t.Helper()
	log := zaptest.NewLogger(t)
	e, err := enricher.NewFromFS(vocab.FS, vocab.CuisinesPath, vocab.DishesPath, func() ports.PatternMatcher {
		return &ahocorasick.Matcher{}
	})
	require.NoError(t, err)
	return NewBuilder(e, sentiment.NewGate(&wordScorer{}, log), cache.NewManager(store, log), workers, log)
}

func byID(catalog []ports.Restaurant, id int) ports.Restaurant {
	for _, r := range catalog {
		if r.ID == id {
			return r
		}
	}
	return ports.Restaurant{}
}

// =============================================================================
// Build
// =============================================================================

func TestBuild_BundlePreservesSourceOrder(t *testing.T) {
	b := newBuilder(t, memory.NewStore(), 4)
	catalog := b.Build(context.Background(), bundle.Data)

	require.Len(t, catalog, 8)
	for i, r := range catalog {
		assert.Equal(t, i+1, r.ID)
	}
}

func TestBuild_Enrichment(t *testing.T) {
	b := newBuilder(t, memory.NewStore(), 2)
	catalog := b.Build(context.Background(), bundle.Data)

	estrella := byID(catalog, 1)
	assert.Equal(t, []string{"mexican", "tex-mex"}, estrella.Cuisines)
	assert.Equal(t, []string{"burrito", "tacos"}, estrella.PopularDishes, "negative sandwich review is gated out")
	require.NotNil(t, estrella.State)
	assert.Equal(t, "CA", *estrella.State)

	bombay := byID(catalog, 3)
	assert.Equal(t, []string{"biryani", "curry"}, bombay.PopularDishes, "dumplings only appear in a negative review")

	smoke := byID(catalog, 5)
	assert.Equal(t, []string{"barbecue", "bbq", "southern"}, smoke.Cuisines)
	assert.Equal(t, []string{"fried chicken", "sandwich", "steak"}, smoke.PopularDishes, "object-shaped review contributes")

	griddle := byID(catalog, 8)
	assert.Equal(t, []string{"american", "vegetarian"}, griddle.Cuisines)
	assert.Equal(t, []string{"burger", "pancakes"}, griddle.PopularDishes)
}

func TestBuild_DefaultsAndNormalization(t *testing.T) {
	b := newBuilder(t, memory.NewStore(), 1)
	catalog := b.Build(context.Background(), bundle.Data)

	pho := byID(catalog, 6)
	assert.Nil(t, pho.City, "empty city is absent")
	require.NotNil(t, pho.State)
	assert.Equal(t, "CA", *pho.State)
	assert.Equal(t, "", pho.EndorsementCopy)
	assert.Nil(t, pho.Rating)

	unnamed := byID(catalog, 7)
	assert.Equal(t, record.UnknownName, unnamed.Name)
	assert.Equal(t, []string{"sushi"}, unnamed.PopularDishes, "whole-blob fuzzy match")
}

func TestBuild_AbsentDescription(t *testing.T) {
	b := newBuilder(t, memory.NewStore(), 1)
	catalog := b.Build(context.Background(), []byte(`[{"id": 1, "name": "Plain"}]`))

	require.Len(t, catalog, 1)
	assert.Equal(t, "", catalog[0].Description)
	assert.NotNil(t, catalog[0].Cuisines)
	assert.NotNil(t, catalog[0].PopularDishes)
}

func TestBuild_MalformedTopLevelIsEmpty(t *testing.T) {
	b := newBuilder(t, memory.NewStore(), 1)
	for _, payload := range []string{``, `{}`, `"x"`, `[1,2]`, `not json`} {
		catalog := b.Build(context.Background(), []byte(payload))
		assert.NotNil(t, catalog, payload)
		assert.Empty(t, catalog, payload)
	}
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	seq := newBuilder(t, memory.NewStore(), 1).Build(context.Background(), bundle.Data)
	par := newBuilder(t, memory.NewStore(), 8).Build(context.Background(), bundle.Data)
	assert.Equal(t, seq, par)
}

func TestBuild_DuplicateIDsKept(t *testing.T) {
	b := newBuilder(t, memory.NewStore(), 1)
	catalog := b.Build(context.Background(), []byte(`[{"id": 1, "name": "A"}, {"id": 1, "name": "B"}, {}, {}]`))
	require.Len(t, catalog, 4)
	assert.Equal(t, "A", catalog[0].Name)
	assert.Equal(t, "B", catalog[1].Name)
}

// =============================================================================
// Load: cache read/write decisions
// =============================================================================

func TestLoad_MissThenHit(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: memory.NewStore()}
	b := newBuilder(t, store, 2)

	first, err := b.Load(ctx, bundle.Data)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, cache.OutcomeMiss, first.Outcome)
	assert.Len(t, first.Catalog, 8)
	assert.Equal(t, 1, store.sets)

	second, err := b.Load(ctx, bundle.Data)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Catalog, second.Catalog)
	assert.Zero(t, second.BuildDuration)
	assert.Equal(t, 1, store.sets, "a hit writes nothing")
}

func TestLoad_HitSkipsSentimentScoring(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	log := zaptest.NewLogger(t)
	scorer := &wordScorer{}
	e, err := enricher.NewFromFS(vocab.FS, vocab.CuisinesPath, vocab.DishesPath, func() ports.PatternMatcher {
		return &ahocorasick.Matcher{}
	})
	require.NoError(t, err)
	b := NewBuilder(e, sentiment.NewGate(scorer, log), cache.NewManager(store, log), 1, log)

	_, err = b.Load(ctx, bundle.Data)
	require.NoError(t, err)
	calls := scorer.calls
	require.Positive(t, calls)

	_, err = b.Load(ctx, bundle.Data)
	require.NoError(t, err)
	assert.Equal(t, calls, scorer.calls, "no recomputation on identical bytes")
}

func TestLoad_MutationRebuilds(t *testing.T) {
	ctx := context.Background()
	b := newBuilder(t, memory.NewStore(), 2)

	_, err := b.Load(ctx, bundle.Data)
	require.NoError(t, err)

	mutated := []byte(strings.Replace(string(bundle.Data), "Sakura Omakase", "Sakura Omakasf", 1))
	res, err := b.Load(ctx, mutated)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, cache.OutcomeStale, res.Outcome)
	assert.Equal(t, "Sakura Omakasf", byID(res.Catalog, 2).Name)
}

func TestLoad_StoreFailureDoesNotFailLoad(t *testing.T) {
	store := &countingStore{Store: memory.NewStore(), failSet: true}
	b := newBuilder(t, store, 1)

	res, err := b.Load(context.Background(), bundle.Data)
	require.NoError(t, err)
	assert.Len(t, res.Catalog, 8)
}

func TestLoad_EmptyCatalogNeverHits(t *testing.T) {
	ctx := context.Background()
	b := newBuilder(t, memory.NewStore(), 1)

	_, err := b.Load(ctx, []byte(`[]`))
	require.NoError(t, err)
	res, err := b.Load(ctx, []byte(`[]`))
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Empty(t, res.Catalog)
}
