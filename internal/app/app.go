// Package app wires together all adapters and domain logic.
// It owns the in-memory catalog snapshot and the last search outcome, and
// provides lifecycle management: create, load, watch, close.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/corey/zeal/bundle"
	"github.com/corey/zeal/internal/adapters/ahocorasick"
	"github.com/corey/zeal/internal/adapters/bbolt"
	fsw "github.com/corey/zeal/internal/adapters/fsnotify"
	"github.com/corey/zeal/internal/adapters/memory"
	"github.com/corey/zeal/internal/adapters/openai"
	"github.com/corey/zeal/internal/adapters/redis"
	"github.com/corey/zeal/internal/adapters/vader"
	"github.com/corey/zeal/internal/apperrors"
	"github.com/corey/zeal/internal/config"
	"github.com/corey/zeal/internal/domain/cache"
	"github.com/corey/zeal/internal/domain/catalog"
	"github.com/corey/zeal/internal/domain/enricher"
	"github.com/corey/zeal/internal/domain/query"
	"github.com/corey/zeal/internal/domain/sentiment"
	"github.com/corey/zeal/internal/ports"
	"github.com/corey/zeal/vocab"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Config holds the settings for creating an App. Store, Extractor and Scorer
// override what Settings would otherwise select; tests use them to inject
// fakes.
type Config struct {
	Settings  *config.Config
	Log       *zap.Logger
	Store     ports.KVStore
	Extractor ports.QueryExtractor
	Scorer    ports.SentimentScorer
	Registry  *prometheus.Registry
}

// LoadInfo describes the catalog currently being served.
type LoadInfo struct {
	Source      string        `json:"source"`
	Hash        string        `json:"hash"`
	CacheHit    bool          `json:"cache_hit"`
	Outcome     cache.Outcome `json:"cache_outcome"`
	Restaurants int           `json:"restaurants"`
	LoadedAt    time.Time     `json:"loaded_at"`
	BuildTime   time.Duration `json:"build_time_ns"`
}

// SearchState is the outcome of the most recent search. Err is set only when
// the last search failed; Results then still hold the previous success.
type SearchState struct {
	Text    string               `json:"text,omitempty"`
	Query   ports.ExtractedQuery `json:"query"`
	Results []ports.Restaurant   `json:"results"`
	Err     error                `json:"-"`
	At      time.Time            `json:"at"`
}

// Status summarizes the App for `zeal stats` and /api/v1/health.
type Status struct {
	Loaded         bool      `json:"loaded"`
	Load           *LoadInfo `json:"load,omitempty"`
	CacheBackend   string    `json:"cache_backend"`
	Scorer         string    `json:"sentiment_scorer"`
	Extraction     bool      `json:"extraction_configured"`
	Watching       bool      `json:"watching"`
	CuisineEntries int       `json:"cuisine_entries"`
	CuisineTerms   int       `json:"cuisine_terms"`
	DishEntries    int       `json:"dish_entries"`
	DishTerms      int       `json:"dish_terms"`
}

// App is the zeal application: catalog state plus the components that
// produce and query it.
type App struct {
	settings  *config.Config
	log       *zap.Logger
	store     ports.KVStore
	extractor ports.QueryExtractor
	enricher  *enricher.Enricher
	cache     *cache.Manager
	builder   *catalog.Builder
	metrics   *Metrics
	registry  *prometheus.Registry

	reloadMu sync.Mutex // serializes Load; never held by readers

	mu       sync.RWMutex
	catalog  []ports.Restaurant
	loadInfo *LoadInfo
	last     SearchState

	watchMu sync.Mutex
	watcher ports.Watcher
}

// New creates a new App from the given configuration.
func New(ctx context.Context, cfg Config) (*App, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	var llm *openai.Client
	if settings.LLM.APIKey != "" {
		llm = openai.NewClient(openai.Config{
			APIKey:      settings.LLM.APIKey,
			BaseURL:     settings.LLM.BaseURL,
			Model:       settings.LLM.Model,
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
			Timeout:     settings.LLM.Timeout,
			Retry: openai.RetryConfig{
				MaxRetries: settings.LLM.MaxRetries,
			},
		}, log)
	}

	scorer := cfg.Scorer
	if scorer == nil {
		switch settings.Sentiment.Scorer {
		case config.ScorerLLM:
			if err := settings.RequireLLM(); err != nil {
				return nil, err
			}
			scorer = openai.NewSentimentScorer(llm)
		default:
			scorer = vader.New()
		}
	}

	extractor := cfg.Extractor
	if extractor == nil && llm != nil {
		extractor = openai.NewExtractor(llm)
	}

	enr, err := enricher.NewFromFS(vocab.FS, vocab.CuisinesPath, vocab.DishesPath, func() ports.PatternMatcher {
		return &ahocorasick.Matcher{}
	})
	if err != nil {
		return nil, fmt.Errorf("load vocabularies: %w", err)
	}

	store := cfg.Store
	if store == nil {
		store, err = openStore(ctx, settings.Cache)
		if err != nil {
			return nil, err
		}
	}

	cm := cache.NewManager(store, log)
	a := &App{
		settings:  settings,
		log:       log,
		store:     store,
		extractor: extractor,
		enricher:  enr,
		cache:     cm,
		builder:   catalog.NewBuilder(enr, sentiment.NewGate(scorer, log), cm, settings.Build.Workers, log),
		metrics:   NewMetrics(reg),
		registry:  reg,
		catalog:   []ports.Restaurant{},
	}
	a.last.Results = []ports.Restaurant{}
	return a, nil
}

// openStore opens the cache backend named by the settings.
func openStore(ctx context.Context, c config.CacheConfig) (ports.KVStore, error) {
	switch c.Backend {
	case config.CacheRedis:
		s, err := redis.NewStore(ctx, redis.Config{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return s, nil
	case config.CacheMemory:
		return memory.NewStore(), nil
	default:
		s, err := bbolt.NewStore(c.Path)
		if err != nil {
			return nil, fmt.Errorf("open cache %s: %w", c.Path, err)
		}
		return s, nil
	}
}

// Load reads the source, then serves the cached catalog or rebuilds it.
// When the source cannot be read the current catalog is kept and a
// SOURCE_UNAVAILABLE error is returned.
func (a *App) Load(ctx context.Context) (LoadInfo, error) {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	raw, source, err := a.readSource()
	if err != nil {
		a.log.Error("source unavailable", zap.String("source", source), zap.Error(err))
		return LoadInfo{}, err
	}

	res, err := a.builder.Load(ctx, raw)
	if err != nil {
		return LoadInfo{}, err
	}

	a.metrics.CacheLookups.WithLabelValues(string(res.Outcome)).Inc()
	if !res.CacheHit {
		a.metrics.CatalogBuilds.Inc()
		a.metrics.BuildDuration.Observe(res.BuildDuration.Seconds())
	}
	a.metrics.Restaurants.Set(float64(len(res.Catalog)))

	info := LoadInfo{
		Source:      source,
		Hash:        res.Hash,
		CacheHit:    res.CacheHit,
		Outcome:     res.Outcome,
		Restaurants: len(res.Catalog),
		LoadedAt:    time.Now(),
		BuildTime:   res.BuildDuration,
	}

	a.mu.Lock()
	a.catalog = res.Catalog
	a.loadInfo = &info
	a.mu.Unlock()

	a.log.Info("catalog loaded",
		zap.String("source", source),
		zap.Int("restaurants", info.Restaurants),
		zap.String("cache", string(info.Outcome)))
	return info, nil
}

func (a *App) readSource() ([]byte, string, error) {
	path := a.settings.Source.Path
	if path == "" {
		return bundle.Data, bundle.Name, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, path, apperrors.NewSourceUnavailableError(path, err)
	}
	return raw, path, nil
}

// Extract runs structured extraction on text without touching search state.
func (a *App) Extract(ctx context.Context, text string) (ports.ExtractedQuery, error) {
	if a.extractor == nil {
		return ports.ExtractedQuery{}, apperrors.NewConfigMissingError("llm.api_key")
	}
	q, err := a.extractor.Extract(ctx, text)
	if err != nil {
		return ports.ExtractedQuery{}, err
	}
	return q.Normalize(), nil
}

// Search extracts a query from text and filters the catalog with it.
// On failure the error is recorded and the previous results stay in place.
func (a *App) Search(ctx context.Context, text string) ([]ports.Restaurant, error) {
	q, err := a.Extract(ctx, text)
	if err != nil {
		status := searchFailed
		if errors.Is(err, apperrors.ConfigMissing) {
			status = searchConfigMissing
		}
		a.metrics.Searches.WithLabelValues(status).Inc()
		a.log.Warn("search failed", zap.String("text", text), zap.Error(err))

		a.mu.Lock()
		a.last.Text = text
		a.last.Err = err
		a.last.At = time.Now()
		a.mu.Unlock()
		return nil, err
	}

	results := a.record(text, q)
	a.log.Debug("search", zap.String("text", text), zap.Stringer("query", q), zap.Int("results", len(results)))
	return results, nil
}

// SearchStructured filters the catalog with an already extracted query.
func (a *App) SearchStructured(q ports.ExtractedQuery) []ports.Restaurant {
	return a.record("", q.Normalize())
}

func (a *App) record(text string, q ports.ExtractedQuery) []ports.Restaurant {
	a.mu.Lock()
	defer a.mu.Unlock()
	results := query.FilterAndRank(a.catalog, q)
	a.last = SearchState{Text: text, Query: q, Results: results, At: time.Now()}
	a.metrics.Searches.WithLabelValues(searchOK).Inc()
	return results
}

// Find is the free-text filter. It does not change the last search.
func (a *App) Find(text string) []ports.Restaurant {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return query.Find(a.catalog, text)
}

// LastSearch returns the most recent search outcome.
func (a *App) LastSearch() SearchState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Catalog returns the current catalog snapshot. Callers must not modify it.
func (a *App) Catalog() []ports.Restaurant {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.catalog
}

// Status reports the current load and configuration summary.
func (a *App) Status() Status {
	ce, cu, de, du := a.enricher.Stats()
	s := Status{
		CacheBackend:   a.settings.Cache.Backend,
		Scorer:         a.settings.Sentiment.Scorer,
		Extraction:     a.extractor != nil,
		CuisineEntries: ce,
		CuisineTerms:   cu,
		DishEntries:    de,
		DishTerms:      du,
	}
	a.watchMu.Lock()
	s.Watching = a.watcher != nil
	a.watchMu.Unlock()

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.loadInfo != nil {
		info := *a.loadInfo
		s.Loaded = true
		s.Load = &info
	}
	return s
}

// Watch reloads the catalog whenever the source file changes.
func (a *App) Watch() error {
	path := a.settings.Source.Path
	if path == "" {
		return errors.New("watch needs source.path; the bundled source never changes")
	}

	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	if a.watcher != nil {
		return errors.New("already watching")
	}

	w, err := fsw.NewWatcher(fsw.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Watch(path, a.onSourceChange); err != nil {
		w.Stop()
		return fmt.Errorf("watch %s: %w", path, err)
	}
	a.watcher = w
	a.log.Info("watching source", zap.String("path", path))
	return nil
}

func (a *App) onSourceChange(path string) {
	a.log.Info("source changed, reloading", zap.String("path", path))
	if _, err := a.Load(context.Background()); err != nil {
		a.log.Warn("reload failed", zap.Error(err))
	}
}

// Invalidate clears the cached hash so the next Load rebuilds.
func (a *App) Invalidate(ctx context.Context) error {
	return a.cache.Invalidate(ctx)
}

// StoredHash returns the hash currently recorded in the cache store.
func (a *App) StoredHash(ctx context.Context) (string, bool, error) {
	return a.cache.StoredHash(ctx)
}

// Registry exposes the App's metrics registry for /metrics.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Close stops the watcher and closes the cache store.
func (a *App) Close() error {
	a.watchMu.Lock()
	w := a.watcher
	a.watcher = nil
	a.watchMu.Unlock()

	var errs []error
	if w != nil {
		errs = append(errs, w.Stop())
	}
	if c, ok := a.store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
