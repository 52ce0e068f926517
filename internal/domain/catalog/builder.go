// Package catalog turns raw source bytes into the enriched restaurant catalog
// and decides between the cached copy and a rebuild.
package catalog

import (
	"context"
	"time"

	"github.com/corey/zeal/internal/domain/cache"
	"github.com/corey/zeal/internal/domain/enricher"
	"github.com/corey/zeal/internal/domain/record"
	"github.com/corey/zeal/internal/domain/sentiment"
	"github.com/corey/zeal/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Builder orchestrates decode, parse and enrichment.
type Builder struct {
	enricher *enricher.Enricher
	gate     *sentiment.Gate
	cache    *cache.Manager
	workers  int
	log      *zap.Logger
}

// Result describes one Load.
type Result struct {
	Catalog       []ports.Restaurant
	CacheHit      bool
	Hash          string
	Outcome       cache.Outcome
	BuildDuration time.Duration // zero on a cache hit
}

// NewBuilder wires the builder. workers < 1 means sequential.
func NewBuilder(e *enricher.Enricher, gate *sentiment.Gate, cm *cache.Manager, workers int, log *zap.Logger) *Builder {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		enricher: e,
		gate:     gate,
		cache:    cm,
		workers:  workers,
		log:      log.Named("catalog"),
	}
}

// Build decodes raw and enriches every record, preserving source order.
// A malformed top level yields an empty catalog, never an error.
func (b *Builder) Build(ctx context.Context, raw []byte) []ports.Restaurant {
	recs, err := record.Decode(raw)
	if err != nil {
		b.log.Warn("source is not a list of records, catalog is empty", zap.Error(err))
		return []ports.Restaurant{}
	}

	out := make([]ports.Restaurant, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range recs {
		i := i
		g.Go(func() error {
			out[i] = b.Enrich(gctx, record.Parse(recs[i]))
			return nil
		})
	}
	_ = g.Wait()

	b.warnDuplicateIDs(out)
	return out
}

// Enrich builds one Restaurant from a parsed record.
func (b *Builder) Enrich(ctx context.Context, r record.Record) ports.Restaurant {
	cuisines := b.enricher.Cuisines(r.CuisineText())

	dishSets := [][]string{b.enricher.Dishes(r.DishText())}
	for _, review := range r.TopReviews {
		if b.gate.IsPositive(ctx, review) {
			dishSets = append(dishSets, b.enricher.Dishes(review))
		}
	}

	return ports.Restaurant{
		ID:              r.ID,
		Name:            r.Name,
		City:            r.City,
		State:           r.State,
		Country:         r.Country,
		StreetAddress:   r.StreetAddress,
		ZipCode:         r.ZipCode,
		PhoneNumber:     r.PhoneNumber,
		Rating:          r.Rating,
		ImageURL:        r.ImageURL,
		RestaurantURL:   r.RestaurantURL,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Cuisines:        enricher.Union(cuisines),
		PopularDishes:   enricher.Union(dishSets...),
		FeaturedIn:      r.FeaturedIn,
		Tags:            r.Tags,
		Description:     r.Description,
		EndorsementCopy: r.EndorsementCopy,
	}
}

func (b *Builder) warnDuplicateIDs(catalog []ports.Restaurant) {
	seen := make(map[int]int, len(catalog))
	for i, r := range catalog {
		if r.ID == record.MissingID {
			continue
		}
		if first, ok := seen[r.ID]; ok {
			b.log.Warn("duplicate restaurant id",
				zap.Int("id", r.ID),
				zap.Int("first_index", first),
				zap.Int("index", i))
			continue
		}
		seen[r.ID] = i
	}
}

// Load returns the cached catalog for raw, or builds and stores a new one.
// A failed cache write is logged and does not fail the load.
func (b *Builder) Load(ctx context.Context, raw []byte) (Result, error) {
	lookup, err := b.cache.CheckOrLoad(ctx, raw)
	if err != nil {
		return Result{}, err
	}
	if lookup.Hit {
		b.log.Debug("catalog cache hit", zap.Int("restaurants", len(lookup.Catalog)))
		return Result{
			Catalog:  lookup.Catalog,
			CacheHit: true,
			Hash:     lookup.Hash,
			Outcome:  lookup.Outcome,
		}, nil
	}

	start := time.Now()
	catalog := b.Build(ctx, raw)
	elapsed := time.Since(start)
	b.log.Info("catalog built",
		zap.Int("restaurants", len(catalog)),
		zap.String("cache", string(lookup.Outcome)),
		zap.Duration("elapsed", elapsed))

	if err := b.cache.Store(ctx, lookup.Hash, catalog); err != nil {
		b.log.Warn("catalog not cached", zap.Error(err))
	}

	return Result{
		Catalog:       catalog,
		Hash:          lookup.Hash,
		Outcome:       lookup.Outcome,
		BuildDuration: elapsed,
	}, nil
}
