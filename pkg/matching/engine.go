package matching

import (
	"context"
	"time"

	"github.com/yair/lineup/pkg/domain"
	"github.com/yair/lineup/pkg/logger"
	"github.com/yair/lineup/pkg/metrics"
)

type Options struct {
	SlotWidth        time.Duration
	BatchSize        int
	Concurrency      int
	RankDiscountStep float64
}

func DefaultOptions() Options {
	return Options{
		SlotWidth:        DefaultSlotWidth,
		BatchSize:        DefaultBatchSize,
		Concurrency:      DefaultConcurrency,
		RankDiscountStep: DefaultRankDiscountStep,
	}
}

// Engine computes recommendation sets. It keeps no state between calls, so
// one Engine can serve concurrent requests.
type Engine struct {
	store  domain.RelatedArtistStore
	opts   Options
	scorer *Scorer
	logger logger.Logger
	now    func() time.Time
}

// NewEngine builds an engine that resolves related artists through store.
// A nil store falls back to the related ids carried by each catalog.
func NewEngine(store domain.RelatedArtistStore, opts Options, log logger.Logger) *Engine {
	if opts.SlotWidth <= 0 {
		opts.SlotWidth = DefaultSlotWidth
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Engine{
		store:  store,
		opts:   opts,
		scorer: NewScorer(ScorerOptions{RankDiscountStep: opts.RankDiscountStep}),
		logger: log,
		now:    time.Now,
	}
}

// Recommend matches profile against catalog. If the related-artist lookup
// fails the set built from the batches that succeeded is still returned,
// marked incomplete, together with the error.
func (e *Engine) Recommend(ctx context.Context, profile domain.ListeningProfile, catalog *domain.Catalog) (*domain.RecommendationSet, error) {
	started := e.now()
	if catalog == nil {
		catalog = &domain.Catalog{}
	}

	index := NewCatalogIndex(catalog)
	ids := Normalize(profile.TopArtists, profile.TopTracks)

	store := e.store
	if store == nil {
		store = NewIndexRelatedStore(index)
	}
	resolver := NewResolver(store, ResolverOptions{
		BatchSize:   e.opts.BatchSize,
		Concurrency: e.opts.Concurrency,
	}, e.logger)

	related, resolveErr := resolver.Resolve(ctx, ids, index)
	results := e.scorer.Score(profile, ids, index, related)

	days := index.Days()
	allocations := make(map[string][]domain.TimeSlot, len(days))
	for _, day := range days {
		allocations[day.Date] = Allocate(day, index, results, e.opts.SlotWidth)
	}
	recs := Assemble(days, allocations)

	set := &domain.RecommendationSet{
		FestivalID:     catalog.FestivalID,
		CatalogVersion: catalog.Version,
		ProfileID:      profile.ProfileID,
		Days:           recs,
		Artists:        Flatten(recs),
		GeneratedAt:    e.now().UTC(),
		Complete:       resolveErr == nil,
	}

	counts := make(map[domain.MatchType]int)
	for _, r := range results {
		counts[r.MatchType]++
		metrics.ArtistMatchesTotal.WithLabelValues(r.MatchType.String()).Inc()
	}

	outcome := metrics.OutcomeSuccess
	if resolveErr != nil {
		outcome = metrics.OutcomePartial
	}
	elapsed := e.now().Sub(started)
	metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()
	metrics.RecommendationDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	fields := map[string]interface{}{
		"festivalId":  catalog.FestivalID,
		"profileId":   profile.ProfileID,
		"identifiers": ids.Len(),
		"artists":     len(results),
		"direct":      counts[domain.MatchDirect],
		"related":     counts[domain.MatchRelated],
		"genre":       counts[domain.MatchGenre],
		"genreLight":  counts[domain.MatchGenreLight],
		"recommended": len(set.Artists),
		"duration":    elapsed.String(),
	}
	if resolveErr != nil {
		e.logger.WithError(resolveErr).Warn("recommendation run incomplete", fields)
		return set, resolveErr
	}
	e.logger.Info("recommendation run complete", fields)
	return set, nil
}
