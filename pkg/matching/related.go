package matching

import (
	"context"
	"errors"
	"sync"

	"github.com/yair/lineup/pkg/domain"
	"github.com/yair/lineup/pkg/logger"
	"github.com/yair/lineup/pkg/metrics"
)

const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 4
)

// RelatedArtist is a festival artist reached through the similarity table.
type RelatedArtist struct {
	ArtistID string
	Strength domain.RelationStrength
}

// RelatedMap maps a user platform id to the festival artists related to it.
type RelatedMap map[string][]RelatedArtist

// ArtistCount returns the number of distinct festival artists in the map.
func (m RelatedMap) ArtistCount() int {
	seen := make(map[string]struct{})
	for _, related := range m {
		for _, r := range related {
			seen[r.ArtistID] = struct{}{}
		}
	}
	return len(seen)
}

type ResolverOptions struct {
	BatchSize   int
	Concurrency int
}

type Resolver struct {
	store       domain.RelatedArtistStore
	batchSize   int
	concurrency int
	logger      logger.Logger
}

func NewResolver(store domain.RelatedArtistStore, opts ResolverOptions, log logger.Logger) *Resolver {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Resolver{
		store:       store,
		batchSize:   opts.BatchSize,
		concurrency: opts.Concurrency,
		logger:      log,
	}
}

type batchResult struct {
	rows []domain.RelatedArtistRow
	err  error
}

// Resolve looks up the festival artists related to ids, BatchSize ids per
// store call. Batches may run concurrently; the merge does not depend on
// arrival order. When a batch fails the rows of the batches that succeeded
// are still returned, together with a *domain.GenerationError.
func (r *Resolver) Resolve(ctx context.Context, ids IdentifierSet, index *CatalogIndex) (RelatedMap, error) {
	related := make(RelatedMap)
	if ids.Len() == 0 || r.store == nil {
		return related, nil
	}

	batches := chunk(ids.IDs(), r.batchSize)
	results := make([]batchResult, len(batches))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.concurrency)
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rows, err := r.store.FindByPlatformIDs(ctx, batch)
			results[i] = batchResult{rows: rows, err: err}
		}(i, batch)
	}
	wg.Wait()

	var (
		errs      []error
		completed int
	)
	for i, res := range results {
		if res.err != nil {
			metrics.RelatedBatchesTotal.WithLabelValues(metrics.OutcomeError).Inc()
			r.logger.Warn("related artist batch failed", map[string]interface{}{
				"batch":     i,
				"batchSize": len(batches[i]),
				"error":     res.err,
			})
			errs = append(errs, res.err)
			continue
		}
		metrics.RelatedBatchesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		completed++
		merge(related, res.rows, ids, index)
	}

	if len(errs) > 0 {
		return related, &domain.GenerationError{
			Stage:            "related",
			CompletedBatches: completed,
			FailedBatches:    len(errs),
			Err:              errors.Join(errs...),
		}
	}
	return related, nil
}

// merge folds rows into m, keeping only rows that point from one of the
// user's ids to an artist of this festival. A repeated (user id, artist)
// pair keeps its strongest relation.
func merge(m RelatedMap, rows []domain.RelatedArtistRow, ids IdentifierSet, index *CatalogIndex) {
	for _, row := range rows {
		if !ids.Contains(row.RelatedPlatformID) {
			continue
		}
		if _, ok := index.Artist(row.SourceArtistID); !ok {
			continue
		}

		existing := m[row.RelatedPlatformID]
		replaced := false
		for i := range existing {
			if existing[i].ArtistID != row.SourceArtistID {
				continue
			}
			if relatedBaseScore(row.Strength) > relatedBaseScore(existing[i].Strength) {
				existing[i].Strength = row.Strength
			}
			replaced = true
			break
		}
		if !replaced {
			existing = append(existing, RelatedArtist{ArtistID: row.SourceArtistID, Strength: row.Strength})
		}
		m[row.RelatedPlatformID] = existing
	}
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

// IndexRelatedStore answers related-artist queries from the catalog's own
// RelatedPlatformIDs. It is used when no similarity table is configured.
type IndexRelatedStore struct {
	index *CatalogIndex
}

func NewIndexRelatedStore(index *CatalogIndex) *IndexRelatedStore {
	return &IndexRelatedStore{index: index}
}

func (s *IndexRelatedStore) FindByPlatformIDs(ctx context.Context, platformIDs []string) ([]domain.RelatedArtistRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(platformIDs))
	for _, id := range platformIDs {
		wanted[id] = struct{}{}
	}

	var rows []domain.RelatedArtistRow
	for _, artist := range s.index.artists {
		for _, pid := range artist.RelatedPlatformIDs {
			if _, ok := wanted[pid]; ok {
				rows = append(rows, domain.RelatedArtistRow{
					SourceArtistID:    artist.ID,
					RelatedPlatformID: pid,
				})
			}
		}
	}
	return rows, nil
}
