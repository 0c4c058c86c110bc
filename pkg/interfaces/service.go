package interfaces

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/yair/lineup/pkg/domain"
	"github.com/yair/lineup/pkg/logger"
	"github.com/yair/lineup/pkg/metrics"
)

// ProfileSource fetches a visitor's listening history with their token.
type ProfileSource interface {
	ListeningProfile(ctx context.Context, token *oauth2.Token) (*domain.ListeningProfile, error)
}

type Recommender interface {
	Recommend(ctx context.Context, profile domain.ListeningProfile, catalog *domain.Catalog) (*domain.RecommendationSet, error)
}

type RecommendationService struct {
	catalogs domain.CatalogRepository
	profiles domain.ProfileRepository
	source   ProfileSource
	engine   Recommender
	cache    domain.RecommendationCache
	logger   logger.Logger
}

// NewRecommendationService wires the recommendation flow. source may be nil
// when no listening-history provider is configured; cache may be nil to
// disable caching.
func NewRecommendationService(
	catalogs domain.CatalogRepository,
	profiles domain.ProfileRepository,
	source ProfileSource,
	engine Recommender,
	cache domain.RecommendationCache,
	log logger.Logger,
) *RecommendationService {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RecommendationService{
		catalogs: catalogs,
		profiles: profiles,
		source:   source,
		engine:   engine,
		cache:    cache,
		logger:   log,
	}
}

func (s *RecommendationService) Festivals(ctx context.Context) ([]domain.FestivalSummary, error) {
	festivals, err := s.catalogs.ListFestivals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list festivals: %w", err)
	}
	if festivals == nil {
		festivals = []domain.FestivalSummary{}
	}
	return festivals, nil
}

func (s *RecommendationService) Timetable(ctx context.Context, festivalID string) (*domain.Catalog, error) {
	if festivalID == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.catalogs.GetCatalog(ctx, festivalID)
}

// Recommend fetches the token owner's listening history, stores it so the
// result can be shared, and computes recommendations for the festival.
func (s *RecommendationService) Recommend(ctx context.Context, festivalID string, token *oauth2.Token) (*domain.RecommendationSet, error) {
	if festivalID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if token == nil || token.AccessToken == "" {
		return nil, domain.ErrUnauthorized
	}
	if s.source == nil {
		return nil, fmt.Errorf("%w: no listening-history provider configured", domain.ErrExternalAPIFailure)
	}

	// Fail fast on unknown festivals before calling out to the provider.
	if _, err := s.catalogs.GetVersion(ctx, festivalID); err != nil {
		return nil, err
	}

	profile, err := s.source.ListeningProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.profiles != nil {
		if err := s.profiles.Save(ctx, profile); err != nil {
			s.logger.WithError(err).Warn("failed to store listening profile", map[string]interface{}{
				"profileId": profile.ProfileID,
			})
		}
	}

	return s.recommend(ctx, *profile, festivalID)
}

// RecommendForProfile recomputes recommendations from a stored snapshot.
func (s *RecommendationService) RecommendForProfile(ctx context.Context, profileID, festivalID string) (*domain.RecommendationSet, error) {
	if profileID == "" || festivalID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.profiles == nil {
		return nil, domain.ErrProfileNotFound
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	return s.recommend(ctx, *profile, festivalID)
}

func (s *RecommendationService) recommend(ctx context.Context, profile domain.ListeningProfile, festivalID string) (*domain.RecommendationSet, error) {
	version, err := s.catalogs.GetVersion(ctx, festivalID)
	if err != nil {
		return nil, err
	}
	key := domain.RecommendationKey{
		ProfileID:      profile.ProfileID,
		FestivalID:     festivalID,
		CatalogVersion: version,
	}

	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	catalog, err := s.catalogs.GetCatalog(ctx, festivalID)
	if err != nil {
		return nil, err
	}

	set, err := s.engine.Recommend(ctx, profile, catalog)
	if err != nil {
		return set, err
	}

	if s.cache != nil && set.Complete {
		key.CatalogVersion = set.CatalogVersion
		if err := s.cache.Set(ctx, key, set); err != nil {
			s.logger.WithError(err).Warn("failed to cache recommendations", map[string]interface{}{
				"profileId":  key.ProfileID,
				"festivalId": key.FestivalID,
			})
		}
	}

	return set, nil
}

func (s *RecommendationService) cached(ctx context.Context, key domain.RecommendationKey) *domain.RecommendationSet {
	if s.cache == nil {
		return nil
	}

	set, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.CacheLookupsTotal.WithLabelValues(metrics.CacheHit).Inc()
		return set
	case errors.Is(err, domain.ErrCacheMiss):
		metrics.CacheLookupsTotal.WithLabelValues(metrics.CacheMiss).Inc()
	default:
		metrics.CacheLookupsTotal.WithLabelValues(metrics.CacheError).Inc()
		s.logger.WithError(err).Warn("recommendation cache lookup failed", map[string]interface{}{
			"profileId":  key.ProfileID,
			"festivalId": key.FestivalID,
		})
	}
	return nil
}

type ArtistLookup interface {
	GetByID(ctx context.Context, id string) (*domain.FestivalArtist, error)
	Search(ctx context.Context, query string, limit int) ([]domain.FestivalArtist, error)
}

type ArtistService struct {
	repository ArtistLookup
}

func NewArtistService(repository ArtistLookup) *ArtistService {
	return &ArtistService{repository: repository}
}

func (s *ArtistService) SearchArtists(ctx context.Context, query string, limit int) ([]domain.FestivalArtist, error) {
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	artists, err := s.repository.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search artists: %w", err)
	}
	if artists == nil {
		artists = []domain.FestivalArtist{}
	}
	return artists, nil
}

func (s *ArtistService) GetArtist(ctx context.Context, id string) (*domain.FestivalArtist, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.repository.GetByID(ctx, id)
}
