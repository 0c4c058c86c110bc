package domain

import (
	"context"
)

type CatalogRepository interface {
	Save(ctx context.Context, catalog *Catalog) error
	GetCatalog(ctx context.Context, festivalID string) (*Catalog, error)
	GetVersion(ctx context.Context, festivalID string) (string, error)
	ListFestivals(ctx context.Context) ([]FestivalSummary, error)
}

// RelatedArtistStore answers "which festival artists list any of these
// platform ids as similar". Implementations may bound the number of ids per
// call; exceeding the bound returns ErrBatchTooLarge.
type RelatedArtistStore interface {
	FindByPlatformIDs(ctx context.Context, platformIDs []string) ([]RelatedArtistRow, error)
}

type ProfileRepository interface {
	Save(ctx context.Context, profile *ListeningProfile) error
	GetByID(ctx context.Context, id string) (*ListeningProfile, error)
}
