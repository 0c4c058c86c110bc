package collectors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yair/lineup/pkg/domain"
)

type ArtistRepository struct {
	db *DB
}

func NewArtistRepository(db *DB) (*ArtistRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &ArtistRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

func (r *ArtistRepository) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS artists (
		id TEXT PRIMARY KEY,
		platform_id TEXT,
		name TEXT NOT NULL,
		genres TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_artists_platform_id ON artists(platform_id);
	CREATE INDEX IF NOT EXISTS idx_artists_name ON artists(name);
	`

	_, err := r.db.Exec(query)
	return err
}

// Save inserts the artist or refreshes its name, platform id and genres.
func (r *ArtistRepository) Save(ctx context.Context, artist *domain.FestivalArtist) error {
	return r.save(ctx, execer(r.db, nil), artist)
}

func (r *ArtistRepository) save(ctx context.Context, exec execFunc, artist *domain.FestivalArtist) error {
	if artist == nil {
		return fmt.Errorf("artist cannot be nil")
	}
	if artist.ID == "" {
		return domain.ValidationError{Field: "id", Message: "artist id is required"}
	}

	query := `
	INSERT INTO artists (id, platform_id, name, genres, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		platform_id = excluded.platform_id,
		name = excluded.name,
		genres = excluded.genres,
		updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if artist.CreatedAt.IsZero() {
		artist.CreatedAt = now
	}
	artist.UpdatedAt = now

	_, err := exec(ctx, query,
		artist.ID,
		nullIfEmpty(artist.PlatformID),
		artist.Name,
		strings.Join(artist.Genres, ","),
		artist.CreatedAt,
		artist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save artist: %w", err)
	}

	return nil
}

const artistColumns = `id, platform_id, name, genres, created_at, updated_at`

func (r *ArtistRepository) GetByID(ctx context.Context, id string) (*domain.FestivalArtist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = ?`
	return r.getOne(ctx, query, id)
}

func (r *ArtistRepository) GetByPlatformID(ctx context.Context, platformID string) (*domain.FestivalArtist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE platform_id = ?`
	return r.getOne(ctx, query, platformID)
}

func (r *ArtistRepository) getOne(ctx context.Context, query string, arg string) (*domain.FestivalArtist, error) {
	artist, err := scanArtist(r.db.QueryRowContext(ctx, r.db.Rebind(query), arg))
	if err == sql.ErrNoRows {
		return nil, domain.ErrArtistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	return artist, nil
}

func (r *ArtistRepository) Search(ctx context.Context, query string, limit int) ([]domain.FestivalArtist, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	sqlQuery := `
	SELECT ` + artistColumns + `
	FROM artists
	WHERE LOWER(name) LIKE ?
	ORDER BY name
	LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(sqlQuery), "%"+strings.ToLower(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search artists: %w", err)
	}
	defer rows.Close()

	var artists []domain.FestivalArtist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, *artist)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return artists, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArtist(row rowScanner) (*domain.FestivalArtist, error) {
	var artist domain.FestivalArtist
	var platformID, genres sql.NullString

	err := row.Scan(
		&artist.ID,
		&platformID,
		&artist.Name,
		&genres,
		&artist.CreatedAt,
		&artist.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	artist.PlatformID = platformID.String
	artist.Genres = splitGenres(genres)
	return &artist, nil
}

func splitGenres(genres sql.NullString) []string {
	if !genres.Valid || genres.String == "" {
		return []string{}
	}
	return strings.Split(genres.String, ",")
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
