package collectors

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yair/lineup/pkg/domain"
)

// ProfileRepository keeps the last listening snapshot of each visitor so
// that shared recommendation links work without their Spotify token.
type ProfileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) (*ProfileRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &ProfileRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

func (r *ProfileRepository) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		display_name TEXT,
		top_artists TEXT NOT NULL,
		top_tracks TEXT NOT NULL,
		fetched_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`

	_, err := r.db.Exec(query)
	return err
}

func (r *ProfileRepository) Save(ctx context.Context, profile *domain.ListeningProfile) error {
	if profile == nil {
		return fmt.Errorf("profile cannot be nil")
	}
	if profile.ProfileID == "" {
		return domain.ValidationError{Field: "profile_id", Message: "profile id is required"}
	}

	artists, err := json.Marshal(nonNil(profile.TopArtists))
	if err != nil {
		return fmt.Errorf("failed to encode top artists: %w", err)
	}
	tracks, err := json.Marshal(nonNil(profile.TopTracks))
	if err != nil {
		return fmt.Errorf("failed to encode top tracks: %w", err)
	}

	now := time.Now().UTC()
	if profile.FetchedAt.IsZero() {
		profile.FetchedAt = now
	}

	query := `
	INSERT INTO profiles (id, display_name, top_artists, top_tracks, fetched_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		display_name = excluded.display_name,
		top_artists = excluded.top_artists,
		top_tracks = excluded.top_tracks,
		fetched_at = excluded.fetched_at,
		updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query),
		profile.ProfileID,
		profile.DisplayName,
		string(artists),
		string(tracks),
		profile.FetchedAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.ListeningProfile, error) {
	query := `
	SELECT id, display_name, top_artists, top_tracks, fetched_at
	FROM profiles
	WHERE id = ?
	`

	var profile domain.ListeningProfile
	var displayName sql.NullString
	var artists, tracks string

	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), id).Scan(
		&profile.ProfileID,
		&displayName,
		&artists,
		&tracks,
		&profile.FetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.DisplayName = displayName.String
	if err := json.Unmarshal([]byte(artists), &profile.TopArtists); err != nil {
		return nil, fmt.Errorf("failed to decode top artists: %w", err)
	}
	if err := json.Unmarshal([]byte(tracks), &profile.TopTracks); err != nil {
		return nil, fmt.Errorf("failed to decode top tracks: %w", err)
	}

	return &profile, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
