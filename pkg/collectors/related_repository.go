package collectors

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yair/lineup/pkg/domain"
)

// MaxRelatedBatch bounds the ids accepted by one FindByPlatformIDs call.
const MaxRelatedBatch = 10

// RelatedArtistRepository stores the similarity table: each row says that a
// festival artist lists a platform id as similar.
type RelatedArtistRepository struct {
	db *DB
}

func NewRelatedArtistRepository(db *DB) (*RelatedArtistRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &RelatedArtistRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

func (r *RelatedArtistRepository) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS related_artists (
		source_artist_id TEXT NOT NULL,
		related_platform_id TEXT NOT NULL,
		strength TEXT,
		PRIMARY KEY (source_artist_id, related_platform_id)
	);

	CREATE INDEX IF NOT EXISTS idx_related_artists_platform_id ON related_artists(related_platform_id);
	`

	_, err := r.db.Exec(query)
	return err
}

func (r *RelatedArtistRepository) FindByPlatformIDs(ctx context.Context, platformIDs []string) ([]domain.RelatedArtistRow, error) {
	if len(platformIDs) > MaxRelatedBatch {
		return nil, fmt.Errorf("%w: %d ids, limit %d", domain.ErrBatchTooLarge, len(platformIDs), MaxRelatedBatch)
	}
	if len(platformIDs) == 0 {
		return nil, nil
	}

	query := `
	SELECT source_artist_id, related_platform_id, strength
	FROM related_artists
	WHERE related_platform_id IN (` + placeholders(len(platformIDs)) + `)
	ORDER BY related_platform_id, source_artist_id
	`

	args := make([]interface{}, len(platformIDs))
	for i, id := range platformIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query related artists: %w", err)
	}
	defer rows.Close()

	var out []domain.RelatedArtistRow
	for rows.Next() {
		var row domain.RelatedArtistRow
		var strength sql.NullString
		if err := rows.Scan(&row.SourceArtistID, &row.RelatedPlatformID, &strength); err != nil {
			return nil, fmt.Errorf("failed to scan related artist: %w", err)
		}
		row.Strength = domain.ParseRelationStrength(strength.String)
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return out, nil
}

// SaveRelations upserts rows; a repeated pair takes the new strength.
func (r *RelatedArtistRepository) SaveRelations(ctx context.Context, rows []domain.RelatedArtistRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exec := execer(r.db, tx)
	for _, row := range rows {
		if row.SourceArtistID == "" || row.RelatedPlatformID == "" {
			return domain.ValidationError{Field: "related_artist", Message: "source artist and platform id are required"}
		}
		_, err := exec(ctx, `
		INSERT INTO related_artists (source_artist_id, related_platform_id, strength)
		VALUES (?, ?, ?)
		ON CONFLICT (source_artist_id, related_platform_id) DO UPDATE SET strength = excluded.strength
		`, row.SourceArtistID, row.RelatedPlatformID, string(row.Strength))
		if err != nil {
			return fmt.Errorf("failed to save related artist: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit related artists: %w", err)
	}
	return nil
}
