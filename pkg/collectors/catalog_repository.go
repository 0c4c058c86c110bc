package collectors

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/yair/lineup/pkg/domain"
)

type CatalogRepository struct {
	db      *DB
	artists *ArtistRepository
}

func NewCatalogRepository(db *DB) (*CatalogRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	artists, err := NewArtistRepository(db)
	if err != nil {
		return nil, err
	}
	if _, err := NewRelatedArtistRepository(db); err != nil {
		return nil, err
	}

	repo := &CatalogRepository{db: db, artists: artists}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

func (r *CatalogRepository) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS festivals (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS festival_days (
		festival_id TEXT NOT NULL,
		date TEXT NOT NULL,
		position INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		PRIMARY KEY (festival_id, date)
	);

	CREATE TABLE IF NOT EXISTS festival_artists (
		festival_id TEXT NOT NULL,
		artist_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (festival_id, artist_id)
	);

	CREATE TABLE IF NOT EXISTS acts (
		festival_id TEXT NOT NULL,
		id TEXT NOT NULL,
		day_date TEXT NOT NULL,
		stage_name TEXT NOT NULL,
		stage_position INTEGER NOT NULL,
		position INTEGER NOT NULL,
		artist_id TEXT,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		PRIMARY KEY (festival_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_acts_festival_day ON acts(festival_id, day_date);
	CREATE INDEX IF NOT EXISTS idx_festival_artists_artist ON festival_artists(artist_id);
	`

	_, err := r.db.Exec(query)
	return err
}

// Save replaces the festival's timetable in one transaction. Artists are
// upserted, so an artist shared by two festivals is stored once. When the
// catalog carries no version one is derived from the save time.
func (r *CatalogRepository) Save(ctx context.Context, catalog *domain.Catalog) error {
	if catalog == nil {
		return fmt.Errorf("catalog cannot be nil")
	}
	if catalog.FestivalID == "" {
		return domain.ValidationError{Field: "festival_id", Message: "festival id is required"}
	}

	now := time.Now().UTC()
	catalog.UpdatedAt = now
	if catalog.Version == "" {
		catalog.Version = strconv.FormatInt(now.UnixNano(), 36)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exec := execer(r.db, tx)

	_, err = exec(ctx, `
	INSERT INTO festivals (id, name, version, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		version = excluded.version,
		updated_at = excluded.updated_at
	`, catalog.FestivalID, catalog.Name, catalog.Version, catalog.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save festival: %w", err)
	}

	for _, table := range []string{"acts", "festival_days", "festival_artists"} {
		if _, err := exec(ctx, `DELETE FROM `+table+` WHERE festival_id = ?`, catalog.FestivalID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, artist := range catalogArtists(catalog) {
		artist := artist
		if err := r.artists.save(ctx, exec, &artist); err != nil {
			return err
		}
		if _, err := exec(ctx, `INSERT INTO festival_artists (festival_id, artist_id, position) VALUES (?, ?, ?)`,
			catalog.FestivalID, artist.ID, i); err != nil {
			return fmt.Errorf("failed to link artist %s: %w", artist.ID, err)
		}
		for _, pid := range artist.RelatedPlatformIDs {
			if _, err := exec(ctx, `
			INSERT INTO related_artists (source_artist_id, related_platform_id, strength)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
			`, artist.ID, pid, string(domain.StrengthUnknown)); err != nil {
				return fmt.Errorf("failed to save related artist: %w", err)
			}
		}
	}

	for dayPos, day := range catalog.Days {
		if day.Date == "" {
			return domain.ValidationError{Field: "date", Message: fmt.Sprintf("day %d has no date", dayPos+1)}
		}
		if _, err := exec(ctx, `INSERT INTO festival_days (festival_id, date, position, start_time, end_time) VALUES (?, ?, ?, ?, ?)`,
			catalog.FestivalID, day.Date, dayPos, day.Start.String(), day.End.String()); err != nil {
			return fmt.Errorf("failed to save day %s: %w", day.Date, err)
		}

		for stagePos, stage := range day.Stages {
			for actPos, act := range stage.Acts {
				artistID := act.ArtistID
				if artistID == "" && act.Artist != nil {
					artistID = act.Artist.ID
				}
				if _, err := exec(ctx, `
				INSERT INTO acts (festival_id, id, day_date, stage_name, stage_position, position, artist_id, start_time, end_time)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				`, catalog.FestivalID, act.ID, day.Date, stage.Name, stagePos, actPos,
					nullIfEmpty(artistID), act.Start.String(), act.End.String()); err != nil {
					return fmt.Errorf("failed to save act %s: %w", act.ID, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// catalogArtists lists the catalog's artists followed by artists only
// embedded in acts, once per id.
func catalogArtists(catalog *domain.Catalog) []domain.FestivalArtist {
	seen := make(map[string]struct{})
	var out []domain.FestivalArtist
	add := func(a domain.FestivalArtist) {
		if a.ID == "" {
			return
		}
		if _, ok := seen[a.ID]; ok {
			return
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}

	for _, a := range catalog.Artists {
		add(a)
	}
	for _, day := range catalog.Days {
		for _, stage := range day.Stages {
			for _, act := range stage.Acts {
				if act.Artist != nil {
					add(*act.Artist)
				}
			}
		}
	}
	return out
}

// GetCatalog loads the nested timetable. Stages without acts are not
// stored, and acts whose artist is not linked to the festival come back
// without an artist.
func (r *CatalogRepository) GetCatalog(ctx context.Context, festivalID string) (*domain.Catalog, error) {
	catalog := domain.Catalog{FestivalID: festivalID}

	err := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT name, version, updated_at FROM festivals WHERE id = ?`), festivalID).
		Scan(&catalog.Name, &catalog.Version, &catalog.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrFestivalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get festival: %w", err)
	}

	artists, err := r.festivalArtists(ctx, festivalID)
	if err != nil {
		return nil, err
	}
	catalog.Artists = artists

	byID := make(map[string]*domain.FestivalArtist, len(artists))
	for i := range catalog.Artists {
		byID[catalog.Artists[i].ID] = &catalog.Artists[i]
	}

	days, err := r.days(ctx, festivalID)
	if err != nil {
		return nil, err
	}
	if err := r.attachActs(ctx, festivalID, days, byID); err != nil {
		return nil, err
	}
	catalog.Days = days

	return &catalog, nil
}

func (r *CatalogRepository) festivalArtists(ctx context.Context, festivalID string) ([]domain.FestivalArtist, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
	SELECT a.id, a.platform_id, a.name, a.genres, a.created_at, a.updated_at
	FROM festival_artists fa
	JOIN artists a ON a.id = fa.artist_id
	WHERE fa.festival_id = ?
	ORDER BY fa.position
	`), festivalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query festival artists: %w", err)
	}
	defer rows.Close()

	artists := []domain.FestivalArtist{}
	index := make(map[string]int)
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		index[artist.ID] = len(artists)
		artists = append(artists, *artist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artists: %w", err)
	}

	related, err := r.db.QueryContext(ctx, r.db.Rebind(`
	SELECT ra.source_artist_id, ra.related_platform_id
	FROM related_artists ra
	JOIN festival_artists fa ON fa.artist_id = ra.source_artist_id
	WHERE fa.festival_id = ?
	ORDER BY ra.source_artist_id, ra.related_platform_id
	`), festivalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query related artists: %w", err)
	}
	defer related.Close()

	for related.Next() {
		var source, pid string
		if err := related.Scan(&source, &pid); err != nil {
			return nil, fmt.Errorf("failed to scan related artist: %w", err)
		}
		if i, ok := index[source]; ok {
			artists[i].RelatedPlatformIDs = append(artists[i].RelatedPlatformIDs, pid)
		}
	}
	if err := related.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate related artists: %w", err)
	}

	return artists, nil
}

func (r *CatalogRepository) days(ctx context.Context, festivalID string) ([]domain.FestivalDay, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
	SELECT date, start_time, end_time
	FROM festival_days
	WHERE festival_id = ?
	ORDER BY position
	`), festivalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer rows.Close()

	days := []domain.FestivalDay{}
	for rows.Next() {
		var day domain.FestivalDay
		var start, end string
		if err := rows.Scan(&day.Date, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		if day.Start, err = domain.ParseClockTime(start); err != nil {
			return nil, err
		}
		if day.End, err = domain.ParseClockTime(end); err != nil {
			return nil, err
		}
		day.Stages = []domain.Stage{}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate days: %w", err)
	}
	return days, nil
}

func (r *CatalogRepository) attachActs(ctx context.Context, festivalID string, days []domain.FestivalDay, artists map[string]*domain.FestivalArtist) error {
	dayIndex := make(map[string]int, len(days))
	for i, d := range days {
		dayIndex[d.Date] = i
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
	SELECT id, day_date, stage_name, stage_position, artist_id, start_time, end_time
	FROM acts
	WHERE festival_id = ?
	ORDER BY day_date, stage_position, position
	`), festivalID)
	if err != nil {
		return fmt.Errorf("failed to query acts: %w", err)
	}
	defer rows.Close()

	lastStage := make(map[string]int)
	for rows.Next() {
		var act domain.Act
		var artistID sql.NullString
		var stagePos int
		var start, end string
		if err := rows.Scan(&act.ID, &act.Day, &act.StageName, &stagePos, &artistID, &start, &end); err != nil {
			return fmt.Errorf("failed to scan act: %w", err)
		}
		if act.Start, err = domain.ParseClockTime(start); err != nil {
			return err
		}
		if act.End, err = domain.ParseClockTime(end); err != nil {
			return err
		}
		act.ArtistID = artistID.String
		if artist, ok := artists[act.ArtistID]; ok {
			a := *artist
			act.Artist = &a
		}

		di, ok := dayIndex[act.Day]
		if !ok {
			continue
		}
		day := &days[di]
		if pos, seen := lastStage[act.Day]; !seen || pos != stagePos {
			day.Stages = append(day.Stages, domain.Stage{Name: act.StageName})
			lastStage[act.Day] = stagePos
		}
		stage := &day.Stages[len(day.Stages)-1]
		stage.Acts = append(stage.Acts, act)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate acts: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetVersion(ctx context.Context, festivalID string) (string, error) {
	var version string
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT version FROM festivals WHERE id = ?`), festivalID).Scan(&version)
	if err == sql.ErrNoRows {
		return "", domain.ErrFestivalNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get festival version: %w", err)
	}
	return version, nil
}

func (r *CatalogRepository) ListFestivals(ctx context.Context) ([]domain.FestivalSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT f.id, f.name, f.version, f.updated_at,
		(SELECT COUNT(*) FROM festival_days d WHERE d.festival_id = f.id)
	FROM festivals f
	ORDER BY f.name, f.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list festivals: %w", err)
	}
	defer rows.Close()

	festivals := []domain.FestivalSummary{}
	for rows.Next() {
		var f domain.FestivalSummary
		if err := rows.Scan(&f.ID, &f.Name, &f.Version, &f.UpdatedAt, &f.Days); err != nil {
			return nil, fmt.Errorf("failed to scan festival: %w", err)
		}
		festivals = append(festivals, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate festivals: %w", err)
	}
	return festivals, nil
}
