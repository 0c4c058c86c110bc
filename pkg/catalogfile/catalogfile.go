// Package catalogfile reads festival timetables from YAML files.
//
// A file describes one festival:
//
//	id: summer-sound
//	name: Summer Sound
//	version: "2024-1"
//	artists:
//	  - id: radiohead
//	    platform_id: 4Z8W4fKeB5YxbusRsdQVPb
//	    name: Radiohead
//	    genres: [art rock, alternative]
//	    related:
//	      - platform_id: 0k17h0D3J5VfsdmQ1iZtE9
//	        strength: heavy
//	days:
//	  - date: "2024-07-01"
//	    start: "12:00"
//	    end: "02:00"
//	    stages:
//	      - name: Main
//	        acts:
//	          - artist_id: radiohead
//	            start: "23:30"
//	            end: "01:00"
//
// Acts may carry an inline artist instead of artist_id. Missing festival,
// artist and act ids are generated.
package catalogfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yair/lineup/pkg/domain"
	"github.com/yair/lineup/pkg/matching"
)

type fileRelated struct {
	PlatformID string `yaml:"platform_id"`
	Strength   string `yaml:"strength"`
}

type fileArtist struct {
	ID         string        `yaml:"id"`
	PlatformID string        `yaml:"platform_id"`
	Name       string        `yaml:"name"`
	Genres     []string      `yaml:"genres"`
	Related    []fileRelated `yaml:"related"`
}

type fileAct struct {
	ID       string      `yaml:"id"`
	ArtistID string      `yaml:"artist_id"`
	Artist   *fileArtist `yaml:"artist"`
	Start    string      `yaml:"start"`
	End      string      `yaml:"end"`
}

type fileStage struct {
	Name string    `yaml:"name"`
	Acts []fileAct `yaml:"acts"`
}

type fileDay struct {
	Date   string      `yaml:"date"`
	Start  string      `yaml:"start"`
	End    string      `yaml:"end"`
	Stages []fileStage `yaml:"stages"`
}

type file struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Version string       `yaml:"version"`
	Artists []fileArtist `yaml:"artists"`
	Days    []fileDay    `yaml:"days"`
}

// Import is a parsed festival: the catalog plus the similarity rows that
// carry strength information.
type Import struct {
	Catalog   *domain.Catalog
	Relations []domain.RelatedArtistRow
}

func Load(path string) (*Import, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Import, error) {
	var raw file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if strings.TrimSpace(raw.Name) == "" {
		return nil, domain.ValidationError{Field: "name", Message: "festival name is required"}
	}

	imp := &Import{
		Catalog: &domain.Catalog{
			FestivalID: orNewID(raw.ID),
			Name:       raw.Name,
			Version:    raw.Version,
		},
	}
	known := make(map[string]bool)

	addArtist := func(a fileArtist) (string, error) {
		artist, err := convertArtist(a)
		if err != nil {
			return "", err
		}
		if known[artist.ID] {
			return artist.ID, nil
		}
		known[artist.ID] = true
		imp.Catalog.Artists = append(imp.Catalog.Artists, artist)
		for _, rel := range a.Related {
			imp.Relations = append(imp.Relations, domain.RelatedArtistRow{
				SourceArtistID:    artist.ID,
				RelatedPlatformID: rel.PlatformID,
				Strength:          domain.ParseRelationStrength(rel.Strength),
			})
		}
		return artist.ID, nil
	}

	for _, a := range raw.Artists {
		if a.ID == "" {
			return nil, domain.ValidationError{Field: "artists.id", Message: fmt.Sprintf("artist %q needs an id to be referenced", a.Name)}
		}
		if _, err := addArtist(a); err != nil {
			return nil, err
		}
	}

	seenDates := make(map[string]bool)
	for _, d := range raw.Days {
		day, err := convertDay(d)
		if err != nil {
			return nil, err
		}
		if seenDates[day.Date] {
			return nil, domain.ValidationError{Field: "days.date", Message: fmt.Sprintf("day %s is listed twice", day.Date)}
		}
		seenDates[day.Date] = true

		for _, s := range d.Stages {
			stage := domain.Stage{Name: s.Name}
			if strings.TrimSpace(s.Name) == "" {
				return nil, domain.ValidationError{Field: "stages.name", Message: fmt.Sprintf("stage on %s has no name", day.Date)}
			}
			for _, a := range s.Acts {
				act, err := convertAct(a)
				if err != nil {
					return nil, err
				}
				if a.Artist != nil {
					id, err := addArtist(*a.Artist)
					if err != nil {
						return nil, err
					}
					act.ArtistID = id
				}
				act.StageName = stage.Name
				act.Day = day.Date
				stage.Acts = append(stage.Acts, act)
			}
			day.Stages = append(day.Stages, stage)
		}
		imp.Catalog.Days = append(imp.Catalog.Days, day)
	}

	return imp, nil
}

func convertArtist(a fileArtist) (domain.FestivalArtist, error) {
	if strings.TrimSpace(a.Name) == "" {
		return domain.FestivalArtist{}, domain.ValidationError{Field: "artists.name", Message: "artist name is required"}
	}
	if a.PlatformID != "" && !matching.ValidPlatformID(a.PlatformID) {
		return domain.FestivalArtist{}, domain.ValidationError{Field: "artists.platform_id", Message: fmt.Sprintf("%q is not a Spotify artist id", a.PlatformID)}
	}

	artist := domain.FestivalArtist{
		ID:         orNewID(a.ID),
		PlatformID: a.PlatformID,
		Name:       a.Name,
		Genres:     a.Genres,
	}
	if artist.Genres == nil {
		artist.Genres = []string{}
	}
	for _, rel := range a.Related {
		if !matching.ValidPlatformID(rel.PlatformID) {
			return domain.FestivalArtist{}, domain.ValidationError{Field: "artists.related", Message: fmt.Sprintf("%q is not a Spotify artist id", rel.PlatformID)}
		}
		artist.RelatedPlatformIDs = append(artist.RelatedPlatformIDs, rel.PlatformID)
	}
	return artist, nil
}

func convertDay(d fileDay) (domain.FestivalDay, error) {
	if d.Date == "" {
		return domain.FestivalDay{}, domain.ValidationError{Field: "days.date", Message: "day date is required"}
	}
	start, err := domain.ParseClockTime(d.Start)
	if err != nil {
		return domain.FestivalDay{}, fmt.Errorf("day %s start: %w", d.Date, err)
	}
	end, err := domain.ParseClockTime(d.End)
	if err != nil {
		return domain.FestivalDay{}, fmt.Errorf("day %s end: %w", d.Date, err)
	}
	return domain.FestivalDay{Date: d.Date, Start: start, End: end}, nil
}

func convertAct(a fileAct) (domain.Act, error) {
	start, err := domain.ParseClockTime(a.Start)
	if err != nil {
		return domain.Act{}, fmt.Errorf("act %s start: %w", a.ID, err)
	}
	end, err := domain.ParseClockTime(a.End)
	if err != nil {
		return domain.Act{}, fmt.Errorf("act %s end: %w", a.ID, err)
	}
	if a.ArtistID != "" && a.Artist != nil {
		return domain.Act{}, domain.ValidationError{Field: "acts.artist", Message: "use either artist_id or an inline artist"}
	}
	return domain.Act{
		ID:       orNewID(a.ID),
		ArtistID: a.ArtistID,
		Start:    start,
		End:      end,
	}, nil
}

func orNewID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}

type CatalogSaver interface {
	Save(ctx context.Context, catalog *domain.Catalog) error
}

type RelationSaver interface {
	SaveRelations(ctx context.Context, rows []domain.RelatedArtistRow) error
}

// Store saves the catalog and then the strength-bearing similarity rows.
func (imp *Import) Store(ctx context.Context, catalogs CatalogSaver, relations RelationSaver) error {
	if err := catalogs.Save(ctx, imp.Catalog); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	if relations != nil && len(imp.Relations) > 0 {
		if err := relations.SaveRelations(ctx, imp.Relations); err != nil {
			return fmt.Errorf("failed to save related artists: %w", err)
		}
	}
	return nil
}
