package domain

import (
	"strings"
	"time"
)

type FestivalArtist struct {
	ID                 string    `json:"id"`
	PlatformID         string    `json:"platform_id,omitempty"`
	Name               string    `json:"name"`
	Genres             []string  `json:"genres"`
	RelatedPlatformIDs []string  `json:"related_platform_ids,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// HasPlatformID reports whether the artist can take part in direct or related matching.
func (a FestivalArtist) HasPlatformID() bool {
	return strings.TrimSpace(a.PlatformID) != ""
}

// DedupeKey is the platform id when present, the internal id otherwise.
func (a FestivalArtist) DedupeKey() string {
	if a.HasPlatformID() {
		return a.PlatformID
	}
	return "internal:" + a.ID
}

type TopArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres,omitempty"`
	Rank   int      `json:"rank"`
}

type TopTrack struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ArtistID string `json:"artist_id"`
	Rank     int    `json:"rank"`
}

type ListeningProfile struct {
	ProfileID   string      `json:"profile_id"`
	DisplayName string      `json:"display_name,omitempty"`
	TopArtists  []TopArtist `json:"top_artists"`
	TopTracks   []TopTrack  `json:"top_tracks"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

// IsEmpty reports whether the profile carries no listening history at all.
func (p ListeningProfile) IsEmpty() bool {
	return len(p.TopArtists) == 0 && len(p.TopTracks) == 0
}

// RelatedArtistRow is one entry of the precomputed similarity table: the
// festival artist SourceArtistID lists RelatedPlatformID as similar.
type RelatedArtistRow struct {
	SourceArtistID    string           `json:"source_artist_id"`
	RelatedPlatformID string           `json:"related_platform_id"`
	Strength          RelationStrength `json:"strength,omitempty"`
}

type RelationStrength string

const (
	StrengthUnknown RelationStrength = ""
	StrengthHeavy   RelationStrength = "heavy"
	StrengthMedium  RelationStrength = "medium"
	StrengthLight   RelationStrength = "light"
)

// ParseRelationStrength maps stored strength labels, tolerating case and
// whitespace. Unrecognised labels are treated as unknown.
func ParseRelationStrength(s string) RelationStrength {
	switch RelationStrength(strings.ToLower(strings.TrimSpace(s))) {
	case StrengthHeavy:
		return StrengthHeavy
	case StrengthMedium:
		return StrengthMedium
	case StrengthLight:
		return StrengthLight
	default:
		return StrengthUnknown
	}
}
