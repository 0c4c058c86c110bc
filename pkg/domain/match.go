package domain

import (
	"encoding/json"
	"fmt"
)

// MatchType is ordinal: a greater value is a stronger match.
type MatchType int

const (
	MatchNone MatchType = iota
	MatchGenreLight
	MatchGenre
	MatchRelated
	MatchDirect
)

var matchTypeNames = map[MatchType]string{
	MatchNone:       "none",
	MatchGenreLight: "genre_light",
	MatchGenre:      "genre",
	MatchRelated:    "related",
	MatchDirect:     "direct",
}

func (m MatchType) String() string {
	if name, ok := matchTypeNames[m]; ok {
		return name
	}
	return "unknown"
}

func ParseMatchType(s string) (MatchType, error) {
	for m, name := range matchTypeNames {
		if name == s {
			return m, nil
		}
	}
	// Legacy spelling used by older clients.
	if s == "genre-light" || s == "genreLight" {
		return MatchGenreLight, nil
	}
	return MatchNone, fmt.Errorf("unknown match type %q", s)
}

func (m MatchType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MatchType) UnmarshalText(text []byte) error {
	parsed, err := ParseMatchType(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

type MatchResult struct {
	ArtistID  string    `json:"artist_id"`
	MatchType MatchType `json:"match_type"`
	Score     float64   `json:"score"`
	Reasons   []string  `json:"reasons,omitempty"`
}

// IsMatch reports whether the result qualifies the artist for recommendation.
func (r MatchResult) IsMatch() bool {
	return r.MatchType != MatchNone
}

// Better orders results by match type first and score second.
func (r MatchResult) Better(other MatchResult) bool {
	if r.MatchType != other.MatchType {
		return r.MatchType > other.MatchType
	}
	return r.Score > other.Score
}

// UnmarshalJSON accepts both the canonical match_type key and the camelCase
// matchType key still sent by older clients.
func (r *MatchResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		ArtistID       string   `json:"artist_id"`
		ArtistIDLegacy string   `json:"artistId"`
		MatchType      *string  `json:"match_type"`
		MatchTypeCamel *string  `json:"matchType"`
		Score          float64  `json:"score"`
		Reasons        []string `json:"reasons"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	r.ArtistID = wire.ArtistID
	if r.ArtistID == "" {
		r.ArtistID = wire.ArtistIDLegacy
	}
	r.Score = wire.Score
	r.Reasons = wire.Reasons
	r.MatchType = MatchNone

	raw := wire.MatchType
	if raw == nil {
		raw = wire.MatchTypeCamel
	}
	if raw != nil {
		mt, err := ParseMatchType(*raw)
		if err != nil {
			return err
		}
		r.MatchType = mt
	}
	return nil
}
