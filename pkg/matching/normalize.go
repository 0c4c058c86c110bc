package matching

import (
	"regexp"

	"github.com/yair/lineup/pkg/domain"
)

// Spotify ids are 22 base-62 characters.
var platformIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

// ValidPlatformID reports whether id has the shape of a Spotify artist id.
func ValidPlatformID(id string) bool {
	return platformIDPattern.MatchString(id)
}

// IdentifierSet is an insertion-ordered set of platform ids. Rank is the
// 1-based position in that order, so lower ranks mean stronger listening
// signals.
type IdentifierSet struct {
	ids  []string
	rank map[string]int
}

// Normalize merges top artists and the primary artists of top tracks into a
// single ranked set. Invalid ids are dropped without error. Top artists are
// the stronger signal, so they are inserted first and an id present in both
// sources keeps its top-artist rank.
func Normalize(topArtists []domain.TopArtist, topTracks []domain.TopTrack) IdentifierSet {
	set := IdentifierSet{rank: make(map[string]int, len(topArtists)+len(topTracks))}

	for _, a := range topArtists {
		set.add(a.ID)
	}
	for _, t := range topTracks {
		set.add(t.ArtistID)
	}

	return set
}

func (s *IdentifierSet) add(id string) {
	if !ValidPlatformID(id) {
		return
	}
	if _, seen := s.rank[id]; seen {
		return
	}
	s.ids = append(s.ids, id)
	s.rank[id] = len(s.ids)
}

func (s IdentifierSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s IdentifierSet) Len() int {
	return len(s.ids)
}

func (s IdentifierSet) Contains(id string) bool {
	_, ok := s.rank[id]
	return ok
}

// Rank returns 0 for ids outside the set.
func (s IdentifierSet) Rank(id string) int {
	return s.rank[id]
}
