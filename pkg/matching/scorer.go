package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/yair/lineup/pkg/domain"
)

const (
	DirectScore          = 100.0
	RelatedHeavyScore    = 80.0
	RelatedMediumScore   = 60.0
	RelatedLightScore    = 40.0
	RelatedDefaultScore  = 80.0
	GenrePerOverlap      = 20.0
	GenreMaxScore        = 50.0
	GenreLightPerOverlap = 10.0
	GenreLightMaxScore   = 30.0

	DefaultRankDiscountStep = 0.1

	// minTierScore keeps heavily discounted direct and related matches above
	// zero so that a zero score always means no match.
	minTierScore = 1.0
)

func relatedBaseScore(s domain.RelationStrength) float64 {
	switch s {
	case domain.StrengthHeavy:
		return RelatedHeavyScore
	case domain.StrengthMedium:
		return RelatedMediumScore
	case domain.StrengthLight:
		return RelatedLightScore
	default:
		return RelatedDefaultScore
	}
}

type ScorerOptions struct {
	// RankDiscountStep is the fraction of the base score lost per rank below
	// the top. Zero disables the discount.
	RankDiscountStep float64
}

type Scorer struct {
	step float64
}

func NewScorer(opts ScorerOptions) *Scorer {
	step := opts.RankDiscountStep
	if step < 0 {
		step = 0
	}
	return &Scorer{step: step}
}

func (s *Scorer) discount(base float64, rank int) float64 {
	if rank < 1 {
		rank = 1
	}
	factor := 1 - float64(rank-1)*s.step
	if factor < 0 {
		factor = 0
	}
	score := math.Round(base*factor*100) / 100
	if score < minTierScore {
		return minTierScore
	}
	return score
}

type contribution struct {
	userID   string
	rank     int
	strength domain.RelationStrength
	score    float64
}

// Score assigns exactly one MatchResult to every festival artist in index.
// Tiers are tried in order direct, related, genre, genre_light and the first
// that applies wins. The result depends only on the arguments.
func (s *Scorer) Score(profile domain.ListeningProfile, ids IdentifierSet, index *CatalogIndex, related RelatedMap) map[string]domain.MatchResult {
	artists := index.AllArtists()
	results := make(map[string]domain.MatchResult, len(artists))

	var userGenreTags []string
	names := make(map[string]string, len(profile.TopArtists))
	for _, a := range profile.TopArtists {
		userGenreTags = append(userGenreTags, a.Genres...)
		if a.Name != "" {
			names[a.ID] = a.Name
		}
	}
	userGenres := GenreSet(userGenreTags)
	userCategories := CategoriesOf(userGenreTags)

	byArtist := make(map[string][]contribution)
	for userID, relatedArtists := range related {
		rank := ids.Rank(userID)
		if rank == 0 {
			continue
		}
		for _, r := range relatedArtists {
			byArtist[r.ArtistID] = append(byArtist[r.ArtistID], contribution{
				userID:   userID,
				rank:     rank,
				strength: r.Strength,
				score:    s.discount(relatedBaseScore(r.Strength), rank),
			})
		}
	}

	for _, artist := range artists {
		results[artist.ID] = s.scoreArtist(artist, ids, names, byArtist[artist.ID], userGenres, userCategories)
	}

	return results
}

func (s *Scorer) scoreArtist(
	artist domain.FestivalArtist,
	ids IdentifierSet,
	names map[string]string,
	contributions []contribution,
	userGenres map[string]struct{},
	userCategories map[GenreCategory]struct{},
) domain.MatchResult {
	result := domain.MatchResult{ArtistID: artist.ID, MatchType: domain.MatchNone}

	if artist.HasPlatformID() && ids.Contains(artist.PlatformID) {
		rank := ids.Rank(artist.PlatformID)
		result.MatchType = domain.MatchDirect
		result.Score = s.discount(DirectScore, rank)
		result.Reasons = []string{fmt.Sprintf("direct match with listening history (rank %d)", rank)}
		return result
	}

	if artist.HasPlatformID() && len(contributions) > 0 {
		sorted := make([]contribution, len(contributions))
		copy(sorted, contributions)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].rank != sorted[j].rank {
				return sorted[i].rank < sorted[j].rank
			}
			return sorted[i].userID < sorted[j].userID
		})

		best := 0.0
		reasons := make([]string, 0, len(sorted))
		for _, c := range sorted {
			if c.score > best {
				best = c.score
			}
			reasons = append(reasons, fmt.Sprintf("related to %s (rank %d, %s)", displayName(names, c.userID), c.rank, strengthLabel(c.strength)))
		}
		result.MatchType = domain.MatchRelated
		result.Score = best
		result.Reasons = reasons
		return result
	}

	artistGenres := GenreSet(artist.Genres)
	var shared []string
	for g := range artistGenres {
		if _, ok := userGenres[g]; ok {
			shared = append(shared, g)
		}
	}
	if len(shared) > 0 {
		sort.Strings(shared)
		result.MatchType = domain.MatchGenre
		result.Score = math.Min(GenrePerOverlap*float64(len(shared)), GenreMaxScore)
		result.Reasons = []string{"shared genres: " + strings.Join(shared, ", ")}
		return result
	}

	var sharedCategories []string
	for c := range CategoriesOf(artist.Genres) {
		if _, ok := userCategories[c]; ok {
			sharedCategories = append(sharedCategories, string(c))
		}
	}
	if len(sharedCategories) > 0 {
		sort.Strings(sharedCategories)
		result.MatchType = domain.MatchGenreLight
		result.Score = math.Min(GenreLightPerOverlap*float64(len(sharedCategories)), GenreLightMaxScore)
		result.Reasons = []string{"shared genre categories: " + strings.Join(sharedCategories, ", ")}
		return result
	}

	return result
}

func displayName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func strengthLabel(s domain.RelationStrength) string {
	if s == domain.StrengthUnknown {
		return "unrated"
	}
	return string(s)
}
