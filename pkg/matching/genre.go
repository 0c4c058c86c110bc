package matching

import (
	"strings"
)

// GenreCategory is a broad bucket grouping many granular genre tags.
type GenreCategory string

const (
	CategoryDance       GenreCategory = "Dance"
	CategoryHeavy       GenreCategory = "Heavy"
	CategoryHiphop      GenreCategory = "Hiphop"
	CategoryIndie       GenreCategory = "Indie"
	CategoryPop         GenreCategory = "Pop"
	CategoryFolk        GenreCategory = "Folk"
	CategoryRnBSoulJazz GenreCategory = "R&B/Soul/Jazz"
)

// categoryKeywords maps each category to the words that place a tag in it.
// A tag belongs to a category when one of the keywords appears in it as a
// whole word sequence, so "melodic techno" is Dance and "dance pop" is both
// Dance and Pop.
var categoryKeywords = map[GenreCategory][]string{
	CategoryDance: {
		"house", "techno", "edm", "electro", "electronic", "electronica",
		"trance", "dubstep", "drum and bass", "dnb", "jungle", "disco",
		"dance", "garage", "uk garage", "breakbeat", "breaks", "hardstyle",
		"minimal", "big room", "bass music", "downtempo", "idm", "rave",
	},
	CategoryHeavy: {
		"metal", "metalcore", "deathcore", "hardcore", "punk", "hard rock",
		"grunge", "screamo", "doom", "sludge", "stoner rock", "thrash",
		"nu metal", "djent", "post hardcore",
	},
	CategoryHiphop: {
		"hip hop", "rap", "trap", "drill", "grime", "boom bap", "gangster rap",
		"underground hip hop", "cloud rap",
	},
	CategoryIndie: {
		"indie", "alternative", "shoegaze", "post punk", "lo fi", "britpop",
		"garage rock", "emo", "post rock", "art rock", "rock", "psych",
		"psychedelic", "new wave",
	},
	CategoryPop: {
		"pop", "k pop", "electropop", "synthpop", "dance pop", "teen pop",
		"europop", "schlager", "bubblegum",
	},
	CategoryFolk: {
		"folk", "americana", "country", "bluegrass", "singer songwriter",
		"acoustic", "celtic",
	},
	CategoryRnBSoulJazz: {
		"r&b", "rnb", "soul", "neo soul", "jazz", "funk", "blues", "gospel",
		"motown", "quiet storm",
	},
}

// NormalizeGenre lowercases a tag and folds separators so that "Hip-Hop",
// "hip hop" and " hip  hop " compare equal.
func NormalizeGenre(g string) string {
	g = strings.ToLower(strings.TrimSpace(g))
	g = strings.NewReplacer("-", " ", "_", " ").Replace(g)
	return strings.Join(strings.Fields(g), " ")
}

// GenreSet returns the normalized, non-empty tags of genres.
func GenreSet(genres []string) map[string]struct{} {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if n := NormalizeGenre(g); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// CategoriesOf maps granular tags to their broad categories.
func CategoriesOf(genres []string) map[GenreCategory]struct{} {
	out := make(map[GenreCategory]struct{})
	for g := range GenreSet(genres) {
		padded := " " + g + " "
		for category, keywords := range categoryKeywords {
			for _, kw := range keywords {
				if strings.Contains(padded, " "+kw+" ") {
					out[category] = struct{}{}
					break
				}
			}
		}
	}
	return out
}
