package matching

import (
	"sort"

	"github.com/yair/lineup/pkg/domain"
)

// Assemble pairs each day with its allocated slots, in day order. Days
// without an allocation get an empty slot list.
func Assemble(days []domain.FestivalDay, allocations map[string][]domain.TimeSlot) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(days))
	for _, day := range days {
		slots := allocations[day.Date]
		if slots == nil {
			slots = []domain.TimeSlot{}
		}
		recs = append(recs, domain.Recommendation{Day: day.Date, TimeSlots: slots})
	}
	return recs
}

// Flatten lists each matched artist once, at its first appearance walking
// day, slot and act order. Artists sharing a platform id collapse into one
// entry. Acts promoted only for slot coverage are left out. The result is
// ordered best match first; equal matches keep their timetable order.
func Flatten(recs []domain.Recommendation) []domain.RecommendedArtist {
	seen := make(map[string]struct{})
	var out []domain.RecommendedArtist

	for _, rec := range recs {
		for _, slot := range rec.TimeSlots {
			for _, sa := range slot.Acts {
				if !sa.IsRecommended || sa.Promoted || sa.Match == nil || sa.Act.Artist == nil {
					continue
				}
				key := sa.Act.Artist.DedupeKey()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				day := sa.Act.Day
				if day == "" {
					day = rec.Day
				}
				out = append(out, domain.RecommendedArtist{
					Artist:    *sa.Act.Artist,
					Match:     *sa.Match,
					Day:       day,
					StageName: sa.Act.StageName,
					Start:     sa.Act.Start,
					End:       sa.Act.End,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Match.Better(out[j].Match)
	})
	return out
}
