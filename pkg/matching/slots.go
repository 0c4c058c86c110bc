package matching

import (
	"fmt"
	"time"

	"github.com/yair/lineup/pkg/domain"
)

const DefaultSlotWidth = 2 * time.Hour

// Allocate splits the day's operating hours into width-sized slots and
// places every overlapping act in each slot, in stage order. An act is
// recommended when its artist matched. If the run matched anything at all,
// a slot holding acts but no recommendation gets its best-scoring act
// promoted so that every slot has something to show.
func Allocate(day domain.FestivalDay, index *CatalogIndex, results map[string]domain.MatchResult, width time.Duration) []domain.TimeSlot {
	step := int(width / time.Minute)
	if step <= 0 {
		step = int(DefaultSlotWidth / time.Minute)
	}

	d := index.lookupDay(day)
	anyMatch := hasAnyMatch(results)

	var slots []domain.TimeSlot
	for start := d.openAt; start < d.closeAt; start += step {
		end := start + step
		if end > d.closeAt {
			end = d.closeAt
		}

		slot := domain.TimeSlot{
			Start: clockAt(start),
			End:   clockAt(end),
			Acts:  []domain.SlotAct{},
		}
		for _, a := range d.overlapping(start, end) {
			slot.Acts = append(slot.Acts, slotAct(index.resolvedAct(a), results))
		}
		for _, sa := range slot.Acts {
			if sa.IsRecommended {
				slot.HasRecommendations = true
				break
			}
		}

		if !slot.HasRecommendations && anyMatch {
			promote(&slot, results)
		}
		slots = append(slots, slot)
	}

	return slots
}

func clockAt(offset int) domain.ClockTime {
	return domain.ClockTime(offset % domain.MinutesPerDay)
}

func hasAnyMatch(results map[string]domain.MatchResult) bool {
	for _, r := range results {
		if r.IsMatch() {
			return true
		}
	}
	return false
}

func slotAct(act domain.Act, results map[string]domain.MatchResult) domain.SlotAct {
	sa := domain.SlotAct{Act: act}
	if act.Artist == nil {
		return sa
	}
	if r, ok := results[act.Artist.ID]; ok && r.IsMatch() {
		match := r
		sa.Match = &match
		sa.IsRecommended = true
	}
	return sa
}

// promote marks the slot act whose artist scored highest. Earlier acts win
// ties; acts without an artist cannot be promoted.
func promote(slot *domain.TimeSlot, results map[string]domain.MatchResult) {
	best := -1
	var bestResult domain.MatchResult
	for i, sa := range slot.Acts {
		if sa.Act.Artist == nil {
			continue
		}
		r, ok := results[sa.Act.Artist.ID]
		if !ok {
			r = domain.MatchResult{ArtistID: sa.Act.Artist.ID}
		}
		if best < 0 || r.Score > bestResult.Score {
			best = i
			bestResult = r
		}
	}
	if best < 0 {
		return
	}

	reasons := make([]string, 0, len(bestResult.Reasons)+1)
	reasons = append(reasons, bestResult.Reasons...)
	reasons = append(reasons, fmt.Sprintf("promoted to cover the %s-%s slot", slot.Start, slot.End))
	bestResult.Reasons = reasons

	slot.Acts[best].IsRecommended = true
	slot.Acts[best].Promoted = true
	slot.Acts[best].Match = &bestResult
	slot.HasRecommendations = true
}
