package matching

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yair/lineup/pkg/domain"
)

// pid builds a well-formed 22 character platform id.
func pid(n int) string {
	return fmt.Sprintf("A%021d", n)
}

func act(id, artistID, start, end string) domain.Act {
	return domain.Act{
		ID:       id,
		ArtistID: artistID,
		Start:    domain.MustClockTime(start),
		End:      domain.MustClockTime(end),
	}
}

func day(date, start, end string, stages ...domain.Stage) domain.FestivalDay {
	return domain.FestivalDay{
		Date:   date,
		Start:  domain.MustClockTime(start),
		End:    domain.MustClockTime(end),
		Stages: stages,
	}
}

func stage(name string, acts ...domain.Act) domain.Stage {
	return domain.Stage{Name: name, Acts: acts}
}

func topArtists(ids ...string) []domain.TopArtist {
	out := make([]domain.TopArtist, len(ids))
	for i, id := range ids {
		out[i] = domain.TopArtist{ID: id, Name: "user-" + id, Rank: i + 1}
	}
	return out
}

// recordingStore serves rows from a fixed table and remembers every batch it
// was asked for.
type recordingStore struct {
	mu      sync.Mutex
	rows    []domain.RelatedArtistRow
	limit   int
	failFor string
	batches [][]string
}

func (s *recordingStore) FindByPlatformIDs(ctx context.Context, platformIDs []string) ([]domain.RelatedArtistRow, error) {
	s.mu.Lock()
	batch := make([]string, len(platformIDs))
	copy(batch, platformIDs)
	s.batches = append(s.batches, batch)
	s.mu.Unlock()

	if s.limit > 0 && len(platformIDs) > s.limit {
		return nil, domain.ErrBatchTooLarge
	}

	wanted := make(map[string]struct{}, len(platformIDs))
	for _, id := range platformIDs {
		if id == s.failFor {
			return nil, fmt.Errorf("similarity table unavailable")
		}
		wanted[id] = struct{}{}
	}

	var out []domain.RelatedArtistRow
	for _, row := range s.rows {
		if _, ok := wanted[row.RelatedPlatformID]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *recordingStore) batchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make([]int, len(s.batches))
	for i, b := range s.batches {
		sizes[i] = len(b)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return sizes
}
