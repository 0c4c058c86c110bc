package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yair/lineup/pkg/domain"
)

func TestNewCatalogIndex(t *testing.T) {
	t.Run("nil catalog", func(t *testing.T) {
		idx := NewCatalogIndex(nil)
		assert.Empty(t, idx.AllArtists())
		assert.Empty(t, idx.Days())
		assert.Nil(t, idx.ActsInWindow("2024-07-01", 0, 120))
	})

	t.Run("dedupes artists across stages and days", func(t *testing.T) {
		resident := domain.FestivalArtist{ID: "dj", PlatformID: pid(1), Name: "Resident"}
		guest := domain.FestivalArtist{ID: "guest", Name: "Guest"}
		a1 := act("a1", "dj", "20:00", "22:00")
		a1.Artist = &resident
		a2 := act("a2", "dj", "20:00", "22:00")
		a2.Artist = &resident
		a3 := act("a3", "guest", "18:00", "19:00")
		a3.Artist = &guest

		catalog := &domain.Catalog{
			Artists: []domain.FestivalArtist{resident},
			Days: []domain.FestivalDay{
				day("2024-07-01", "12:00", "23:00", stage("Main", a1), stage("Tent", a3)),
				day("2024-07-02", "12:00", "23:00", stage("Main", a2)),
			},
		}
		idx := NewCatalogIndex(catalog)

		artists := idx.AllArtists()
		require.Len(t, artists, 2)
		assert.Equal(t, "dj", artists[0].ID)
		assert.Equal(t, "guest", artists[1].ID)

		found, ok := idx.ArtistByPlatformID(pid(1))
		require.True(t, ok)
		assert.Equal(t, "dj", found.ID)
	})

	t.Run("fills stage name and day on acts", func(t *testing.T) {
		catalog := &domain.Catalog{
			Artists: []domain.FestivalArtist{{ID: "x"}},
			Days:    []domain.FestivalDay{day("2024-07-01", "12:00", "23:00", stage("Main", act("a1", "x", "13:00", "14:00")))},
		}
		acts := NewCatalogIndex(catalog).ActsInWindow("2024-07-01", domain.MustClockTime("12:00"), domain.MustClockTime("14:00"))
		require.Len(t, acts, 1)
		assert.Equal(t, "Main", acts[0].StageName)
		assert.Equal(t, "2024-07-01", acts[0].Day)
		require.NotNil(t, acts[0].Artist)
		assert.Equal(t, "x", acts[0].Artist.ID)
	})
}

func TestCatalogIndex_ActsInWindow(t *testing.T) {
	catalog := &domain.Catalog{
		Artists: []domain.FestivalArtist{{ID: "late"}, {ID: "early"}, {ID: "edge"}},
		Days: []domain.FestivalDay{
			day("2024-07-01", "12:00", "02:00",
				stage("Main",
					act("a-early", "early", "14:00", "15:00"),
					act("a-late", "late", "23:30", "01:00"),
				),
				stage("Tent",
					act("a-edge", "edge", "16:00", "18:00"),
				),
			),
		},
	}
	idx := NewCatalogIndex(catalog)

	ids := func(acts []domain.Act) []string {
		var out []string
		for _, a := range acts {
			out = append(out, a.ID)
		}
		return out
	}

	t.Run("overnight act overlaps the after-midnight window", func(t *testing.T) {
		acts := idx.ActsInWindow("2024-07-01", domain.MustClockTime("00:00"), domain.MustClockTime("02:00"))
		assert.Equal(t, []string{"a-late"}, ids(acts))
	})

	t.Run("overnight act overlaps the before-midnight window", func(t *testing.T) {
		acts := idx.ActsInWindow("2024-07-01", domain.MustClockTime("22:00"), domain.MustClockTime("00:00"))
		assert.Equal(t, []string{"a-late"}, ids(acts))
	})

	t.Run("half-open boundaries", func(t *testing.T) {
		acts := idx.ActsInWindow("2024-07-01", domain.MustClockTime("15:00"), domain.MustClockTime("16:00"))
		assert.Empty(t, acts)

		acts = idx.ActsInWindow("2024-07-01", domain.MustClockTime("14:00"), domain.MustClockTime("17:00"))
		assert.Equal(t, []string{"a-early", "a-edge"}, ids(acts))
	})

	t.Run("unknown day", func(t *testing.T) {
		assert.Nil(t, idx.ActsInWindow("2030-01-01", 0, 120))
	})
}

func TestCatalogIndex_DanglingArtist(t *testing.T) {
	catalog := &domain.Catalog{
		Days: []domain.FestivalDay{
			day("2024-07-01", "12:00", "18:00", stage("Main", act("ghost-act", "ghost", "13:00", "14:00"))),
		},
	}
	idx := NewCatalogIndex(catalog)

	acts := idx.ActsInWindow("2024-07-01", domain.MustClockTime("12:00"), domain.MustClockTime("18:00"))
	require.Len(t, acts, 1)
	assert.Nil(t, acts[0].Artist)

	_, ok := idx.ArtistForAct(acts[0])
	assert.False(t, ok)
}
