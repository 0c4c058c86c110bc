package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yair/lineup/pkg/domain"
	"github.com/yair/lineup/pkg/logger"
)

func festival() *domain.Catalog {
	return &domain.Catalog{
		FestivalID: "fest-1",
		Version:    "v3",
		Artists: []domain.FestivalArtist{
			{ID: "a1", PlatformID: pid(1), Name: "Headliner"},
			{ID: "sim", PlatformID: pid(20), Name: "Similar", RelatedPlatformIDs: []string{pid(2)}},
			{ID: "dance", Name: "Warehouse Crew", Genres: []string{"minimal techno"}},
			{ID: "quiet", PlatformID: pid(21), Name: "Quiet", Genres: []string{"polka"}},
		},
		Days: []domain.FestivalDay{
			day("2024-07-01", "12:00", "20:00",
				stage("Main",
					act("act-a1", "a1", "14:00", "15:00"),
					act("act-quiet", "quiet", "17:00", "18:00"),
				),
				stage("Tent",
					act("act-dance", "dance", "12:00", "13:00"),
				),
			),
			day("2024-07-02", "18:00", "02:00",
				stage("Main",
					act("act-sim", "sim", "23:30", "01:00"),
					act("act-a1-again", "a1", "19:00", "20:00"),
				),
			),
		},
	}
}

func TestEngine_Recommend(t *testing.T) {
	profile := domain.ListeningProfile{
		ProfileID: "user-1",
		TopArtists: []domain.TopArtist{
			{ID: pid(1), Name: "Headliner", Rank: 1},
			{ID: pid(2), Name: "Friend", Genres: []string{"deep house"}, Rank: 2},
		},
	}

	engine := NewEngine(nil, DefaultOptions(), logger.NewTestLogger(t))
	set, err := engine.Recommend(context.Background(), profile, festival())
	require.NoError(t, err)

	assert.True(t, set.Complete)
	assert.Equal(t, "fest-1", set.FestivalID)
	assert.Equal(t, "v3", set.CatalogVersion)
	assert.Equal(t, "user-1", set.ProfileID)
	assert.False(t, set.GeneratedAt.IsZero())
	require.Len(t, set.Days, 2)

	day1 := set.Days[0]
	assert.Equal(t, "2024-07-01", day1.Day)
	require.Equal(t, []string{"12:00-14:00", "14:00-16:00", "16:00-18:00", "18:00-20:00"}, slotBounds(day1.TimeSlots))

	direct := day1.TimeSlots[1]
	assert.True(t, direct.HasRecommendations)
	require.Len(t, direct.Acts, 1)
	require.NotNil(t, direct.Acts[0].Match)
	assert.Equal(t, domain.MatchDirect, direct.Acts[0].Match.MatchType)
	assert.Equal(t, 100.0, direct.Acts[0].Match.Score)

	// "quiet" never matches but its slot is covered by promotion.
	covered := day1.TimeSlots[2]
	assert.True(t, covered.HasRecommendations)
	assert.True(t, covered.Acts[0].Promoted)

	day2 := set.Days[1]
	require.Equal(t, []string{"18:00-20:00", "20:00-22:00", "22:00-00:00", "00:00-02:00"}, slotBounds(day2.TimeSlots))
	late := day2.TimeSlots[3]
	require.Len(t, late.Acts, 1)
	assert.Equal(t, "act-sim", late.Acts[0].Act.ID)
	assert.Equal(t, domain.MatchRelated, late.Acts[0].Match.MatchType)
	assert.Equal(t, 72.0, late.Acts[0].Match.Score)

	var flat []string
	for _, ra := range set.Artists {
		flat = append(flat, ra.Artist.ID+":"+ra.Match.MatchType.String())
	}
	assert.Equal(t, []string{"a1:direct", "sim:related", "dance:genre_light"}, flat)
}

func TestEngine_DirectScenario(t *testing.T) {
	catalog := &domain.Catalog{
		FestivalID: "f",
		Artists:    []domain.FestivalArtist{{ID: "artist-a1", PlatformID: pid(1)}},
		Days: []domain.FestivalDay{
			day("2024-07-01", "12:00", "22:00", stage("Main", act("show", "artist-a1", "14:00", "15:00"))),
		},
	}
	profile := domain.ListeningProfile{TopArtists: topArtists(pid(1))}

	set, err := NewEngine(nil, DefaultOptions(), nil).Recommend(context.Background(), profile, catalog)
	require.NoError(t, err)

	require.Len(t, set.Artists, 1)
	assert.Equal(t, domain.MatchDirect, set.Artists[0].Match.MatchType)
	assert.Equal(t, 100.0, set.Artists[0].Match.Score)

	for _, slot := range set.Days[0].TimeSlots {
		if slot.Start == domain.MustClockTime("14:00") {
			assert.Equal(t, domain.MustClockTime("16:00"), slot.End)
			assert.True(t, slot.HasRecommendations)
			return
		}
	}
	t.Fatal("14:00-16:00 slot not generated")
}

func TestEngine_EmptyInputs(t *testing.T) {
	engine := NewEngine(nil, DefaultOptions(), nil)

	set, err := engine.Recommend(context.Background(), domain.ListeningProfile{}, nil)
	require.NoError(t, err)
	assert.True(t, set.Complete)
	assert.Empty(t, set.Days)
	assert.Empty(t, set.Artists)

	set, err = engine.Recommend(context.Background(), domain.ListeningProfile{}, festival())
	require.NoError(t, err)
	assert.Empty(t, set.Artists)
	for _, d := range set.Days {
		for _, s := range d.TimeSlots {
			assert.False(t, s.HasRecommendations)
		}
	}
}

func TestEngine_PartialResultsOnStoreFailure(t *testing.T) {
	ids := make([]string, 15)
	for i := range ids {
		ids[i] = pid(i + 1)
	}
	profile := domain.ListeningProfile{TopArtists: topArtists(ids...)}

	store := &recordingStore{
		rows:    []domain.RelatedArtistRow{{SourceArtistID: "sim", RelatedPlatformID: pid(12), Strength: domain.StrengthHeavy}},
		failFor: pid(12),
	}
	engine := NewEngine(store, Options{BatchSize: 10}, logger.NewTestLogger(t))

	set, err := engine.Recommend(context.Background(), profile, festival())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRecommendationFailed))
	require.NotNil(t, set)
	assert.False(t, set.Complete)

	// The direct match does not depend on the failed batch.
	require.NotEmpty(t, set.Artists)
	assert.Equal(t, "a1", set.Artists[0].Artist.ID)
	for _, ra := range set.Artists {
		assert.NotEqual(t, "sim", ra.Artist.ID)
	}
}
