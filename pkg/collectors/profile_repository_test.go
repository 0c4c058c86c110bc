package collectors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yair/lineup/pkg/domain"
)

func TestProfileRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, err := NewProfileRepository(db)
	require.NoError(t, err)
	ctx := context.Background()

	fetched := time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC)
	profile := &domain.ListeningProfile{
		ProfileID:   "user-1",
		DisplayName: "Dana",
		TopArtists: []domain.TopArtist{
			{ID: "4Z8W4fKeB5YxbusRsdQVPb", Name: "Radiohead", Genres: []string{"art rock"}, Rank: 1},
		},
		TopTracks: []domain.TopTrack{
			{ID: "t1", Name: "Reckoner", ArtistID: "4Z8W4fKeB5YxbusRsdQVPb", Rank: 1},
		},
		FetchedAt: fetched,
	}

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, profile))

		found, err := repo.GetByID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Dana", found.DisplayName)
		assert.Equal(t, profile.TopArtists, found.TopArtists)
		assert.Equal(t, profile.TopTracks, found.TopTracks)
		assert.True(t, fetched.Equal(found.FetchedAt))
	})

	t.Run("overwrite snapshot", func(t *testing.T) {
		updated := *profile
		updated.TopTracks = nil
		require.NoError(t, repo.Save(ctx, &updated))

		found, err := repo.GetByID(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, found.TopTracks)
		assert.Len(t, found.TopArtists, 1)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, nil))

		var verr domain.ValidationError
		assert.ErrorAs(t, repo.Save(ctx, &domain.ListeningProfile{}), &verr)
	})
}
