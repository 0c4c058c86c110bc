package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yair/lineup/pkg/domain"
)

func TestValidPlatformID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"4Z8W4fKeB5YxbusRsdQVPb", true},
		{pid(7), true},
		{"", false},
		{"short", false},
		{"4Z8W4fKeB5YxbusRsdQVPbX", false},
		{"4Z8W4fKeB5Yxbus-sdQVPb", false},
		{"4Z8W4fKeB5Yxbus sdQVPb", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPlatformID(tt.id))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("empty inputs", func(t *testing.T) {
		set := Normalize(nil, nil)
		assert.Equal(t, 0, set.Len())
		assert.Empty(t, set.IDs())
		assert.Equal(t, 0, set.Rank(pid(1)))
	})

	t.Run("drops invalid ids and dedupes", func(t *testing.T) {
		artists := []domain.TopArtist{
			{ID: pid(1), Rank: 1},
			{ID: "bogus", Rank: 2},
			{ID: pid(2), Rank: 3},
			{ID: pid(1), Rank: 4},
		}
		set := Normalize(artists, nil)
		assert.Equal(t, []string{pid(1), pid(2)}, set.IDs())
		assert.Equal(t, 1, set.Rank(pid(1)))
		assert.Equal(t, 2, set.Rank(pid(2)))
		assert.False(t, set.Contains("bogus"))
	})

	t.Run("top artist rank wins over track artist", func(t *testing.T) {
		tracks := []domain.TopTrack{
			{ID: "t1", ArtistID: pid(3), Rank: 1},
			{ID: "t2", ArtistID: pid(1), Rank: 2},
			{ID: "t3", ArtistID: "", Rank: 3},
		}
		set := Normalize(topArtists(pid(1), pid(2)), tracks)
		assert.Equal(t, []string{pid(1), pid(2), pid(3)}, set.IDs())
		assert.Equal(t, 1, set.Rank(pid(1)))
		assert.Equal(t, 3, set.Rank(pid(3)))
	})

	t.Run("IDs returns a copy", func(t *testing.T) {
		set := Normalize(topArtists(pid(1)), nil)
		ids := set.IDs()
		ids[0] = "changed"
		assert.True(t, set.Contains(pid(1)))
		assert.Equal(t, pid(1), set.IDs()[0])
	})
}
