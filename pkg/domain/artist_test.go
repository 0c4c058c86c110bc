package domain

import (
	"testing"
)

func TestFestivalArtist(t *testing.T) {
	t.Run("artist with platform id", func(t *testing.T) {
		artist := FestivalArtist{
			ID:         "fa-1",
			PlatformID: "4Z8W4fKeB5YxbusRsdQVPb",
			Name:       "Radiohead",
			Genres:     []string{"art rock", "alternative rock"},
		}

		if !artist.HasPlatformID() {
			t.Error("expected artist to have a platform id")
		}
		if artist.DedupeKey() != "4Z8W4fKeB5YxbusRsdQVPb" {
			t.Errorf("expected dedupe key to be the platform id, got %s", artist.DedupeKey())
		}
	})

	t.Run("artist without platform id", func(t *testing.T) {
		artist := FestivalArtist{ID: "fa-2", Name: "Local Resident DJ", PlatformID: "  "}

		if artist.HasPlatformID() {
			t.Error("expected blank platform id to count as missing")
		}
		if artist.DedupeKey() != "internal:fa-2" {
			t.Errorf("expected internal dedupe key, got %s", artist.DedupeKey())
		}
	})
}

func TestListeningProfile_IsEmpty(t *testing.T) {
	if !(ListeningProfile{ProfileID: "user"}).IsEmpty() {
		t.Error("expected profile without history to be empty")
	}

	profile := ListeningProfile{
		ProfileID: "user",
		TopTracks: []TopTrack{{ID: "t1", ArtistID: "a1", Rank: 1}},
	}
	if profile.IsEmpty() {
		t.Error("expected profile with tracks to be non-empty")
	}
}

func TestParseRelationStrength(t *testing.T) {
	tests := []struct {
		in   string
		want RelationStrength
	}{
		{"heavy", StrengthHeavy},
		{" Medium ", StrengthMedium},
		{"LIGHT", StrengthLight},
		{"", StrengthUnknown},
		{"strong", StrengthUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseRelationStrength(tt.in); got != tt.want {
				t.Errorf("ParseRelationStrength(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
