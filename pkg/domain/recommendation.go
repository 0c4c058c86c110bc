package domain

import (
	"context"
	"time"
)

type SlotAct struct {
	Act           Act          `json:"act"`
	IsRecommended bool         `json:"is_recommended"`
	Promoted      bool         `json:"promoted,omitempty"`
	Match         *MatchResult `json:"match,omitempty"`
}

type TimeSlot struct {
	Start              ClockTime `json:"start"`
	End                ClockTime `json:"end"`
	Acts               []SlotAct `json:"acts"`
	HasRecommendations bool      `json:"has_recommendations"`
}

type Recommendation struct {
	Day       string     `json:"day"`
	TimeSlots []TimeSlot `json:"time_slots"`
}

type RecommendedArtist struct {
	Artist    FestivalArtist `json:"artist"`
	Match     MatchResult    `json:"match"`
	Day       string         `json:"day"`
	StageName string         `json:"stage_name"`
	Start     ClockTime      `json:"start_time"`
	End       ClockTime      `json:"end_time"`
}

type RecommendationSet struct {
	FestivalID     string              `json:"festival_id"`
	CatalogVersion string              `json:"catalog_version"`
	ProfileID      string              `json:"profile_id"`
	Days           []Recommendation    `json:"days"`
	Artists        []RecommendedArtist `json:"artists"`
	GeneratedAt    time.Time           `json:"generated_at"`
	Complete       bool                `json:"complete"`
}

// RecommendationKey identifies a cached recommendation set.
type RecommendationKey struct {
	ProfileID      string
	FestivalID     string
	CatalogVersion string
}

type RecommendationCache interface {
	Get(ctx context.Context, key RecommendationKey) (*RecommendationSet, error)
	Set(ctx context.Context, key RecommendationKey, set *RecommendationSet) error
}
