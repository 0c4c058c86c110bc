package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"

	"github.com/yair/lineup/pkg/domain"
)

const (
	DefaultSpotifyBaseURL = "https://api.spotify.com/v1"
	defaultTopLimit       = 50
	defaultTimeRange      = "medium_term"
)

// Scopes needed to read a visitor's top artists and tracks.
var SpotifyScopes = []string{"user-top-read", "user-read-private"}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	BaseURL      string
	TimeRange    string
	Limit        int
	Timeout      time.Duration
}

// SpotifyClient reads listening history on behalf of a visitor whose access
// token was issued elsewhere. Expired tokens carrying a refresh token are
// refreshed against Spotify's token endpoint.
type SpotifyClient struct {
	baseURL    string
	oauth      *oauth2.Config
	httpClient *http.Client
	timeRange  string
	limit      int
}

func NewSpotifyClient(config SpotifyConfig) (*SpotifyClient, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("spotify client ID and secret are required")
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultSpotifyBaseURL
	}
	if config.TimeRange == "" {
		config.TimeRange = defaultTimeRange
	}
	if config.Limit <= 0 || config.Limit > defaultTopLimit {
		config.Limit = defaultTopLimit
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &SpotifyClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       SpotifyScopes,
			Endpoint:     spotify.Endpoint,
		},
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		timeRange: config.TimeRange,
		limit:     config.Limit,
	}, nil
}

type spotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

type spotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []spotifyArtist `json:"artists"`
}

type spotifyTopArtistsResponse struct {
	Items []spotifyArtist `json:"items"`
}

type spotifyTopTracksResponse struct {
	Items []spotifyTrack `json:"items"`
}

// ListeningProfile fetches the visitor's identity, top artists and top
// tracks. Ranks are 1-based positions in Spotify's ordering.
func (c *SpotifyClient) ListeningProfile(ctx context.Context, token *oauth2.Token) (*domain.ListeningProfile, error) {
	if token == nil || token.AccessToken == "" {
		return nil, domain.ErrUnauthorized
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := c.oauth.Client(ctx, token)

	var me spotifyUser
	if err := c.get(ctx, client, "/me", nil, &me); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", c.limit))
	query.Set("time_range", c.timeRange)

	var artists spotifyTopArtistsResponse
	if err := c.get(ctx, client, "/me/top/artists", query, &artists); err != nil {
		return nil, err
	}

	var tracks spotifyTopTracksResponse
	if err := c.get(ctx, client, "/me/top/tracks", query, &tracks); err != nil {
		return nil, err
	}

	profile := &domain.ListeningProfile{
		ProfileID:   me.ID,
		DisplayName: me.DisplayName,
		TopArtists:  make([]domain.TopArtist, 0, len(artists.Items)),
		TopTracks:   make([]domain.TopTrack, 0, len(tracks.Items)),
		FetchedAt:   time.Now().UTC(),
	}

	for i, a := range artists.Items {
		genres := a.Genres
		if genres == nil {
			genres = []string{}
		}
		profile.TopArtists = append(profile.TopArtists, domain.TopArtist{
			ID:     a.ID,
			Name:   a.Name,
			Genres: genres,
			Rank:   i + 1,
		})
	}

	for i, t := range tracks.Items {
		track := domain.TopTrack{ID: t.ID, Name: t.Name, Rank: i + 1}
		if len(t.Artists) > 0 {
			track.ArtistID = t.Artists[0].ID
		}
		profile.TopTracks = append(profile.TopTracks, track)
	}

	return profile, nil
}

func (c *SpotifyClient) get(ctx context.Context, client *http.Client, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return fmt.Errorf("%w: token refresh rejected", domain.ErrUnauthorized)
		}
		return fmt.Errorf("%w: spotify %s: %v", domain.ErrExternalAPIFailure, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimitExceeded
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: spotify %s: status %d", domain.ErrExternalAPIFailure, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode spotify %s response: %v", domain.ErrExternalAPIFailure, path, err)
	}

	return nil
}
