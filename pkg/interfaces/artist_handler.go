package interfaces

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/yair/lineup/pkg/domain"
)

type ArtistAPI interface {
	SearchArtists(ctx context.Context, query string, limit int) ([]domain.FestivalArtist, error)
	GetArtist(ctx context.Context, id string) (*domain.FestivalArtist, error)
}

type ArtistHandler struct {
	service ArtistAPI
}

func NewArtistHandler(service ArtistAPI) *ArtistHandler {
	return &ArtistHandler{
		service: service,
	}
}

func (h *ArtistHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/artists/search", h.SearchArtists).Methods("GET")
	router.HandleFunc("/api/artists/{id}", h.GetArtist).Methods("GET")
}

type artistSearchResponse struct {
	Artists []domain.FestivalArtist `json:"artists"`
	Total   int                     `json:"total"`
}

func (h *ArtistHandler) SearchArtists(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit := 10
	if limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsedLimit
	}

	artists, err := h.service.SearchArtists(ctx, query, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, artistSearchResponse{Artists: artists, Total: len(artists)})
}

func (h *ArtistHandler) GetArtist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	artist, err := h.service.GetArtist(ctx, mux.Vars(r)["id"])
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrArtistNotFound):
			respondWithError(w, http.StatusNotFound, "artist not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, artist)
}
