package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	"github.com/yair/lineup/pkg/domain"
	"github.com/yair/lineup/pkg/logger"
)

type RecommendationAPI interface {
	Festivals(ctx context.Context) ([]domain.FestivalSummary, error)
	Timetable(ctx context.Context, festivalID string) (*domain.Catalog, error)
	Recommend(ctx context.Context, festivalID string, token *oauth2.Token) (*domain.RecommendationSet, error)
	RecommendForProfile(ctx context.Context, profileID, festivalID string) (*domain.RecommendationSet, error)
}

type RecommendationHandler struct {
	service RecommendationAPI
	logger  logger.Logger
}

func NewRecommendationHandler(service RecommendationAPI, log logger.Logger) *RecommendationHandler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RecommendationHandler{
		service: service,
		logger:  log,
	}
}

func (h *RecommendationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/festivals", h.ListFestivals).Methods("GET")
	router.HandleFunc("/api/festivals/{id}/timetable", h.GetTimetable).Methods("GET")
	router.HandleFunc("/api/festivals/{id}/recommendations", h.Recommend).Methods("POST")
	router.HandleFunc("/api/profiles/{profileID}/festivals/{id}/recommendations", h.SharedRecommendations).Methods("GET")
}

type festivalsResponse struct {
	Festivals []domain.FestivalSummary `json:"festivals"`
	Total     int                      `json:"total"`
}

// partialResponse carries what was computed before a run failed.
type partialResponse struct {
	Error   string                    `json:"error"`
	Partial *domain.RecommendationSet `json:"partial,omitempty"`
}

func (h *RecommendationHandler) ListFestivals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	festivals, err := h.service.Festivals(ctx)
	if err != nil {
		h.handleError(w, err, nil)
		return
	}

	respondWithJSON(w, http.StatusOK, festivalsResponse{Festivals: festivals, Total: len(festivals)})
}

func (h *RecommendationHandler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	catalog, err := h.service.Timetable(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, err, nil)
		return
	}

	respondWithJSON(w, http.StatusOK, catalog)
}

func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	token, ok := bearerToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "bearer token is required")
		return
	}

	set, err := h.service.Recommend(ctx, mux.Vars(r)["id"], token)
	if err != nil {
		h.handleError(w, err, set)
		return
	}

	respondWithJSON(w, http.StatusOK, set)
}

func (h *RecommendationHandler) SharedRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	vars := mux.Vars(r)
	set, err := h.service.RecommendForProfile(ctx, vars["profileID"], vars["id"])
	if err != nil {
		h.handleError(w, err, set)
		return
	}

	respondWithJSON(w, http.StatusOK, set)
}

func (h *RecommendationHandler) handleError(w http.ResponseWriter, err error, partial *domain.RecommendationSet) {
	var validation domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		respondWithError(w, http.StatusBadRequest, "invalid request")
	case errors.As(err, &validation):
		respondWithError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "spotify rejected the access token")
	case errors.Is(err, domain.ErrFestivalNotFound):
		respondWithError(w, http.StatusNotFound, "festival not found")
	case errors.Is(err, domain.ErrProfileNotFound):
		respondWithError(w, http.StatusNotFound, "profile not found")
	case errors.Is(err, domain.ErrRateLimitExceeded):
		respondWithError(w, http.StatusTooManyRequests, "spotify rate limit exceeded")
	case errors.Is(err, domain.ErrRecommendationFailed):
		h.logger.WithError(err).Warn("recommendation run incomplete", nil)
		respondWithJSON(w, http.StatusBadGateway, partialResponse{
			Error:   "recommendation generation failed",
			Partial: partial,
		})
	case errors.Is(err, domain.ErrExternalAPIFailure):
		h.logger.WithError(err).Warn("external service failed", nil)
		respondWithError(w, http.StatusBadGateway, "external service unavailable")
	default:
		h.logger.WithError(err).Error("request failed", nil)
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func bearerToken(r *http.Request) (*oauth2.Token, bool) {
	header := r.Header.Get("Authorization")
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}, true
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
