package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/yair/lineup/pkg/domain"
)

type mockArtistService struct {
	searchFunc func(ctx context.Context, query string, limit int) ([]domain.FestivalArtist, error)
	getFunc    func(ctx context.Context, id string) (*domain.FestivalArtist, error)
}

func (m *mockArtistService) SearchArtists(ctx context.Context, query string, limit int) ([]domain.FestivalArtist, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockArtistService) GetArtist(ctx context.Context, id string) (*domain.FestivalArtist, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, nil
}

func serveArtists(service ArtistAPI, method, target string) *httptest.ResponseRecorder {
	handler := NewArtistHandler(service)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	req, _ := http.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestArtistHandler_SearchArtists(t *testing.T) {
	t.Run("successful search", func(t *testing.T) {
		mockService := &mockArtistService{
			searchFunc: func(ctx context.Context, query string, limit int) ([]domain.FestivalArtist, error) {
				if query != "radio" || limit != 3 {
					t.Errorf("unexpected query %q limit %d", query, limit)
				}
				return []domain.FestivalArtist{{ID: "1", Name: "Radiohead"}}, nil
			},
		}

		rr := serveArtists(mockService, "GET", "/api/artists/search?q=radio&limit=3")

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}

		var response artistSearchResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
			t.Fatalf("could not unmarshal response: %v", err)
		}
		if response.Total != 1 || response.Artists[0].Name != "Radiohead" {
			t.Errorf("unexpected response %+v", response)
		}
	})

	t.Run("missing query parameter", func(t *testing.T) {
		rr := serveArtists(&mockArtistService{}, "GET", "/api/artists/search")
		if status := rr.Code; status != http.StatusBadRequest {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
		}
	})

	t.Run("invalid limit parameter", func(t *testing.T) {
		rr := serveArtists(&mockArtistService{}, "GET", "/api/artists/search?q=test&limit=invalid")
		if status := rr.Code; status != http.StatusBadRequest {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
		}
	})

	t.Run("service error", func(t *testing.T) {
		mockService := &mockArtistService{
			searchFunc: func(ctx context.Context, query string, limit int) ([]domain.FestivalArtist, error) {
				return nil, errors.New("service error")
			},
		}

		rr := serveArtists(mockService, "GET", "/api/artists/search?q=test")
		if status := rr.Code; status != http.StatusInternalServerError {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusInternalServerError)
		}
	})
}

func TestArtistHandler_GetArtist(t *testing.T) {
	t.Run("successful get", func(t *testing.T) {
		mockService := &mockArtistService{
			getFunc: func(ctx context.Context, id string) (*domain.FestivalArtist, error) {
				return &domain.FestivalArtist{ID: id, Name: "Test Artist"}, nil
			},
		}

		rr := serveArtists(mockService, "GET", "/api/artists/123")
		if status := rr.Code; status != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}

		var artist domain.FestivalArtist
		if err := json.Unmarshal(rr.Body.Bytes(), &artist); err != nil {
			t.Fatalf("could not unmarshal response: %v", err)
		}
		if artist.ID != "123" {
			t.Errorf("expected artist ID 123, got %s", artist.ID)
		}
	})

	t.Run("artist not found", func(t *testing.T) {
		mockService := &mockArtistService{
			getFunc: func(ctx context.Context, id string) (*domain.FestivalArtist, error) {
				return nil, domain.ErrArtistNotFound
			},
		}

		rr := serveArtists(mockService, "GET", "/api/artists/999")
		if status := rr.Code; status != http.StatusNotFound {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
		}
	})

	t.Run("service error", func(t *testing.T) {
		mockService := &mockArtistService{
			getFunc: func(ctx context.Context, id string) (*domain.FestivalArtist, error) {
				return nil, errors.New("boom")
			},
		}

		rr := serveArtists(mockService, "GET", "/api/artists/1")
		if status := rr.Code; status != http.StatusInternalServerError {
			t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusInternalServerError)
		}
	})
}
