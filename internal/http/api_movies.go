package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/movie-reviews/internal/catalog"
	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

func (s *Server) handleAPIListMovies(w http.ResponseWriter, r *http.Request) {
	query, err := buildMovieQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.svc.ListMovies(r.Context(), principal(r), query)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieListResponse(result))
}

// buildMovieQuery parses the listing filters. Blank values are ignored.
func buildMovieQuery(query url.Values) (catalog.MovieQuery, error) {
	q := catalog.MovieQuery{
		Genre:  strings.TrimSpace(query.Get("genre")),
		Search: strings.TrimSpace(query.Get("search")),
	}
	if val := strings.TrimSpace(query.Get("page")); val != "" {
		page, err := strconv.Atoi(val)
		if err != nil || page < 1 {
			return q, fmt.Errorf("invalid page value")
		}
		q.Page = page
	}
	if val := strings.TrimSpace(query.Get("per_page")); val != "" {
		perPage, err := strconv.Atoi(val)
		if err != nil || perPage < 1 {
			return q, fmt.Errorf("invalid per_page value")
		}
		q.PerPage = perPage
	}
	return q, nil
}

func (s *Server) handleAPICreateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	movie, err := s.svc.CreateMovie(r.Context(), principal(r), req.input())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/movies/%d", movie.ID))
	s.respondJSON(w, http.StatusCreated, toMovieResponse(movie))
}

func (s *Server) handleAPIGetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, err := s.svc.GetMovie(r.Context(), principal(r), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleAPIUpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	var req movieRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	movie, err := s.svc.UpdateMovie(r.Context(), principal(r), id, req.input())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleAPIDeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, err := s.svc.DeleteMovie(r.Context(), principal(r), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Movie %q deleted", movie.Title)})
}

func (s *Server) handleAPIFavoriteStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	status, err := s.svc.FavoriteStatus(r.Context(), principal(r), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toFavoriteResponse("", status))
}

func (s *Server) handleAPIAddFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	status, added, err := s.svc.AddFavorite(r.Context(), principal(r), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if !added {
		s.respondJSON(w, http.StatusConflict, errorResponse{
			Code:    "CONFLICT",
			Message: clientMessage(catalog.ErrAlreadyFavorite, domain.ErrConflict, ""),
			Details: toFavoriteResponse("", status),
		})
		return
	}
	s.respondJSON(w, http.StatusCreated, toFavoriteResponse("Added to favorites", status))
}

func (s *Server) handleAPIRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	status, removed, err := s.svc.RemoveFavorite(r.Context(), principal(r), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	message := "Removed from favorites"
	if !removed {
		message = "Movie was not in favorites"
	}
	s.respondJSON(w, http.StatusOK, toFavoriteResponse(message, status))
}

func (s *Server) handleAPIListFavorites(w http.ResponseWriter, r *http.Request) {
	page := 1
	if val := strings.TrimSpace(r.URL.Query().Get("page")); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid page value")
			return
		}
		page = n
	}

	movies, err := s.svc.ListFavorites(r.Context(), principal(r), page)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"items": toMovieResponses(movies), "page": page})
}
