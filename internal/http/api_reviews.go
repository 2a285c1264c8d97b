package httpserver

import (
	"fmt"
	"net/http"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

func (s *Server) handleAPIListReviews(w http.ResponseWriter, r *http.Request) {
	movieID, err := idParam(r, "movieID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	reviews, err := s.svc.ListReviews(r.Context(), principal(r), movieID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"items": toReviewResponses(reviews)})
}

func (s *Server) handleAPICreateReview(w http.ResponseWriter, r *http.Request) {
	movieID, err := idParam(r, "movieID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	review, err := s.svc.AddReview(r.Context(), principal(r), movieID, domain.ReviewInput{
		Content: req.Content,
		Rating:  req.Rating,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/reviews/%d", review.ID))
	s.respondJSON(w, http.StatusCreated, toReviewResponse(review))
}

func (s *Server) handleAPIGetReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reviewID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	review, err := s.svc.GetReview(r.Context(), principal(r), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleAPIDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reviewID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if _, err := s.svc.DeleteReview(r.Context(), principal(r), id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, messageResponse{Message: "Review deleted"})
}
