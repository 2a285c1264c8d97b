package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

func (s *Server) handleAPIRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	user, err := s.svc.Register(r.Context(), domain.Registration{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	user, err := s.svc.Authenticate(r.Context(), domain.Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	token, session, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.setSessionCookie(w, token, session.ExpiresAt)
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	s.respondJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      toUserResponse(user),
	})
}

// handleAPILogout clears the session cookie. Bearer tokens stay valid until
// they expire.
func (s *Server) handleAPILogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIListUsers(w http.ResponseWriter, r *http.Request) {
	dir, err := s.svc.UserDirectory(r.Context(), principal(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	items := make([]userResponse, 0, len(dir.Users))
	for _, u := range dir.Users {
		items = append(items, toUserResponse(u))
	}
	s.respondJSON(w, http.StatusOK, userListResponse{
		Items:        items,
		AdminCount:   dir.AdminCount,
		RegularCount: dir.RegularCount,
	})
}

func (s *Server) handleAPIGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "userID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	user, err := s.svc.GetUser(r.Context(), principal(r), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleAPIGrantAdmin(w http.ResponseWriter, r *http.Request) {
	s.setAdminAPI(w, r, true)
}

func (s *Server) handleAPIRevokeAdmin(w http.ResponseWriter, r *http.Request) {
	s.setAdminAPI(w, r, false)
}

func (s *Server) setAdminAPI(w http.ResponseWriter, r *http.Request, isAdmin bool) {
	id, err := idParam(r, "userID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	user, err := s.svc.SetAdmin(r.Context(), principal(r), id, isAdmin)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleAPIReinit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reinitialize(r.Context(), principal(r)); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, messageResponse{Message: "Database reinitialized"})
}
