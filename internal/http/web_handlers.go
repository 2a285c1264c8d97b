package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/access"
	"github.com/Clark-Hu/movie-reviews/internal/catalog"
	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/repository"
)

type moviesPage struct {
	Result repository.MovieListResult
	Genres []string
	Query  catalog.MovieQuery
}

// PageURL links to another page of the same filtered listing.
func (p moviesPage) PageURL(page int) string {
	v := url.Values{}
	if p.Query.Genre != "" {
		v.Set("genre", p.Query.Genre)
	}
	if p.Query.Search != "" {
		v.Set("search", p.Query.Search)
	}
	v.Set("page", strconv.Itoa(page))
	return "/movies?" + v.Encode()
}

type reviewView struct {
	domain.Review
	CanDelete bool
}

type moviePage struct {
	Movie       domain.Movie
	Reviews     []reviewView
	IsFavorite  bool
	HasReviewed bool
}

type movieForm struct {
	Title       string
	Year        string
	Director    string
	Description string
	Genre       string
}

type movieFormPage struct {
	Action string
	Form   movieForm
	Errors map[string]string
}

type favoritesPage struct {
	Movies []domain.Movie
	Page   int
	More   bool
}

type authPage struct {
	Username string
	Email    string
	Next     string
	Errors   map[string]string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	home, err := s.svc.Home(r.Context(), principal(r))
	if err != nil {
		s.webError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "index.html", "Home", home)
}

func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	query, err := buildMovieQuery(r.URL.Query())
	if err != nil {
		query = catalog.MovieQuery{Genre: query.Genre, Search: query.Search}
	}
	result, err := s.svc.ListMovies(r.Context(), principal(r), query)
	if err != nil {
		s.webError(w, r, err)
		return
	}
	genres, err := s.svc.Genres(r.Context())
	if err != nil {
		s.webError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "movies.html", "Movies", moviesPage{Result: result, Genres: genres, Query: query})
}

func (s *Server) handleMovieDetail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.webError(w, r, domain.ErrNotFound)
		return
	}
	p := principal(r)
	movie, err := s.svc.GetMovie(r.Context(), p, id)
	if err != nil {
		s.webError(w, r, err)
		return
	}
	reviews, err := s.svc.ListReviews(r.Context(), p, id)
	if err != nil {
		s.webError(w, r, err)
		return
	}

	page := moviePage{Movie: movie, Reviews: make([]reviewView, 0, len(reviews))}
	if movie.IsFavorite != nil {
		page.IsFavorite = *movie.IsFavorite
	}
	viewer, signedIn := p.UserID()
	for _, review := range reviews {
		page.Reviews = append(page.Reviews, reviewView{
			Review:    review,
			CanDelete: access.CanDeleteReview(p, review) == nil,
		})
		if signedIn && review.UserID == viewer {
			page.HasReviewed = true
		}
	}
	s.render(w, r, http.StatusOK, "movie.html", movie.Title, page)
}

func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.webError(w, r, domain.ErrNotFound)
		return
	}
	target := fmt.Sprintf("/movies/%d", id)
	if err := parseForm(w, r); err != nil {
		s.redirectWithFlash(w, r, target, "danger", "Unable to read the form")
		return
	}
	rating, _ := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("rating")))

	_, err = s.svc.AddReview(r.Context(), principal(r), id, domain.ReviewInput{
		Content: r.PostForm.Get("content"),
		Rating:  rating,
	})
	if err != nil {
		s.actionError(w, r, target, err)
		return
	}
	s.redirectWithFlash(w, r, target, "success", "Review added!")
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reviewID")
	if err != nil {
		s.webError(w, r, domain.ErrNotFound)
		return
	}
	review, err := s.svc.DeleteReview(r.Context(), principal(r), id)
	if err != nil {
		s.actionError(w, r, localPath(r.Referer(), "/movies"), err)
		return
	}
	s.redirectWithFlash(w, r, fmt.Sprintf("/movies/%d", review.MovieID), "success", "Review deleted")
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.webError(w, r, domain.ErrNotFound)
		return
	}
	target := fmt.Sprintf("/movies/%d", id)
	if err := parseForm(w, r); err == nil {
		target = localPath(r.PostForm.Get("next"), target)
	}

	p := principal(r)
	status, err := s.svc.ToggleFavorite(r.Context(), p, id)
	if err != nil {
		s.actionError(w, r, target, err)
		return
	}
	movie, err := s.svc.GetMovie(r.Context(), p, id)
	if err != nil {
		s.actionError(w, r, target, err)
		return
	}
	action := "removed from"
	if status.IsFavorite {
		action = "added to"
	}
	s.redirectWithFlash(w, r, target, "success", fmt.Sprintf("Movie %q %s favorites", movie.Title, action))
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	page := 1
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 1 {
		page = n
	}
	movies, err := s.svc.ListFavorites(r.Context(), principal(r), page)
	if err != nil {
		s.webError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "favorites.html", "My favorites", favoritesPage{
		Movies: movies,
		Page:   page,
		More:   len(movies) == repository.DefaultPerPage,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.Profile(r.Context(), principal(r))
	if err != nil {
		s.webError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "profile.html", "Profile", profile)
}

func (s *Server) handleNewMovieForm(w http.ResponseWriter, r *http.Request) {
	if err := access.Authorize(principal(r), access.AdminOnly); err != nil {
		s.webError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "movie_form.html", "Add movie", movieFormPage{Action: "/movies/new"})
}

func (s *Server) handleNewMovie(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if err := access.Authorize(p, access.AdminOnly); err != nil {
		s.actionError(w, r, "/movies", err)
		return
	}
	form, in, err := readMovieForm(w, r)
	if err != nil {
		s.redirectWithFlash(w, r, "/movies/new", "danger", "Unable to read the form")
		return
	}

	movie, err := s.svc.CreateMovie(r.Context(), p, in)
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			s.render(w, r, http.StatusUnprocessableEntity, "movie_form.html", "Add movie",
				movieFormPage{Action: "/movies/new", Form: form, Errors: errs})
			return
		}
		s.actionError(w, r, "/movies/new", err)
		return
	}
	s.redirectWithFlash(w, r, fmt.Sprintf("/movies/%d", movie.ID), "success", "Movie added!")
}

func (s *Server) handleEditMovieForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.webError(w, r, domain.ErrNotFound)
		return
	}
	p := principal(r)
	if err := access.Authorize(p, access.AdminOnly); err != nil {
		s.webError(w, r, err)
		return
	}
	movie, err := s.svc.GetMovie(r.Context(), p, id)
	if err != nil {
		s.webError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "movie_form.html", "Edit movie", movieFormPage{
		Action: fmt.Sprintf("/movies/%d/edit", id),
		Form:   formFromMovie(movie),
	})
}

func (s *Server) handleEditMovie(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.webError(w, r, domain.ErrNotFound)
		return
	}
	action := fmt.Sprintf("/movies/%d/edit", id)
	form, in, err := readMovieForm(w, r)
	if err != nil {
		s.redirectWithFlash(w, r, action, "danger", "Unable to read the form")
		return
	}

	movie, err := s.svc.UpdateMovie(r.Context(), principal(r), id, in)
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			s.render(w, r, http.StatusUnprocessableEntity, "movie_form.html", "Edit movie",
				movieFormPage{Action: action, Form: form, Errors: errs})
			return
		}
		s.actionError(w, r, fmt.Sprintf("/movies/%d", id), err)
		return
	}
	s.redirectWithFlash(w, r, fmt.Sprintf("/movies/%d", movie.ID), "success", "Movie updated!")
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "movieID")
	if err != nil {
		s.webError(w, r, domain.ErrNotFound)
		return
	}
	movie, err := s.svc.DeleteMovie(r.Context(), principal(r), id)
	if err != nil {
		s.actionError(w, r, fmt.Sprintf("/movies/%d", id), err)
		return
	}
	s.redirectWithFlash(w, r, "/movies", "success", fmt.Sprintf("Movie %q deleted", movie.Title))
}

func readMovieForm(w http.ResponseWriter, r *http.Request) (movieForm, domain.MovieInput, error) {
	if err := parseForm(w, r); err != nil {
		return movieForm{}, domain.MovieInput{}, err
	}
	form := movieForm{
		Title:       r.PostForm.Get("title"),
		Year:        strings.TrimSpace(r.PostForm.Get("year")),
		Director:    r.PostForm.Get("director"),
		Description: r.PostForm.Get("description"),
		Genre:       r.PostForm.Get("genre"),
	}
	// An unparsable year stays zero and fails the required rule.
	year, _ := strconv.Atoi(form.Year)
	return form, domain.MovieInput{
		Title:       form.Title,
		Year:        year,
		Director:    &form.Director,
		Description: &form.Description,
		Genre:       &form.Genre,
	}, nil
}

func formFromMovie(m domain.Movie) movieForm {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return movieForm{
		Title:       m.Title,
		Year:        strconv.Itoa(m.Year),
		Director:    deref(m.Director),
		Description: deref(m.Description),
		Genre:       deref(m.Genre),
	}
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if principal(r).IsAuthenticated() {
		s.redirect(w, r, "/")
		return
	}
	s.render(w, r, http.StatusOK, "login.html", "Log in", authPage{Next: localPath(r.URL.Query().Get("next"), "")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if principal(r).IsAuthenticated() {
		s.redirect(w, r, "/")
		return
	}
	if err := parseForm(w, r); err != nil {
		s.redirectWithFlash(w, r, "/login", "danger", "Unable to read the form")
		return
	}
	page := authPage{
		Username: r.PostForm.Get("username"),
		Next:     localPath(r.PostForm.Get("next"), ""),
	}

	user, err := s.svc.Authenticate(r.Context(), domain.Credentials{
		Username: page.Username,
		Password: r.PostForm.Get("password"),
	})
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			page.Errors = errs
			s.render(w, r, http.StatusUnprocessableEntity, "login.html", "Log in", page)
			return
		}
		if errors.Is(err, domain.ErrInvalidCredentials) {
			page.Errors = map[string]string{"form": "Invalid username or password"}
			s.render(w, r, http.StatusUnauthorized, "login.html", "Log in", page)
			return
		}
		s.webError(w, r, err)
		return
	}

	token, session, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		s.webError(w, r, err)
		return
	}
	s.setSessionCookie(w, token, session.ExpiresAt)
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	s.redirectWithFlash(w, r, localPath(page.Next, "/"), "success", "You are now logged in!")
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if principal(r).IsAuthenticated() {
		s.redirect(w, r, "/")
		return
	}
	s.render(w, r, http.StatusOK, "register.html", "Register", authPage{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if principal(r).IsAuthenticated() {
		s.redirect(w, r, "/")
		return
	}
	if err := parseForm(w, r); err != nil {
		s.redirectWithFlash(w, r, "/register", "danger", "Unable to read the form")
		return
	}
	page := authPage{
		Username: r.PostForm.Get("username"),
		Email:    r.PostForm.Get("email"),
	}

	_, err := s.svc.Register(r.Context(), domain.Registration{
		Username:        page.Username,
		Email:           page.Email,
		Password:        r.PostForm.Get("password"),
		PasswordConfirm: r.PostForm.Get("password_confirm"),
	})
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			page.Errors = errs
			s.render(w, r, http.StatusUnprocessableEntity, "register.html", "Register", page)
			return
		}
		s.webError(w, r, err)
		return
	}
	s.redirectWithFlash(w, r, "/login", "success", "Registration successful! You can now log in.")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	s.redirectWithFlash(w, r, "/", "info", "You have been logged out.")
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	dir, err := s.svc.UserDirectory(r.Context(), principal(r))
	if err != nil {
		s.webError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_users.html", "Users", dir)
}

func (s *Server) handleMakeAdmin(w http.ResponseWriter, r *http.Request) {
	s.changeRole(w, r, true)
}

func (s *Server) handleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	s.changeRole(w, r, false)
}

func (s *Server) changeRole(w http.ResponseWriter, r *http.Request, isAdmin bool) {
	id, err := idParam(r, "userID")
	if err != nil {
		s.webError(w, r, domain.ErrNotFound)
		return
	}
	user, err := s.svc.SetAdmin(r.Context(), principal(r), id, isAdmin)
	if err != nil {
		s.actionError(w, r, "/admin/users", err)
		return
	}
	message := fmt.Sprintf("User %s is now an administrator", user.Username)
	if !isAdmin {
		message = fmt.Sprintf("User %s is no longer an administrator", user.Username)
	}
	s.redirectWithFlash(w, r, "/admin/users", "success", message)
}

func (s *Server) handleReinit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reinitialize(r.Context(), principal(r)); err != nil {
		s.actionError(w, r, "/", err)
		return
	}
	// Account ids restart with the schema, so the old session is meaningless.
	s.clearSessionCookie(w)
	s.redirectWithFlash(w, r, "/login", "success", "Database reinitialized!")
}
