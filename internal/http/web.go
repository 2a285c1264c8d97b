package httpserver

import (
	"bytes"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/access"
	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutTemplate = "layout.html"
	flashCookie    = "flash"
	maxFormBody    = 64 << 10
)

var pageNames = []string{
	"index.html",
	"movies.html",
	"movie.html",
	"movie_form.html",
	"favorites.html",
	"profile.html",
	"login.html",
	"register.html",
	"admin_users.html",
	"error.html",
}

var templateFuncs = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"rating": func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	"date":   func(t time.Time) string { return t.Format("2006-01-02") },
	"add":    func(a, b int) int { return a + b },
}

// parsePages pairs every page template with the shared layout.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/"+layoutTemplate,
			"templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

type flash struct {
	Kind    string
	Message string
}

type pageData struct {
	Title     string
	Principal access.Principal
	Flash     *flash
	Data      interface{}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data interface{}) {
	tmpl, ok := s.pages[page]
	if !ok {
		s.logger.Error("unknown page template", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, layoutTemplate, pageData{
		Title:     title,
		Principal: principal(r),
		Flash:     s.popFlash(w, r),
		Data:      data,
	})
	if err != nil {
		s.logger.Error("render template", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) setFlash(w http.ResponseWriter, kind, message string) {
	value := base64.RawURLEncoding.EncodeToString([]byte(kind + "\n" + message))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads the one-shot flash message and expires its cookie.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(string(raw), "\n")
	if !ok || message == "" {
		return nil
	}
	return &flash{Kind: kind, Message: message}
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	s.setFlash(w, kind, message)
	s.redirect(w, r, target)
}

// redirectToLogin sends an anonymous visitor to the login page, returning them
// to the current page afterwards.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		next = localPath(r.Referer(), "/")
	}
	s.redirectWithFlash(w, r, "/login?next="+url.QueryEscape(next), "warning", "Please log in to continue")
}

// webError renders the outcome of a failed page load.
func (s *Server) webError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		s.redirectToLogin(w, r)
	case errors.Is(err, domain.ErrForbidden):
		s.render(w, r, http.StatusForbidden, "error.html", "Forbidden", "You do not have permission to view this page.")
	case errors.Is(err, domain.ErrNotFound):
		s.render(w, r, http.StatusNotFound, "error.html", "Not found", "The page you requested does not exist.")
	default:
		s.logger.Error("page failed", zap.String("path", r.URL.Path), zap.Error(err))
		s.render(w, r, http.StatusInternalServerError, "error.html", "Error", "Something went wrong. Please try again later.")
	}
}

// actionError reports a failed form action as a flash message on target.
func (s *Server) actionError(w http.ResponseWriter, r *http.Request, target string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		s.redirectToLogin(w, r)
	case errors.Is(err, domain.ErrForbidden):
		s.redirectWithFlash(w, r, target, "danger", clientMessage(err, domain.ErrForbidden, "You do not have permission to do that"))
	case errors.Is(err, domain.ErrNotFound):
		s.redirectWithFlash(w, r, target, "danger", clientMessage(err, domain.ErrNotFound, "Not found"))
	case errors.Is(err, domain.ErrConflict):
		s.redirectWithFlash(w, r, target, "warning", clientMessage(err, domain.ErrConflict, "Conflicting request"))
	case errors.Is(err, domain.ErrValidation):
		s.redirectWithFlash(w, r, target, "danger", clientMessage(err, domain.ErrValidation, "Invalid input"))
	default:
		s.logger.Error("action failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		s.redirectWithFlash(w, r, target, "danger", "Something went wrong. Please try again later.")
	}
}

// fieldErrors indexes validation failures by field for form re-rendering.
func fieldErrors(err error) map[string]string {
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	out := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		if _, seen := out[f.Field]; !seen {
			out[f.Field] = f.Message
		}
	}
	return out
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	return r.ParseForm()
}

// localPath returns raw when it is a same-site absolute path, fallback otherwise.
// Absolute URLs, such as Referer headers, are reduced to their path and query.
func localPath(raw, fallback string) string {
	if raw == "" || strings.Contains(raw, `\`) {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.Contains(u.Path, `\`) {
		return fallback
	}
	return u.RequestURI()
}
