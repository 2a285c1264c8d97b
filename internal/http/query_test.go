package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Clark-Hu/movie-reviews/internal/catalog"
	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

func TestBuildMovieQuery(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    catalog.MovieQuery
		wantErr bool
	}{
		{name: "empty", raw: "", want: catalog.MovieQuery{}},
		{name: "filters trimmed", raw: "genre=+Drama+&search=%20god%20", want: catalog.MovieQuery{Genre: "Drama", Search: "god"}},
		{name: "paging", raw: "page=3&per_page=20", want: catalog.MovieQuery{Page: 3, PerPage: 20}},
		{name: "blank page ignored", raw: "page=&per_page=", want: catalog.MovieQuery{}},
		{name: "page zero", raw: "page=0", wantErr: true},
		{name: "page not a number", raw: "page=abc", wantErr: true},
		{name: "negative per_page", raw: "per_page=-5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got, err := buildMovieQuery(values)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "/fallback"},
		{"/movies/3", "/movies/3"},
		{"/movies?page=2", "/movies?page=2"},
		{"http://localhost:8080/favorites?page=2", "/favorites?page=2"},
		{"http://localhost/%5Cevil.example", "/fallback"},
		{"https://evil.example/phish", "/phish"},
		{"//evil.example/x", "/fallback"},
		{`/\evil.example`, "/fallback"},
		{"movies", "/fallback"},
		{"javascript:alert(1)", "/fallback"},
	}
	for _, tt := range tests {
		if got := localPath(tt.raw, "/fallback"); got != tt.want {
			t.Errorf("localPath(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if got := sessionToken(req); got != "" {
		t.Fatalf("expected no token, got %q", got)
	}

	req.Header.Set("Authorization", "Bearer abc.def")
	if got := sessionToken(req); got != "abc.def" {
		t.Fatalf("bearer token = %q", got)
	}

	req.Header.Set("Authorization", "Basic dXNlcg==")
	if got := sessionToken(req); got != "" {
		t.Fatalf("non-bearer scheme should be ignored, got %q", got)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "from-cookie"})
	if got := sessionToken(req); got != "from-cookie" {
		t.Fatalf("cookie token = %q", got)
	}
}

func TestClientMessage(t *testing.T) {
	wrapped := fmt.Errorf("%w: cannot change your own role", domain.ErrForbidden)
	if got := clientMessage(wrapped, domain.ErrForbidden, "fallback"); got != "cannot change your own role" {
		t.Fatalf("got %q", got)
	}
	if got := clientMessage(domain.ErrForbidden, domain.ErrForbidden, "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
	suffixed := fmt.Errorf("movie 7 %w", domain.ErrNotFound)
	if got := clientMessage(suffixed, domain.ErrNotFound, "fallback"); got != "movie 7 not found" {
		t.Fatalf("got %q", got)
	}
	if !errors.Is(suffixed, domain.ErrNotFound) {
		t.Fatalf("suffixed error lost its sentinel")
	}
}
