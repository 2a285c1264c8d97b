package httpserver

import (
	"net/url"
	"strings"
	"testing"
)

func FuzzBuildMovieQuery(f *testing.F) {
	seeds := []string{
		"genre=Drama&search=godfather&page=2",
		"page=abc",
		"per_page=500",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		q, err := buildMovieQuery(values)
		if err != nil {
			return
		}
		if q.Page < 0 || q.PerPage < 0 {
			t.Fatalf("negative paging accepted: %+v", q)
		}
	})
}

func FuzzLocalPath(f *testing.F) {
	for _, seed := range []string{"/movies/1", "//evil", "http://x/y", `/\x`, ""} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		got := localPath(raw, "/")
		if !strings.HasPrefix(got, "/") || strings.HasPrefix(got, "//") || strings.Contains(got, `\`) {
			t.Fatalf("localPath(%q) = %q is not a same-site path", raw, got)
		}
	})
}
