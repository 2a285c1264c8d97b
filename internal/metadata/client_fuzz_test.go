package metadata

import (
	"testing"
	"unicode/utf8"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
)

func FuzzConvertToResult(f *testing.F) {
	f.Add("Christopher Nolan", "Sci-Fi", "Action", "A thief who steals secrets.")
	f.Add("", "", "", "")
	f.Add("  ", "\t", "Drama", "")

	f.Fuzz(func(t *testing.T, director, genre, extraGenre, plot string) {
		resp := apiResponse{
			Director: optionalString(director),
			Plot:     optionalString(plot),
			Genres:   []string{genre, extraGenre},
		}
		if len(plot)%2 == 0 {
			resp.Genre = optionalString(genre)
		}

		result := convertToResult(resp)
		if result == nil {
			t.Fatalf("convertToResult returned nil result")
		}
		for _, v := range []*string{result.Director, result.Genre, result.Description} {
			if v != nil && *v == "" {
				t.Fatalf("blank values must be nil, got empty string")
			}
		}
		if result.Director != nil && utf8.RuneCountInString(*result.Director) > domain.MaxDirectorLength {
			t.Fatalf("director not clipped: %d runes", utf8.RuneCountInString(*result.Director))
		}
		if result.Genre != nil && utf8.RuneCountInString(*result.Genre) > domain.MaxGenreLength {
			t.Fatalf("genre not clipped: %d runes", utf8.RuneCountInString(*result.Genre))
		}
	})
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
