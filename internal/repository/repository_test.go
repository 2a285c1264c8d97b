package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/store"
	"github.com/Clark-Hu/movie-reviews/internal/testinfra"
)

type testEnv struct {
	ctx        context.Context
	store      *store.Store
	repository *Repository
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	pg := testinfra.NewPostgres(t)
	return &testEnv{ctx: pg.Ctx, store: pg.Store, repository: New(pg.Store)}
}

func mustCreateMovie(t testing.TB, env *testEnv, title string) domain.Movie {
	t.Helper()
	genre := "Action"
	movie, err := env.repository.Movies.Create(env.ctx, domain.MovieInput{Title: title, Year: 2020, Genre: &genre})
	if err != nil {
		t.Fatalf("create movie %q: %v", title, err)
	}
	return movie
}

func mustCreateUser(t testing.TB, env *testEnv, username string) domain.User {
	t.Helper()
	user, err := env.repository.Users.Create(env.ctx, UserCreateParams{Username: username, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return user
}

func mustCreateReview(t testing.TB, env *testEnv, user domain.User, movie domain.Movie, rating int) domain.Review {
	t.Helper()
	review, err := env.repository.Reviews.Create(env.ctx, ReviewCreateParams{
		MovieID: movie.ID,
		UserID:  user.ID,
		Content: "review by " + user.Username,
		Rating:  rating,
	})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	return review
}

func TestMoviesRepository_CreateGetList(t *testing.T) {
	env := newTestEnv(t)

	movieA := mustCreateMovie(t, env, "Movie A")
	movieB := mustCreateMovie(t, env, "Movie B")
	if movieA.Rating != 0 {
		t.Fatalf("new movie rating = %v, want 0", movieA.Rating)
	}

	if _, err := env.repository.Movies.GetByID(env.ctx, 9999, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown ID, got %v", err)
	}

	firstPage, err := env.repository.Movies.List(env.ctx, MovieListFilters{PerPage: 1})
	if err != nil {
		t.Fatalf("List first page: %v", err)
	}
	if len(firstPage.Items) != 1 || firstPage.Total != 2 {
		t.Fatalf("first page = %d items of %d, want 1 of 2", len(firstPage.Items), firstPage.Total)
	}
	secondPage, err := env.repository.Movies.List(env.ctx, MovieListFilters{PerPage: 1, Page: 2})
	if err != nil {
		t.Fatalf("List second page: %v", err)
	}
	if len(secondPage.Items) != 1 {
		t.Fatalf("second page size = %d, want 1", len(secondPage.Items))
	}
	if firstPage.Items[0].ID == secondPage.Items[0].ID {
		t.Fatalf("pagination returned duplicate movie")
	}
	if firstPage.Items[0].Title != "Movie A" {
		t.Fatalf("first page title = %s, want Movie A (title order)", firstPage.Items[0].Title)
	}

	gotByID, err := env.repository.Movies.GetByID(env.ctx, movieB.ID, nil)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gotByID.Title != movieB.Title {
		t.Fatalf("GetByID title = %s, want %s", gotByID.Title, movieB.Title)
	}
	if gotByID.IsFavorite != nil {
		t.Fatalf("anonymous view should leave IsFavorite nil")
	}
}

func TestMoviesRepository_ViewerCounters(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Counted")
	alice := mustCreateUser(t, env, "alice")
	bob := mustCreateUser(t, env, "bob")
	mustCreateReview(t, env, alice, movie, 4)
	if _, err := env.repository.Favorites.Add(env.ctx, alice.ID, movie.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	got, err := env.repository.Movies.GetByID(env.ctx, movie.ID, &alice.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FavoriteCount != 1 || got.ReviewCount != 1 {
		t.Fatalf("counters = %d favorites, %d reviews, want 1/1", got.FavoriteCount, got.ReviewCount)
	}
	if got.IsFavorite == nil || !*got.IsFavorite {
		t.Fatalf("alice should see the movie as favorite")
	}

	got, err = env.repository.Movies.GetByID(env.ctx, movie.ID, &bob.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IsFavorite == nil || *got.IsFavorite {
		t.Fatalf("bob should see is_favorite=false")
	}

	list, err := env.repository.Movies.List(env.ctx, MovieListFilters{ViewerID: &alice.ID, Genre: strPtr("act")})
	if err != nil {
		t.Fatalf("List with viewer: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].IsFavorite == nil || !*list.Items[0].IsFavorite {
		t.Fatalf("filtered list with viewer = %+v", list.Items)
	}
}

func TestMoviesRepository_YearCheck(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.repository.Movies.Create(env.ctx, domain.MovieInput{Title: "Too Old", Year: 1800})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation from CHECK constraint, got %v", err)
	}
}

func TestReviewsRepository_UniquePerUserAndMovie(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Reviewed")
	alice := mustCreateUser(t, env, "alice")
	review := mustCreateReview(t, env, alice, movie, 5)
	if review.Username != "alice" || review.MovieTitle != "Reviewed" {
		t.Fatalf("denormalized fields = %q/%q", review.Username, review.MovieTitle)
	}

	_, err := env.repository.Reviews.Create(env.ctx, ReviewCreateParams{MovieID: movie.ID, UserID: alice.ID, Content: "again", Rating: 1})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if !IsUniqueViolation(err, ReviewUniqueConstraint) {
		t.Fatalf("expected unique violation on %s, got %v", ReviewUniqueConstraint, err)
	}

	_, err = env.repository.Reviews.Create(env.ctx, ReviewCreateParams{MovieID: movie.ID, UserID: mustCreateUser(t, env, "bob").ID, Content: "bad", Rating: 6})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for rating 6, got %v", err)
	}

	_, err = env.repository.Reviews.Create(env.ctx, ReviewCreateParams{MovieID: 9999, UserID: alice.ID, Content: "ghost", Rating: 3})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing movie, got %v", err)
	}
}

func TestReviewsRepository_StatsAndLists(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Stats")
	stats, err := env.repository.Reviews.Stats(env.ctx, movie.ID)
	if err != nil {
		t.Fatalf("stats without reviews: %v", err)
	}
	if stats.Count != 0 || stats.Sum != 0 {
		t.Fatalf("empty stats = %+v", stats)
	}

	alice := mustCreateUser(t, env, "alice")
	bob := mustCreateUser(t, env, "bob")
	mustCreateReview(t, env, alice, movie, 5)
	second := mustCreateReview(t, env, bob, movie, 2)

	stats, err = env.repository.Reviews.Stats(env.ctx, movie.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != 2 || stats.Sum != 7 {
		t.Fatalf("stats = %+v, want sum 7 count 2", stats)
	}

	reviews, err := env.repository.Reviews.ListByMovie(env.ctx, movie.ID)
	if err != nil {
		t.Fatalf("ListByMovie: %v", err)
	}
	if len(reviews) != 2 || reviews[0].ID != second.ID {
		t.Fatalf("ListByMovie should return newest first: %+v", reviews)
	}

	mine, err := env.repository.Reviews.ListByUser(env.ctx, alice.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("ListByUser = %d reviews, want 1", len(mine))
	}

	if err := env.repository.Reviews.Delete(env.ctx, second.ID); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	if err := env.repository.Reviews.Delete(env.ctx, second.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestFavoritesRepository_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Loved")
	alice := mustCreateUser(t, env, "alice")
	favs := env.repository.Favorites

	for i, want := range []bool{true, false, false} {
		added, err := favs.Add(env.ctx, alice.ID, movie.ID)
		if err != nil {
			t.Fatalf("add #%d: %v", i, err)
		}
		if added != want {
			t.Fatalf("add #%d = %v, want %v", i, added, want)
		}
	}

	count, err := favs.CountFor(env.ctx, movie.ID)
	if err != nil || count != 1 {
		t.Fatalf("CountFor = %d, %v; want 1", count, err)
	}
	count, err = favs.CountOf(env.ctx, alice.ID)
	if err != nil || count != 1 {
		t.Fatalf("CountOf = %d, %v; want 1", count, err)
	}

	movies, err := favs.FavoritesOf(env.ctx, alice.ID, 10, 0)
	if err != nil {
		t.Fatalf("FavoritesOf: %v", err)
	}
	if len(movies) != 1 || movies[0].ID != movie.ID || movies[0].IsFavorite == nil || !*movies[0].IsFavorite {
		t.Fatalf("FavoritesOf = %+v", movies)
	}

	removed, err := favs.Remove(env.ctx, alice.ID, movie.ID)
	if err != nil || !removed {
		t.Fatalf("first remove = %v, %v", removed, err)
	}
	removed, err = favs.Remove(env.ctx, alice.ID, movie.ID)
	if err != nil || removed {
		t.Fatalf("second remove = %v, %v; want no-op", removed, err)
	}
	is, err := favs.IsFavorite(env.ctx, alice.ID, movie.ID)
	if err != nil || is {
		t.Fatalf("IsFavorite after remove = %v, %v", is, err)
	}

	if _, err := favs.Add(env.ctx, alice.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("add on missing movie should be ErrNotFound, got %v", err)
	}
}

func TestFavoritesRepository_ConcurrentAdds(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Race")
	alice := mustCreateUser(t, env, "alice")

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := env.repository.Favorites.Add(env.ctx, alice.ID, movie.ID)
			if err != nil {
				t.Errorf("concurrent add: %v", err)
				return
			}
			if added {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if inserted != 1 {
		t.Fatalf("inserted = %d, want exactly 1", inserted)
	}
}

func TestCascades(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Doomed")
	keeper := mustCreateMovie(t, env, "Keeper")
	alice := mustCreateUser(t, env, "alice")
	bob := mustCreateUser(t, env, "bob")
	mustCreateReview(t, env, alice, movie, 3)
	mustCreateReview(t, env, bob, keeper, 4)
	if _, err := env.repository.Favorites.Add(env.ctx, alice.ID, movie.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	if err := env.repository.Movies.Delete(env.ctx, movie.ID); err != nil {
		t.Fatalf("delete movie: %v", err)
	}
	if n, _ := env.repository.Favorites.CountOf(env.ctx, alice.ID); n != 0 {
		t.Fatalf("favorites left after movie delete: %d", n)
	}
	if n, _ := env.repository.Reviews.Count(env.ctx); n != 1 {
		t.Fatalf("reviews after movie delete = %d, want 1", n)
	}

	// Accounts are only dropped wholesale by Store.Reset; exercise the foreign key directly.
	if _, err := env.store.Pool().Exec(env.ctx, `DELETE FROM users WHERE id = $1`, bob.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if n, _ := env.repository.Reviews.Count(env.ctx); n != 0 {
		t.Fatalf("reviews after user delete = %d, want 0", n)
	}
}

func TestUsersRepository(t *testing.T) {
	env := newTestEnv(t)

	alice := mustCreateUser(t, env, "alice")
	if alice.IsAdmin {
		t.Fatalf("new users are regular")
	}
	if _, err := env.repository.Users.Create(env.ctx, UserCreateParams{Username: "alice", PasswordHash: "y"}); !IsUniqueViolation(err, UsernameConstraint) {
		t.Fatalf("expected username unique violation, got %v", err)
	}

	updated, err := env.repository.Users.SetAdmin(env.ctx, alice.ID, true)
	if err != nil || !updated.IsAdmin {
		t.Fatalf("SetAdmin = %+v, %v", updated, err)
	}
	if _, err := env.repository.Users.SetAdmin(env.ctx, 9999, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetAdmin on missing user: %v", err)
	}

	byName, err := env.repository.Users.GetByUsername(env.ctx, "alice")
	if err != nil || byName.ID != alice.ID {
		t.Fatalf("GetByUsername = %+v, %v", byName, err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	env := newTestEnv(t)

	errBoom := errors.New("boom")
	err := env.store.InTx(env.ctx, func(tx pgx.Tx) error {
		repo := WithTx(tx)
		if _, err := repo.Movies.Create(env.ctx, domain.MovieInput{Title: "Phantom", Year: 2000}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}
	if n, _ := env.repository.Movies.Count(env.ctx); n != 0 {
		t.Fatalf("rolled back insert is visible: %d movies", n)
	}
}

func BenchmarkMoviesRepositoryCreate(b *testing.B) {
	env := newTestEnv(b)

	for i := 0; i < b.N; i++ {
		_, err := env.repository.Movies.Create(env.ctx, domain.MovieInput{
			Title: fmt.Sprintf("Bench Movie %d", i),
			Year:  2020,
		})
		if err != nil {
			b.Fatalf("create movie: %v", err)
		}
	}
}

func BenchmarkFavoritesRepositoryAdd(b *testing.B) {
	env := newTestEnv(b)

	movie := mustCreateMovie(b, env, "Bench Movie")
	user := mustCreateUser(b, env, "bencher")
	for i := 0; i < b.N; i++ {
		if _, err := env.repository.Favorites.Add(env.ctx, user.ID, movie.ID); err != nil {
			b.Fatalf("add: %v", err)
		}
	}
}

func strPtr(s string) *string { return &s }

func TestTranslateErrorHidesDriverText(t *testing.T) {
	cases := []struct {
		code     string
		sentinel error
	}{
		{pgUniqueViolation, domain.ErrConflict},
		{pgForeignKeyViolation, domain.ErrNotFound},
		{pgCheckViolation, domain.ErrValidation},
	}
	for _, tc := range cases {
		pgErr := &pgconn.PgError{
			Code:           tc.code,
			ConstraintName: "reviews_rating_check",
			Message:        `new row for relation "reviews" violates check constraint`,
		}
		err := translateError(fmt.Errorf("insert review: %w", pgErr))
		if !errors.Is(err, tc.sentinel) {
			t.Fatalf("%s: expected %v, got %v", tc.code, tc.sentinel, err)
		}
		want := tc.sentinel.Error() + ": constraint reviews_rating_check"
		if err.Error() != want {
			t.Fatalf("%s: message = %q, want %q", tc.code, err.Error(), want)
		}
		var got *pgconn.PgError
		if !errors.As(err, &got) || got != pgErr {
			t.Fatalf("%s: driver error not kept in chain", tc.code)
		}
	}

	if !IsUniqueViolation(translateError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: UsernameConstraint}), UsernameConstraint) {
		t.Fatalf("unique violation lost after translation")
	}
	if err := translateError(pgx.ErrNoRows); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no rows = %v", err)
	}
	other := &pgconn.PgError{Code: "40001"}
	if err := translateError(other); err != other {
		t.Fatalf("unmapped code should pass through, got %v", err)
	}
}
