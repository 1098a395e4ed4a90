package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
)

// fixedNow pins year validation to 2020 so the tests never rot.
func fixedNow() time.Time {
	return time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTitleService(t *testing.T) (TitleService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewTitleService(
		repository.NewTitleRepo(db),
		repository.NewCategoryRepo(db),
		repository.NewGenreRepo(db),
		fixedNow,
	)
	return svc, db
}

func seedCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Slug: slug}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedGenre(t *testing.T, db *gorm.DB, name, slug string) *models.Genre {
	t.Helper()
	g := &models.Genre{Name: name, Slug: slug}
	require.NoError(t, db.Create(g).Error)
	return g
}

func TestTitleService_Create(t *testing.T) {
	ctx := context.Background()
	svc, db := newTitleService(t)

	seedCategory(t, db, "Movies", "movies")
	seedGenre(t, db, "Sci-Fi", "sci-fi")
	seedGenre(t, db, "Drama", "drama")

	t.Run("Success", func(t *testing.T) {
		resp, err := svc.Create(ctx, dto.CreateTitleDTO{
			Name:     "Arrival",
			Year:     2016,
			Category: "movies",
			Genres:   []string{"sci-fi", "drama"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Arrival", resp.Name)
		require.NotNil(t, resp.Category)
		assert.Equal(t, "movies", resp.Category.Slug)
		assert.Len(t, resp.Genres, 2)
		assert.Nil(t, resp.Rating)
	})

	t.Run("CurrentYearAllowed", func(t *testing.T) {
		_, err := svc.Create(ctx, dto.CreateTitleDTO{Name: "Tenet", Year: 2020, Category: "movies"})
		assert.NoError(t, err)
	})

	t.Run("FutureYearRejected", func(t *testing.T) {
		_, err := svc.Create(ctx, dto.CreateTitleDTO{Name: "Dune 3", Year: 2021, Category: "movies"})
		assert.ErrorIs(t, err, ErrFutureYear)
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		_, err := svc.Create(ctx, dto.CreateTitleDTO{Name: "X", Year: 2000, Category: "books"})
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("UnknownGenre", func(t *testing.T) {
		_, err := svc.Create(ctx, dto.CreateTitleDTO{
			Name: "Y", Year: 2000, Category: "movies", Genres: []string{"sci-fi", "nope"},
		})
		assert.ErrorIs(t, err, ErrGenreNotFound)
	})
}

func TestTitleService_Rating(t *testing.T) {
	ctx := context.Background()
	svc, db := newTitleService(t)

	title := seedTitle(t, db, "Blade Runner", 1982)

	t.Run("NilWithoutReviews", func(t *testing.T) {
		resp, err := svc.GetByID(ctx, title.ID)
		require.NoError(t, err)
		assert.Nil(t, resp.Rating)
	})

	t.Run("MeanOfScores", func(t *testing.T) {
		for i, score := range []int{4, 7} {
			u := seedUser(t, db, []string{"r1", "r2"}[i], "user")
			seedReview(t, db, title.ID, u.ID, score)
		}

		resp, err := svc.GetByID(ctx, title.ID)
		require.NoError(t, err)
		require.NotNil(t, resp.Rating)
		assert.InDelta(t, 5.5, *resp.Rating, 1e-9)
	})

	t.Run("RatingScopedPerTitle", func(t *testing.T) {
		other := seedTitle(t, db, "Tron", 1982)
		resp, err := svc.GetByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Nil(t, resp.Rating)
	})
}

func TestTitleService_Update(t *testing.T) {
	ctx := context.Background()
	svc, db := newTitleService(t)

	seedCategory(t, db, "Movies", "movies")
	seedCategory(t, db, "Books", "books")
	g1 := seedGenre(t, db, "Sci-Fi", "sci-fi")
	seedGenre(t, db, "Drama", "drama")

	created, err := svc.Create(ctx, dto.CreateTitleDTO{
		Name: "Solaris", Year: 1972, Category: "movies", Genres: []string{g1.Slug},
	})
	require.NoError(t, err)

	t.Run("PartialUpdateKeepsOtherFields", func(t *testing.T) {
		name := "Solaris (1972)"
		resp, err := svc.Update(ctx, created.ID, dto.UpdateTitleDTO{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, resp.Name)
		assert.Equal(t, 1972, resp.Year)
		require.NotNil(t, resp.Category)
		assert.Equal(t, "movies", resp.Category.Slug)
		assert.Len(t, resp.Genres, 1)
	})

	t.Run("ReplaceGenresAndCategory", func(t *testing.T) {
		category := "books"
		genres := []string{"drama"}
		resp, err := svc.Update(ctx, created.ID, dto.UpdateTitleDTO{Category: &category, Genres: &genres})
		require.NoError(t, err)
		assert.Equal(t, "books", resp.Category.Slug)
		require.Len(t, resp.Genres, 1)
		assert.Equal(t, "drama", resp.Genres[0].Slug)
	})

	t.Run("FutureYearRejected", func(t *testing.T) {
		year := 2031
		_, err := svc.Update(ctx, created.ID, dto.UpdateTitleDTO{Year: &year})
		assert.ErrorIs(t, err, ErrFutureYear)
	})

	t.Run("UnknownTitle", func(t *testing.T) {
		name := "z"
		_, err := svc.Update(ctx, 9999, dto.UpdateTitleDTO{Name: &name})
		assert.ErrorIs(t, err, ErrTitleNotFound)
	})
}

func TestTitleService_ListFilters(t *testing.T) {
	ctx := context.Background()
	svc, db := newTitleService(t)

	seedCategory(t, db, "Movies", "movies")
	seedGenre(t, db, "Sci-Fi", "sci-fi")

	_, err := svc.Create(ctx, dto.CreateTitleDTO{
		Name: "Gattaca", Year: 1997, Category: "movies", Genres: []string{"sci-fi"},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, dto.CreateTitleDTO{Name: "Fargo", Year: 1996, Category: "movies"})
	require.NoError(t, err)

	t.Run("ByGenre", func(t *testing.T) {
		page, err := svc.List(ctx, repository.TitleFilters{GenreSlug: "sci-fi"}, 1, 20)
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Gattaca", page.Data[0].Name)
	})

	t.Run("ByYear", func(t *testing.T) {
		page, err := svc.List(ctx, repository.TitleFilters{Year: 1996}, 1, 20)
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Fargo", page.Data[0].Name)
	})

	t.Run("ByNameSubstring", func(t *testing.T) {
		page, err := svc.List(ctx, repository.TitleFilters{Name: "atta"}, 1, 20)
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Gattaca", page.Data[0].Name)
	})

	t.Run("Unfiltered", func(t *testing.T) {
		page, err := svc.List(ctx, repository.TitleFilters{}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})
}

func TestTitleService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, db := newTitleService(t)

	title := seedTitle(t, db, "Doomed", 1999)
	require.NoError(t, svc.Delete(ctx, title.ID))

	_, err := svc.GetByID(ctx, title.ID)
	assert.ErrorIs(t, err, ErrTitleNotFound)
}
