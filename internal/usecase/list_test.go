package usecase

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indicina/url-shortener/internal/adapter/repository/memory"
	"github.com/indicina/url-shortener/internal/entity"
	"github.com/indicina/url-shortener/internal/shortcode"
)

func TestShortURL(t *testing.T) {
	assert.Equal(t, "https://short.est/abc123", ShortURL("https://short.est", "abc123"))
	assert.Equal(t, "https://short.est/abc123", ShortURL("https://short.est/", "abc123"))
	assert.Equal(t, "http://localhost:3000/abc123", ShortURL("http://localhost:3000//", "abc123"))
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name  string
		total int
		page  int
		limit int
		want  entity.Pagination
	}{
		{
			name:  "empty",
			total: 0, page: 1, limit: 10,
			want: entity.Pagination{TotalCount: 0, TotalPages: 0, CurrentPage: 1},
		},
		{
			name:  "empty page beyond range",
			total: 0, page: 4, limit: 10,
			want: entity.Pagination{TotalCount: 0, TotalPages: 0, CurrentPage: 1},
		},
		{
			name:  "first of many",
			total: 25, page: 1, limit: 10,
			want: entity.Pagination{TotalCount: 25, TotalPages: 3, CurrentPage: 1, HasNextPage: true},
		},
		{
			name:  "middle",
			total: 25, page: 2, limit: 10,
			want: entity.Pagination{TotalCount: 25, TotalPages: 3, CurrentPage: 2, HasNextPage: true, HasPreviousPage: true},
		},
		{
			name:  "clamped to last",
			total: 25, page: 9, limit: 10,
			want: entity.Pagination{TotalCount: 25, TotalPages: 3, CurrentPage: 3, HasPreviousPage: true},
		},
		{
			name:  "clamped to first",
			total: 5, page: -2, limit: 10,
			want: entity.Pagination{TotalCount: 5, TotalPages: 1, CurrentPage: 1},
		},
		{
			name:  "exact multiple",
			total: 20, page: 2, limit: 10,
			want: entity.Pagination{TotalCount: 20, TotalPages: 2, CurrentPage: 2, HasPreviousPage: true},
		},
		{
			name:  "huge limit",
			total: 15, page: 1, limit: math.MaxInt,
			want: entity.Pagination{TotalCount: 15, TotalPages: 1, CurrentPage: 1},
		},
		{
			name:  "non-positive limit uses default",
			total: 15, page: 1, limit: 0,
			want: entity.Pagination{TotalCount: 15, TotalPages: 2, CurrentPage: 1, HasNextPage: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paginate(tt.total, tt.page, tt.limit))
		})
	}
}

func TestPageBounds(t *testing.T) {
	start, end := pageBounds(entity.Pagination{CurrentPage: 3}, 10, 25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = pageBounds(entity.Pagination{CurrentPage: 1}, 10, 0)
	assert.Zero(t, start)
	assert.Zero(t, end)

	start, end = pageBounds(entity.Pagination{CurrentPage: 1}, math.MaxInt, 15)
	assert.Zero(t, start)
	assert.Equal(t, 15, end)
}

func newMemoryUseCase(t *testing.T, now func() time.Time) (*URLUseCase, *memory.URLRepository) {
	t.Helper()

	repo := memory.NewURLRepository()
	gen := shortcode.New(repo)

	return New("http://localhost:3000", repo, gen, WithClock(now)), repo
}

// steppingClock returns a clock that advances by one second per call.
func steppingClock() func() time.Time {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestURLUseCaseWithMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("encode postconditions", func(t *testing.T) {
		uc, repo := newMemoryUseCase(t, time.Now)

		link, err := uc.ShortenURL(ctx, "https://indicina.co")
		require.NoError(t, err)

		assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{6}$`), link.Code)
		assert.Equal(t, "http://localhost:3000/"+link.Code, link.ShortURL)

		url, err := repo.Get(ctx, link.Code)
		require.NoError(t, err)
		assert.NotZero(t, url.ID)
		assert.Equal(t, entity.StatusActive, url.Status)
		assert.Zero(t, url.VisitCount)
		assert.Zero(t, url.SearchCount)
	})

	t.Run("decode round trip", func(t *testing.T) {
		uc, _ := newMemoryUseCase(t, time.Now)

		link, err := uc.ShortenURL(ctx, "https://indicina.co")
		require.NoError(t, err)

		originalURL, err := uc.DecodeShortURL(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, "https://indicina.co", originalURL)
	})

	t.Run("decode unknown and inactive", func(t *testing.T) {
		uc, _ := newMemoryUseCase(t, time.Now)

		_, err := uc.DecodeShortURL(ctx, "zzz999")
		assert.ErrorIs(t, err, entity.ErrURLNotFound)

		link, err := uc.ShortenURL(ctx, "https://indicina.co")
		require.NoError(t, err)

		_, err = uc.UpdateStatus(ctx, link.Code, entity.StatusInactive)
		require.NoError(t, err)

		_, err = uc.DecodeShortURL(ctx, link.Code)
		assert.ErrorIs(t, err, entity.ErrURLNotFound)

		_, err = uc.UpdateStatus(ctx, link.Code, entity.StatusActive)
		require.NoError(t, err)

		originalURL, err := uc.DecodeShortURL(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, "https://indicina.co", originalURL)
	})

	t.Run("listing order and pagination", func(t *testing.T) {
		uc, _ := newMemoryUseCase(t, steppingClock())

		codes := make([]string, 0, 5)
		for i := range 5 {
			link, err := uc.ShortenURL(ctx, fmt.Sprintf("https://example.com/%d", i))
			require.NoError(t, err)
			codes = append(codes, link.Code)
		}

		page, err := uc.ListURLs(ctx, entity.ListParams{Page: 1, Limit: 2})
		require.NoError(t, err)

		require.Len(t, page.URLs, 2)
		assert.Equal(t, codes[4], page.URLs[0].ShortCode)
		assert.Equal(t, codes[3], page.URLs[1].ShortCode)
		assert.True(t, page.Pagination.HasNextPage)
		assert.False(t, page.Pagination.HasPreviousPage)
		assert.Equal(t, 5, page.Pagination.TotalCount)
		assert.Equal(t, 3, page.Pagination.TotalPages)

		page, err = uc.ListURLs(ctx, entity.ListParams{Page: 10, Limit: 2})
		require.NoError(t, err)

		assert.Equal(t, 3, page.Pagination.CurrentPage)
		require.Len(t, page.URLs, 1)
		assert.Equal(t, codes[0], page.URLs[0].ShortCode)
		assert.False(t, page.Pagination.HasNextPage)
		assert.True(t, page.Pagination.HasPreviousPage)
	})

	t.Run("search increments matches only", func(t *testing.T) {
		uc, repo := newMemoryUseCase(t, steppingClock())

		indicina, err := uc.ShortenURL(ctx, "https://indicina.co")
		require.NoError(t, err)
		google, err := uc.ShortenURL(ctx, "https://google.com")
		require.NoError(t, err)

		page, err := uc.ListURLs(ctx, entity.ListParams{Search: "INDICINA", Page: 1, Limit: 10})
		require.NoError(t, err)

		require.Len(t, page.URLs, 1)
		assert.Equal(t, indicina.Code, page.URLs[0].ShortCode)
		assert.Equal(t, int64(1), page.URLs[0].SearchCount)

		url, err := repo.Get(ctx, indicina.Code)
		require.NoError(t, err)
		assert.Equal(t, int64(1), url.SearchCount)

		url, err = repo.Get(ctx, google.Code)
		require.NoError(t, err)
		assert.Zero(t, url.SearchCount)
	})

	t.Run("statistics increment visits", func(t *testing.T) {
		uc, _ := newMemoryUseCase(t, time.Now)

		link, err := uc.ShortenURL(ctx, "https://indicina.co")
		require.NoError(t, err)

		first, err := uc.GetURLStats(ctx, link.Code)
		require.NoError(t, err)
		second, err := uc.GetURLStats(ctx, link.Code)
		require.NoError(t, err)

		assert.Equal(t, first.VisitCount+1, second.VisitCount)
	})

	t.Run("redirect counts visits", func(t *testing.T) {
		uc, repo := newMemoryUseCase(t, time.Now)

		link, err := uc.ShortenURL(ctx, "https://indicina.co")
		require.NoError(t, err)

		for range 3 {
			_, err := uc.ResolveRedirect(ctx, link.Code)
			require.NoError(t, err)
		}

		url, err := repo.Get(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, int64(3), url.VisitCount)
	})
}
