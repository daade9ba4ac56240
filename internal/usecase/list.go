package usecase

import (
	"cmp"
	"slices"
	"strings"

	"github.com/indicina/url-shortener/internal/entity"
)

// ShortURL joins the public base URL and a short code.
func ShortURL(baseURL, shortCode string) string {
	return strings.TrimRight(baseURL, "/") + "/" + shortCode
}

// sortByRecency orders URLs newest first. Equal timestamps fall back to the
// short code so that pages are stable.
func sortByRecency(urls []entity.URL) {
	slices.SortFunc(urls, func(a, b entity.URL) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ShortCode, b.ShortCode)
	})
}

func filterBySearch(urls []entity.URL, search string) []entity.URL {
	search = strings.ToLower(search)

	filtered := make([]entity.URL, 0, len(urls))
	for _, url := range urls {
		if strings.Contains(strings.ToLower(url.OriginalURL), search) {
			filtered = append(filtered, url)
		}
	}

	return filtered
}

func paginate(total, page, limit int) entity.Pagination {
	if limit <= 0 {
		limit = entity.DefaultLimit
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	currentPage := min(max(page, 1), max(totalPages, 1))

	return entity.Pagination{
		TotalCount:      total,
		TotalPages:      totalPages,
		CurrentPage:     currentPage,
		HasNextPage:     currentPage < totalPages,
		HasPreviousPage: currentPage > 1,
	}
}

func pageBounds(p entity.Pagination, limit, total int) (start, end int) {
	if limit <= 0 {
		limit = entity.DefaultLimit
	}

	start = min((p.CurrentPage-1)*limit, total)
	end = start + min(limit, total-start)

	return start, end
}
