package http

import (
	"time"

	"github.com/indicina/url-shortener/internal/entity"
)

// encodeRequest represents the structure for a request to shorten a URL.
type encodeRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// updateStatusRequest represents the structure for a request to change a URL status.
type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

type shortLinkResponse struct {
	ShortURL string `json:"shortUrl"`
	Code     string `json:"code"`
}

func toShortLinkResponse(link *entity.ShortLink) shortLinkResponse {
	return shortLinkResponse{
		ShortURL: link.ShortURL,
		Code:     link.Code,
	}
}

type decodeResponse struct {
	OriginalURL string `json:"originalUrl"`
}

// urlResponse represents the full record of a shortened URL.
type urlResponse struct {
	ID          string    `json:"id"`
	ShortCode   string    `json:"shortCode"`
	OriginalURL string    `json:"originalUrl"`
	VisitCount  int64     `json:"visitCount"`
	SearchCount int64     `json:"searchCount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toURLResponse(url *entity.URL) urlResponse {
	return urlResponse{
		ID:          url.ID.String(),
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		VisitCount:  url.VisitCount,
		SearchCount: url.SearchCount,
		Status:      string(url.Status),
		CreatedAt:   url.CreatedAt,
	}
}

type paginationResponse struct {
	TotalCount      int  `json:"totalCount"`
	TotalPages      int  `json:"totalPages"`
	CurrentPage     int  `json:"currentPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

type listResponse struct {
	URLs       []urlResponse      `json:"urls"`
	Pagination paginationResponse `json:"pagination"`
}

func toListResponse(page *entity.URLPage) listResponse {
	urls := make([]urlResponse, 0, len(page.URLs))
	for i := range page.URLs {
		urls = append(urls, toURLResponse(&page.URLs[i]))
	}

	p := page.Pagination

	return listResponse{
		URLs: urls,
		Pagination: paginationResponse{
			TotalCount:      p.TotalCount,
			TotalPages:      p.TotalPages,
			CurrentPage:     p.CurrentPage,
			HasNextPage:     p.HasNextPage,
			HasPreviousPage: p.HasPreviousPage,
		},
	}
}
