package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/indicina/url-shortener/internal/entity"
	"github.com/indicina/url-shortener/internal/shortcode"
)

type urlRepository interface {
	Create(ctx context.Context, url *entity.URL) error
	Get(ctx context.Context, shortCode string) (*entity.URL, error)
	Values(ctx context.Context) ([]entity.URL, error)
	IncrementVisits(ctx context.Context, shortCode string) (*entity.URL, error)
	IncrementSearches(ctx context.Context, shortCodes ...string) error
	SetStatus(ctx context.Context, shortCode string, status entity.Status) (*entity.URL, error)
}

type codeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

type Option func(*URLUseCase)

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

type URLUseCase struct {
	baseURL string
	urlRepo urlRepository
	codeGen codeGenerator
	now     func() time.Time
}

func New(baseURL string, urlRepo urlRepository, codeGen codeGenerator, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		baseURL: baseURL,
		urlRepo: urlRepo,
		codeGen: codeGen,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL string) (*entity.ShortLink, error) {
	const op = "usecase.URLUseCase.ShortenURL"
	const maxRetries = 5

	for range maxRetries {
		shortCode, err := uc.codeGen.Generate(ctx)
		if err != nil {
			if errors.Is(err, shortcode.ErrExhausted) {
				return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrCodeSpaceExhausted, err)
			}

			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url := &entity.URL{
			ID:          uuid.New(),
			ShortCode:   shortCode,
			OriginalURL: originalURL,
			Status:      entity.StatusActive,
			CreatedAt:   uc.now(),
		}

		if err := uc.urlRepo.Create(ctx, url); err != nil {
			// Another request took the code between the probe and the insert.
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return &entity.ShortLink{
			ShortURL: ShortURL(uc.baseURL, shortCode),
			Code:     shortCode,
		}, nil
	}

	return nil, fmt.Errorf("%s: %w", op, entity.ErrCodeSpaceExhausted)
}

func (uc *URLUseCase) DecodeShortURL(ctx context.Context, shortCode string) (string, error) {
	const op = "usecase.URLUseCase.DecodeShortURL"

	url, err := uc.activeURL(ctx, shortCode)
	if err != nil {
		return "", fmt.Errorf("%s: failed to decode short url: %w", op, err)
	}

	return url.OriginalURL, nil
}

func (uc *URLUseCase) ResolveRedirect(ctx context.Context, shortCode string) (string, error) {
	const op = "usecase.URLUseCase.ResolveRedirect"

	url, err := uc.activeURL(ctx, shortCode)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	url, err = uc.urlRepo.IncrementVisits(ctx, shortCode)
	if err != nil {
		return "", fmt.Errorf("%s: failed to count visit: %w", op, err)
	}

	// The URL may have been deactivated after the lookup.
	if !url.IsActive() {
		return "", fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return url.OriginalURL, nil
}

// activeURL hides inactive URLs behind the same error as unknown ones.
func (uc *URLUseCase) activeURL(ctx context.Context, shortCode string) (*entity.URL, error) {
	url, err := uc.urlRepo.Get(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	if !url.IsActive() {
		return nil, entity.ErrURLNotFound
	}

	return url, nil
}

func (uc *URLUseCase) ListURLs(ctx context.Context, params entity.ListParams) (*entity.URLPage, error) {
	const op = "usecase.URLUseCase.ListURLs"

	urls, err := uc.urlRepo.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	sortByRecency(urls)

	if params.Search != "" {
		urls = filterBySearch(urls, params.Search)

		codes := make([]string, len(urls))
		for i := range urls {
			codes[i] = urls[i].ShortCode
			urls[i].SearchCount++
		}

		if err := uc.urlRepo.IncrementSearches(ctx, codes...); err != nil {
			return nil, fmt.Errorf("%s: failed to count searches: %w", op, err)
		}
	}

	pagination := paginate(len(urls), params.Page, params.Limit)
	start, end := pageBounds(pagination, params.Limit, len(urls))

	return &entity.URLPage{
		URLs:       urls[start:end],
		Pagination: pagination,
	}, nil
}

func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.IncrementVisits(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

func (uc *URLUseCase) UpdateStatus(ctx context.Context, shortCode string, status entity.Status) (*entity.URL, error) {
	const op = "usecase.URLUseCase.UpdateStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", op, entity.ErrInvalidStatus, status)
	}

	url, err := uc.urlRepo.SetStatus(ctx, shortCode, status)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update url status: %w", op, err)
	}

	return url, nil
}
