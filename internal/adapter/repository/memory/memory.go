// Package memory provides an in-process URL repository.
//
// The map itself is guarded by a read-write mutex, and every record carries
// its own mutex for counter and status updates, so increments on one short
// code never block work on another.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/indicina/url-shortener/internal/entity"
)

type record struct {
	mu  sync.Mutex
	url entity.URL
}

func (r *record) snapshot() *entity.URL {
	r.mu.Lock()
	defer r.mu.Unlock()

	url := r.url
	return &url
}

type URLRepository struct {
	mu      sync.RWMutex
	records map[string]*record
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		records: make(map[string]*record),
	}
}

func (r *URLRepository) lookup(shortCode string) (*record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[shortCode]
	return rec, ok
}

func (r *URLRepository) Create(ctx context.Context, url *entity.URL) error {
	const op = "adapter.repository.memory.URLRepository.Create"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[url.ShortCode]; ok {
		return fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	r.records[url.ShortCode] = &record{url: *url}
	return nil
}

func (r *URLRepository) Save(ctx context.Context, url *entity.URL) error {
	const op = "adapter.repository.memory.URLRepository.Save"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[url.ShortCode]; ok {
		rec.mu.Lock()
		rec.url = *url
		rec.mu.Unlock()
		return nil
	}

	r.records[url.ShortCode] = &record{url: *url}
	return nil
}

func (r *URLRepository) Get(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec, ok := r.lookup(shortCode)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return rec.snapshot(), nil
}

func (r *URLRepository) Has(ctx context.Context, shortCode string) (bool, error) {
	const op = "adapter.repository.memory.URLRepository.Has"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	_, ok := r.lookup(shortCode)
	return ok, nil
}

func (r *URLRepository) Values(ctx context.Context) ([]entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Values"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	recs := make([]*record, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	urls := make([]entity.URL, 0, len(recs))
	for _, rec := range recs {
		urls = append(urls, *rec.snapshot())
	}

	return urls, nil
}

func (r *URLRepository) IncrementVisits(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.IncrementVisits"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec, ok := r.lookup(shortCode)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.url.VisitCount++
	url := rec.url
	return &url, nil
}

func (r *URLRepository) IncrementSearches(ctx context.Context, shortCodes ...string) error {
	const op = "adapter.repository.memory.URLRepository.IncrementSearches"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, shortCode := range shortCodes {
		rec, ok := r.lookup(shortCode)
		if !ok {
			continue
		}

		rec.mu.Lock()
		rec.url.SearchCount++
		rec.mu.Unlock()
	}

	return nil
}

func (r *URLRepository) SetStatus(ctx context.Context, shortCode string, status entity.Status) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.SetStatus"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec, ok := r.lookup(shortCode)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.url.Status = status
	url := rec.url
	return &url, nil
}

func (r *URLRepository) Clear(ctx context.Context) error {
	const op = "adapter.repository.memory.URLRepository.Clear"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = make(map[string]*record)
	return nil
}

// Ping always succeeds; it lets the memory repository stand in wherever a
// health-checked store is expected.
func (r *URLRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
