package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/indicina/url-shortener/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

const urlColumns = `id, short_code, original_url, visit_count, search_count, status, created_at`

type urlDB struct {
	ID          uuid.UUID `db:"id"`
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	VisitCount  int64     `db:"visit_count"`
	SearchCount int64     `db:"search_count"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

func fromEntity(url *entity.URL) urlDB {
	return urlDB{
		ID:          url.ID,
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		VisitCount:  url.VisitCount,
		SearchCount: url.SearchCount,
		Status:      string(url.Status),
		CreatedAt:   url.CreatedAt,
	}
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:          u.ID,
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		URLStats: entity.URLStats{
			VisitCount:  u.VisitCount,
			SearchCount: u.SearchCount,
		},
		Status:    entity.Status(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) Create(ctx context.Context, url *entity.URL) error {
	const op = "adapter.repository.postgres.URLRepository.Create"
	const query = `INSERT INTO urls(` + urlColumns + `)
		VALUES (:id, :short_code, :original_url, :visit_count, :search_count, :status, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, fromEntity(url)); err != nil {
		if isUniqueViolationError(err) {
			return fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return nil
}

func (r *URLRepository) Save(ctx context.Context, url *entity.URL) error {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO urls(` + urlColumns + `)
		VALUES (:id, :short_code, :original_url, :visit_count, :search_count, :status, :created_at)
		ON CONFLICT (short_code) DO UPDATE SET
			id = EXCLUDED.id,
			original_url = EXCLUDED.original_url,
			visit_count = EXCLUDED.visit_count,
			search_count = EXCLUDED.search_count,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at`

	if _, err := r.db.NamedExecContext(ctx, query, fromEntity(url)); err != nil {
		return fmt.Errorf("%s: failed to upsert into urls table: %w", op, err)
	}

	return nil
}

func (r *URLRepository) Get(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Get"
	const query = `SELECT ` + urlColumns + ` FROM urls WHERE short_code = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) Has(ctx context.Context, shortCode string) (bool, error) {
	const op = "adapter.repository.postgres.URLRepository.Has"
	const query = `SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = $1)`

	var exists bool

	if err := r.db.GetContext(ctx, &exists, query, shortCode); err != nil {
		return false, fmt.Errorf("%s: failed to probe urls table: %w", op, err)
	}

	return exists, nil
}

func (r *URLRepository) Values(ctx context.Context) ([]entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Values"
	const query = `SELECT ` + urlColumns + ` FROM urls`

	var rows []urlDB

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: failed to select from urls table: %w", op, err)
	}

	urls := make([]entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, *rows[i].toEntity())
	}

	return urls, nil
}

func (r *URLRepository) IncrementVisits(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.IncrementVisits"
	const query = `UPDATE urls SET visit_count = visit_count + 1 WHERE short_code = $1 RETURNING ` + urlColumns

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update urls table row: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) IncrementSearches(ctx context.Context, shortCodes ...string) error {
	const op = "adapter.repository.postgres.URLRepository.IncrementSearches"

	if len(shortCodes) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`UPDATE urls SET search_count = search_count + 1 WHERE short_code IN (?)`, shortCodes)
	if err != nil {
		return fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("%s: failed to update urls table rows: %w", op, err)
	}

	return nil
}

func (r *URLRepository) SetStatus(ctx context.Context, shortCode string, status entity.Status) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.SetStatus"
	const query = `UPDATE urls SET status = $1 WHERE short_code = $2 RETURNING ` + urlColumns

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, string(status), shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update urls table row: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) Clear(ctx context.Context) error {
	const op = "adapter.repository.postgres.URLRepository.Clear"
	const query = `DELETE FROM urls`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: failed to delete from urls table: %w", op, err)
	}

	return nil
}

func (r *URLRepository) Ping(ctx context.Context) error {
	const op = "adapter.repository.postgres.URLRepository.Ping"

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
