// Package redis stores URLs as Redis hashes.
//
// Every URL lives in its own hash under "url:<short code>" and the set "urls"
// indexes all short codes. Create adds the code to the index and writes the
// hash in one Lua script, with the index add as the insert-if-absent step.
// Counter and status updates also run as scripts so that they are atomic per
// key and never create a hash for an unknown code.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/indicina/url-shortener/internal/entity"
)

const (
	indexKey  = "urls"
	keyPrefix = "url:"
)

const (
	fieldID          = "id"
	fieldShortCode   = "short_code"
	fieldOriginalURL = "original_url"
	fieldVisitCount  = "visit_count"
	fieldSearchCount = "search_count"
	fieldStatus      = "status"
	fieldCreatedAt   = "created_at"
)

var createScript = redis.NewScript(`
if redis.call('SADD', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[2], unpack(ARGV, 2))
return 1
`)

var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
return redis.call('HGETALL', KEYS[1])
`)

var setFieldScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return redis.call('HGETALL', KEYS[1])
`)

func urlKey(shortCode string) string {
	return keyPrefix + shortCode
}

func toHash(url *entity.URL) map[string]any {
	return map[string]any{
		fieldID:          url.ID.String(),
		fieldShortCode:   url.ShortCode,
		fieldOriginalURL: url.OriginalURL,
		fieldVisitCount:  url.VisitCount,
		fieldSearchCount: url.SearchCount,
		fieldStatus:      string(url.Status),
		fieldCreatedAt:   url.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromHash(h map[string]string) (*entity.URL, error) {
	id, err := uuid.Parse(h[fieldID])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fieldID, err)
	}

	visits, err := strconv.ParseInt(h[fieldVisitCount], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fieldVisitCount, err)
	}

	searches, err := strconv.ParseInt(h[fieldSearchCount], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fieldSearchCount, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, h[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fieldCreatedAt, err)
	}

	return &entity.URL{
		ID:          id,
		ShortCode:   h[fieldShortCode],
		OriginalURL: h[fieldOriginalURL],
		URLStats: entity.URLStats{
			VisitCount:  visits,
			SearchCount: searches,
		},
		Status:    entity.Status(h[fieldStatus]),
		CreatedAt: createdAt,
	}, nil
}

var hashFields = []string{
	fieldID,
	fieldShortCode,
	fieldOriginalURL,
	fieldVisitCount,
	fieldSearchCount,
	fieldStatus,
	fieldCreatedAt,
}

// hashArgs flattens the hash into field/value pairs in a fixed order.
func hashArgs(url *entity.URL) []any {
	h := toHash(url)

	args := make([]any, 0, 2*len(hashFields))
	for _, field := range hashFields {
		args = append(args, field, h[field])
	}
	return args
}

// pairsToHash converts the flat HGETALL reply returned by the scripts.
func pairsToHash(reply []any) map[string]string {
	h := make(map[string]string, len(reply)/2)
	for i := 0; i+1 < len(reply); i += 2 {
		k, _ := reply[i].(string)
		v, _ := reply[i+1].(string)
		h[k] = v
	}
	return h
}

type URLRepository struct {
	client *redis.Client
}

func NewURLRepository(client *redis.Client) *URLRepository {
	return &URLRepository{client: client}
}

func (r *URLRepository) Create(ctx context.Context, url *entity.URL) error {
	const op = "adapter.repository.redis.URLRepository.Create"

	args := append([]any{url.ShortCode}, hashArgs(url)...)

	created, err := createScript.Run(ctx, r.client, []string{indexKey, urlKey(url.ShortCode)}, args...).Int()
	if err != nil {
		return fmt.Errorf("%s: failed to create url: %w", op, err)
	}
	if created == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	return nil
}

func (r *URLRepository) Save(ctx context.Context, url *entity.URL) error {
	const op = "adapter.repository.redis.URLRepository.Save"

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, indexKey, url.ShortCode)
		pipe.Del(ctx, urlKey(url.ShortCode))
		pipe.HSet(ctx, urlKey(url.ShortCode), toHash(url))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: failed to write url hash: %w", op, err)
	}

	return nil
}

func (r *URLRepository) Get(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.Get"

	h, err := r.client.HGetAll(ctx, urlKey(shortCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read url hash: %w", op, err)
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	url, err := fromHash(h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

func (r *URLRepository) Has(ctx context.Context, shortCode string) (bool, error) {
	const op = "adapter.repository.redis.URLRepository.Has"

	ok, err := r.client.SIsMember(ctx, indexKey, shortCode).Result()
	if err != nil {
		return false, fmt.Errorf("%s: failed to probe index: %w", op, err)
	}

	return ok, nil
}

func (r *URLRepository) Values(ctx context.Context) ([]entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.Values"

	codes, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read index: %w", op, err)
	}

	cmds := make([]*redis.MapStringStringCmd, 0, len(codes))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, code := range codes {
			cmds = append(cmds, pipe.HGetAll(ctx, urlKey(code)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read url hashes: %w", op, err)
	}

	urls := make([]entity.URL, 0, len(cmds))
	for _, cmd := range cmds {
		h := cmd.Val()
		// The hash of a concurrently created URL may not be written yet.
		if len(h) == 0 {
			continue
		}

		url, err := fromHash(h)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		urls = append(urls, *url)
	}

	return urls, nil
}

func (r *URLRepository) runFieldScript(ctx context.Context, script *redis.Script, shortCode string, args ...any) (*entity.URL, error) {
	reply, err := script.Run(ctx, r.client, []string{urlKey(shortCode)}, args...).Slice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entity.ErrURLNotFound
		}
		return nil, err
	}

	return fromHash(pairsToHash(reply))
}

func (r *URLRepository) IncrementVisits(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.IncrementVisits"

	url, err := r.runFieldScript(ctx, incrementScript, shortCode, fieldVisitCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

func (r *URLRepository) IncrementSearches(ctx context.Context, shortCodes ...string) error {
	const op = "adapter.repository.redis.URLRepository.IncrementSearches"

	for _, code := range shortCodes {
		_, err := r.runFieldScript(ctx, incrementScript, code, fieldSearchCount)
		if err != nil && !errors.Is(err, entity.ErrURLNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func (r *URLRepository) SetStatus(ctx context.Context, shortCode string, status entity.Status) (*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.SetStatus"

	url, err := r.runFieldScript(ctx, setFieldScript, shortCode, fieldStatus, string(status))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

func (r *URLRepository) Clear(ctx context.Context) error {
	const op = "adapter.repository.redis.URLRepository.Clear"

	codes, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("%s: failed to read index: %w", op, err)
	}

	keys := make([]string, 0, len(codes)+1)
	for _, code := range codes {
		keys = append(keys, urlKey(code))
	}
	keys = append(keys, indexKey)

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: failed to delete keys: %w", op, err)
	}

	return nil
}

func (r *URLRepository) Ping(ctx context.Context) error {
	const op = "adapter.repository.redis.URLRepository.Ping"

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
