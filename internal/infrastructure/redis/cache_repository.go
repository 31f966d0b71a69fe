package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kanehiroyuu/user-role-api/internal/usecase/port"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

var errStaleTicket = errors.New("stale cache ticket")

// multiGetter is satisfied by both the client and a WATCH transaction
type multiGetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// CacheRepository implements port.CacheRepository for Redis.
//
// Each segment has a generation counter that is part of every data key, so
// DeleteSegment is a single INCR. Each key has its own generation counter
// bumped by Delete. Set runs as a WATCH/MULTI transaction over both counters.
type CacheRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCacheRepository creates a new CacheRepository
func NewCacheRepository(client redis.UniversalClient, prefix string, ttl time.Duration) *CacheRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if prefix == "" {
		prefix = "cache"
	}
	return &CacheRepository{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// GetTTL returns the configured TTL
func (r *CacheRepository) GetTTL() time.Duration {
	return r.ttl
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, segment, key string) ([]byte, port.Ticket, error) {
	ticket, err := r.ticket(ctx, r.client, segment, key)
	if err != nil {
		return nil, port.Ticket{}, err
	}

	value, err := r.client.Get(ctx, r.dataKey(segment, ticket.Segment, key)).Bytes()
	if err == redis.Nil {
		return nil, ticket, port.ErrCacheMiss
	}
	if err != nil {
		return nil, port.Ticket{}, fmt.Errorf("failed to get cache: %w", err)
	}

	return value, ticket, nil
}

// Set stores a value in cache when ticket is still current
func (r *CacheRepository) Set(ctx context.Context, segment, key string, value []byte, ticket port.Ticket) (bool, error) {
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.ticket(ctx, tx, segment, key)
		if err != nil {
			return err
		}
		if current != ticket {
			return errStaleTicket
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.dataKey(segment, ticket.Segment, key), value, r.ttl)
			return nil
		})
		return err
	}, r.segmentGenKey(segment), r.keyGenKey(segment, key))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleTicket), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("failed to set cache: %w", err)
	}
}

// Delete removes a value from cache
func (r *CacheRepository) Delete(ctx context.Context, segment, key string) error {
	segGen, err := r.generation(ctx, r.segmentGenKey(segment))
	if err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, r.keyGenKey(segment, key))
		pipe.Del(ctx, r.dataKey(segment, segGen, key))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// DeleteSegment drops every value of segment by moving it to a new generation.
// Entries of older generations expire through their TTL.
func (r *CacheRepository) DeleteSegment(ctx context.Context, segment string) error {
	if err := r.client.Incr(ctx, r.segmentGenKey(segment)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache segment: %w", err)
	}
	return nil
}

func (r *CacheRepository) ticket(ctx context.Context, c multiGetter, segment, key string) (port.Ticket, error) {
	values, err := c.MGet(ctx, r.segmentGenKey(segment), r.keyGenKey(segment, key)).Result()
	if err != nil {
		return port.Ticket{}, fmt.Errorf("failed to read cache generation: %w", err)
	}
	segGen, err := parseGeneration(values[0])
	if err != nil {
		return port.Ticket{}, err
	}
	keyGen, err := parseGeneration(values[1])
	if err != nil {
		return port.Ticket{}, err
	}
	return port.Ticket{Segment: segGen, Key: keyGen}, nil
}

func (r *CacheRepository) generation(ctx context.Context, genKey string) (uint64, error) {
	value, err := r.client.Get(ctx, genKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseGeneration(value)
}

func parseGeneration(v interface{}) (uint64, error) {
	switch s := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid cache generation %q: %w", s, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid cache generation type %T", v)
	}
}

func (r *CacheRepository) segmentGenKey(segment string) string {
	return fmt.Sprintf("%s:%s:gen", r.prefix, segment)
}

func (r *CacheRepository) keyGenKey(segment, key string) string {
	return fmt.Sprintf("%s:%s:gen:%s", r.prefix, segment, key)
}

func (r *CacheRepository) dataKey(segment string, segGen uint64, key string) string {
	return fmt.Sprintf("%s:%s:%d:%s", r.prefix, segment, segGen, key)
}
