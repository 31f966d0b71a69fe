package port

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Cache segments
const (
	SegmentUsers = "users"
	SegmentRoles = "roles"
)

// ErrCacheMiss is returned by CacheRepository.Get when no value is stored
var ErrCacheMiss = errors.New("cache miss")

// Ticket snapshots the invalidation generations observed by a lookup.
// A value may be stored under a ticket only if no invalidation touched the
// segment or the key since the ticket was issued.
type Ticket struct {
	Segment uint64
	Key     uint64
}

// CacheRepository is a port for a generation-aware key-value cache
type CacheRepository interface {
	// Get returns the stored value, or ErrCacheMiss. The ticket is valid in both cases.
	Get(ctx context.Context, segment, key string) ([]byte, Ticket, error)
	// Set stores value unless the ticket is stale. stored reports whether it was written.
	Set(ctx context.Context, segment, key string, value []byte, ticket Ticket) (stored bool, err error)
	Delete(ctx context.Context, segment, key string) error
	DeleteSegment(ctx context.Context, segment string) error
}

// Logger is a port for logger
type Logger = *logrus.Logger
