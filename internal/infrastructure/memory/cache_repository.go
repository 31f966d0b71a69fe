package memory

import (
	"context"
	"sync"

	"github.com/kanehiroyuu/user-role-api/internal/usecase/port"
)

type segmentState struct {
	gen     uint64
	entries map[string][]byte
	keyGens map[string]uint64
}

// CacheRepository implements port.CacheRepository in process memory.
// Size is unbounded; entries leave only through invalidation.
type CacheRepository struct {
	mu       sync.Mutex
	segments map[string]*segmentState
}

// NewCacheRepository creates an empty CacheRepository
func NewCacheRepository() *CacheRepository {
	return &CacheRepository{
		segments: make(map[string]*segmentState),
	}
}

// Get retrieves a value and the current ticket for segment/key
func (r *CacheRepository) Get(_ context.Context, segment, key string) ([]byte, port.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.segment(segment)
	ticket := port.Ticket{Segment: s.gen, Key: s.keyGens[key]}

	value, ok := s.entries[key]
	if !ok {
		return nil, ticket, port.ErrCacheMiss
	}
	return append([]byte(nil), value...), ticket, nil
}

// Set stores a value if ticket still matches the current generations
func (r *CacheRepository) Set(_ context.Context, segment, key string, value []byte, ticket port.Ticket) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.segment(segment)
	if s.gen != ticket.Segment || s.keyGens[key] != ticket.Key {
		return false, nil
	}
	s.entries[key] = append([]byte(nil), value...)
	return true, nil
}

// Delete removes a value and bumps the key generation
func (r *CacheRepository) Delete(_ context.Context, segment, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.segment(segment)
	delete(s.entries, key)
	s.keyGens[key]++
	return nil
}

// DeleteSegment removes every value of segment and bumps the segment generation
func (r *CacheRepository) DeleteSegment(_ context.Context, segment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.segment(segment)
	s.gen++
	// Key generations can restart: every older ticket already fails on the segment generation.
	s.entries = make(map[string][]byte)
	s.keyGens = make(map[string]uint64)
	return nil
}

// Len returns the number of stored entries in segment
func (r *CacheRepository) Len(segment string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.segment(segment).entries)
}

func (r *CacheRepository) segment(name string) *segmentState {
	s, ok := r.segments[name]
	if !ok {
		s = &segmentState{
			entries: make(map[string][]byte),
			keyGens: make(map[string]uint64),
		}
		r.segments[name] = s
	}
	return s
}
