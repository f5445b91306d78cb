// Package cache provides an in-process read cache invalidated by tags.
//
// Each cached value carries a set of string tags naming the entities it was
// computed from. Invalidating a tag drops every entry whose tag set contains
// it. A Publisher forwards invalidations to other processes; entries also
// expire after a TTL and the least recently used ones are evicted past a
// size limit, which bounds staleness when a broadcast is missed.
//
// Reads declare their tags up front and may add more while they run with
// AddTags, which is how a read that only learns its parent's id after loading
// the child picks up the parent's tag.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/DukeRupert/certum/internal/metrics"
)

const (
	DefaultMaxEntries = 10000
	DefaultTTL        = 5 * time.Minute
)

// Publisher sends invalidated tags to the other processes sharing the
// database.
type Publisher interface {
	Publish(tags []string)
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries bounds the number of cached entries. Non-positive values
// keep the default.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithTTL sets how long an entry is served. Non-positive values keep the
// default.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithPublisher broadcasts every Invalidate through p.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// =============================================================================
// Store
// =============================================================================

// Store holds cached values and the tag index used to invalidate them.
// It is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	entries    *simplelru.LRU[string, *entry]
	byTag      map[string]map[string]struct{}
	maxEntries int
	ttl        time.Duration
	publisher  Publisher
	now        func() time.Time

	// seq increases on every invalidation. A fill records seq when it starts
	// and is discarded if any of its tags was invalidated after that point.
	seq         uint64
	invalidated map[string]uint64
	inflight    int
}

type entry struct {
	value   any
	tags    []string
	expires time.Time
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		byTag:       make(map[string]map[string]struct{}),
		invalidated: make(map[string]uint64),
		maxEntries:  DefaultMaxEntries,
		ttl:         DefaultTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// maxEntries is always positive, the only case NewLRU rejects.
	s.entries, _ = simplelru.NewLRU[string, *entry](s.maxEntries, s.unindex)
	return s
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// Invalidate drops every entry tagged with any of tags and publishes the
// tags. It returns the number of local entries removed.
func (s *Store) Invalidate(tags ...string) int {
	removed := s.invalidateLocal(tags)
	if s.publisher != nil && len(tags) > 0 {
		s.publisher.Publish(tags)
	}
	return removed
}

// invalidateLocal drops entries in this process only.
func (s *Store) invalidateLocal(tags []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	removed := 0
	for _, tag := range tags {
		if s.inflight > 0 {
			s.invalidated[tag] = s.seq
		}
		for key := range s.byTag[tag] {
			s.entries.Remove(key)
			removed++
		}
	}

	if removed > 0 {
		metrics.CacheInvalidations.Add(float64(removed))
	}
	return removed
}

func (s *Store) lookup(key string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expires) {
		s.entries.Remove(key)
		return nil, false
	}
	return e, true
}

// begin marks the start of a fill and returns the sequence it started at.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	return s.seq
}

// finish ends a fill. The value is stored only if none of its tags was
// invalidated while it was being computed.
func (s *Store) finish(key string, value any, tags []string, started uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		s.inflight--
		if s.inflight == 0 {
			clear(s.invalidated)
		}
	}()

	if !ok {
		return
	}
	for _, tag := range tags {
		if s.invalidated[tag] > started {
			return
		}
	}

	// Remove first so the old entry's tags are unindexed; Add on an existing
	// key does not call the eviction callback.
	s.entries.Remove(key)
	s.entries.Add(key, &entry{value: value, tags: tags, expires: s.now().Add(s.ttl)})
	for _, tag := range tags {
		keys, exists := s.byTag[tag]
		if !exists {
			keys = make(map[string]struct{})
			s.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// unindex is the LRU eviction callback. It runs for removals, expiry and
// size evictions, always with s.mu held.
func (s *Store) unindex(key string, e *entry) {
	for _, tag := range e.tags {
		keys := s.byTag[tag]
		delete(keys, key)
		if len(keys) == 0 {
			delete(s.byTag, tag)
		}
	}
}

// =============================================================================
// Tag recording
// =============================================================================

type recorderKey struct{}

type recorder struct {
	mu   sync.Mutex
	seen map[string]struct{}
	tags []string
}

func newRecorder(tags []string) *recorder {
	r := &recorder{seen: make(map[string]struct{}, len(tags))}
	r.add(tags...)
	return r
}

func (r *recorder) add(tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := r.seen[tag]; ok {
			continue
		}
		r.seen[tag] = struct{}{}
		r.tags = append(r.tags, tag)
	}
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tags...)
}

// AddTags registers tags on the cached read running in ctx. Outside a cached
// read it does nothing.
func AddTags(ctx context.Context, tags ...string) {
	if r, ok := ctx.Value(recorderKey{}).(*recorder); ok {
		r.add(tags...)
	}
}

// =============================================================================
// Remember
// =============================================================================

// Remember returns the cached value for key, computing it with fn on a miss.
//
// fn receives a context on which AddTags records additional dependencies.
// Errors are returned as-is and never cached. When Remember runs inside
// another cached read, the inner read's tags are added to the outer one.
func Remember[T any](ctx context.Context, s *Store, key string, tags []string, fn func(ctx context.Context) (T, error)) (T, error) {
	if e, ok := s.lookup(key); ok {
		if v, ok := e.value.(T); ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			AddTags(ctx, e.tags...)
			return v, nil
		}
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	rec := newRecorder(tags)
	started := s.begin()
	finished := false
	defer func() {
		if !finished {
			s.finish(key, nil, nil, started, false)
		}
	}()

	v, err := fn(context.WithValue(ctx, recorderKey{}, rec))
	recorded := rec.list()
	finished = true
	s.finish(key, v, recorded, started, err == nil)
	if err != nil {
		return v, err
	}

	AddTags(ctx, recorded...)
	return v, nil
}
