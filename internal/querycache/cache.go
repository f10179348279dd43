package querycache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"go.uber.org/zap"
)

// State of a cache entry
type State int

const (
	StateIdle State = iota
	StatePending
	StateSettled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSettled:
		return "settled"
	default:
		return "idle"
	}
}

const (
	maxFetchAttempts = 3
	mirrorTimeout    = 2 * time.Second
)

// ErrFetchCancelled is returned when every fetch attempt was cancelled by CancelPending
var ErrFetchCancelled = errors.New("query fetch cancelled")

// Loader fetches a collection from its source of truth
type Loader func(ctx context.Context) (models.PostConnection, error)

// Mirror is an optional second tier holding settled entries, shared between instances
type Mirror interface {
	Load(ctx context.Context, key Key) (models.PostConnection, bool, error)
	Store(ctx context.Context, key Key, data models.PostConnection) error
	Delete(ctx context.Context, key Key) error
}

type entry struct {
	data      models.PostConnection
	hasData   bool
	state     State
	updatedAt time.Time

	fetchID uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

// Cache is a keyed store of fetched post collections. Reads and writes are synchronous;
// fetches are tracked per key so they can be cancelled before their result lands.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	seq     uint64

	mirror Mirror
	maxAge time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// New creates a cache. mirror may be nil; maxAge <= 0 keeps settled entries until invalidated.
func New(mirror Mirror, maxAge time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		entries: make(map[Key]*entry),
		mirror:  mirror,
		maxAge:  maxAge,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns a copy of the cached data for key
func (c *Cache) Get(key Key) (models.PostConnection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		return models.PostConnection{}, false
	}
	return e.data.Clone(), true
}

// State reports the fetch state of key
func (c *Cache) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.state
	}
	return StateIdle
}

// Set overwrites the entry for key and settles it. A pending fetch for key is cancelled so
// its result cannot overwrite data.
func (c *Cache) Set(key Key, data models.PostConnection) {
	c.mu.Lock()
	e := c.entryLocked(key)
	c.cancelLocked(e)
	e.data = data.Clone()
	e.hasData = true
	e.state = StateSettled
	e.updatedAt = c.now()
	stored := e.data.Clone()
	c.mu.Unlock()

	c.mirrorStore(key, stored)
}

// Dispatch applies action to the entry for key. A missing entry is left alone and reported
// as unchanged: there is nothing to reconcile.
func (c *Cache) Dispatch(key Key, action Action) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		c.mu.Unlock()
		return false
	}
	next, changed := Reduce(e.data, action)
	if !changed {
		c.mu.Unlock()
		return false
	}
	e.data = next
	e.updatedAt = c.now()
	stored := next.Clone()
	c.mu.Unlock()

	c.mirrorStore(key, stored)
	return true
}

// CancelPending aborts an in-flight fetch for key. The fetch result is discarded and the
// entry keeps whatever data it already had.
func (c *Cache) CancelPending(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.cancelLocked(e)
	}
}

// Invalidate evicts key, cancelling any in-flight fetch
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.cancelLocked(e)
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if c.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := c.mirror.Delete(ctx, key); err != nil {
			c.logger.Warn("query cache mirror delete failed", zap.Stringer("key", key), zap.Error(err))
		}
	}
}

// Fetch returns the settled entry for key, loading it when absent or stale. Concurrent
// callers share one in-flight load.
func (c *Cache) Fetch(ctx context.Context, key Key, load Loader) (models.PostConnection, error) {
	for attempt := 0; attempt < maxFetchAttempts; {
		c.mu.Lock()
		e := c.entryLocked(key)
		if e.state == StateSettled && e.hasData && !c.staleLocked(e) {
			data := e.data.Clone()
			c.mu.Unlock()
			return data, nil
		}
		if e.state == StatePending {
			done := e.done
			c.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return models.PostConnection{}, ctx.Err()
			}
		}

		attempt++
		fctx, cancel := context.WithCancel(ctx)
		c.seq++
		id := c.seq
		done := make(chan struct{})
		e.state = StatePending
		e.fetchID = id
		e.cancel = cancel
		e.done = done
		c.mu.Unlock()

		data, fromMirror, err := c.load(fctx, key, load)
		cancel()

		c.mu.Lock()
		current, ok := c.entries[key]
		stale := !ok || current.fetchID != id
		if !stale {
			current.cancel = nil
			current.fetchID = 0
			if err == nil {
				current.data = data
				current.hasData = true
				current.state = StateSettled
				current.updatedAt = c.now()
			} else if current.hasData {
				current.state = StateSettled
			} else {
				current.state = StateIdle
			}
		}
		close(done)
		c.mu.Unlock()

		if stale {
			if ctx.Err() != nil {
				return models.PostConnection{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			return models.PostConnection{}, err
		}
		if !fromMirror {
			c.mirrorStore(key, data.Clone())
		}
		return data.Clone(), nil
	}
	return models.PostConnection{}, ErrFetchCancelled
}

func (c *Cache) load(ctx context.Context, key Key, load Loader) (models.PostConnection, bool, error) {
	if c.mirror != nil {
		data, ok, err := c.mirror.Load(ctx, key)
		if err != nil {
			c.logger.Warn("query cache mirror load failed", zap.Stringer("key", key), zap.Error(err))
		} else if ok {
			return data, true, nil
		}
	}
	data, err := load(ctx)
	return data, false, err
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) cancelLocked(e *entry) {
	if e.state != StatePending {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = nil
	e.fetchID = 0
	if e.hasData {
		e.state = StateSettled
	} else {
		e.state = StateIdle
	}
}

func (c *Cache) staleLocked(e *entry) bool {
	return c.maxAge > 0 && c.now().Sub(e.updatedAt) > c.maxAge
}

func (c *Cache) mirrorStore(key Key, data models.PostConnection) {
	if c.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := c.mirror.Store(ctx, key, data); err != nil {
		c.logger.Warn("query cache mirror store failed", zap.Stringer("key", key), zap.Error(err))
	}
}
