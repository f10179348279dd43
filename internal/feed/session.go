package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown, expired or foreign feed sessions
var ErrSessionNotFound = errors.New("feed session not found")

// Session is one viewer's rendered feed
type Session struct {
	ID          string
	Feed        string
	Columns     int
	ViewerID    uint // 0 for anonymous viewers
	Store       *Store
	Coordinator *Coordinator

	mu       sync.Mutex
	lastSeen time.Time

	// held across a page load so concurrent loads cannot read the same offset
	loadMu sync.Mutex
}

// PageLoader fetches up to a page of posts starting at flat position skip
type PageLoader func(ctx context.Context, skip int) ([]models.FeedPost, error)

// LoadNext loads the page following the last loaded one and appends it. An empty result
// appends nothing; page is then the number the next page will get. offset is the flat
// position of the first loaded post.
func (s *Session) LoadNext(ctx context.Context, load PageLoader) (posts []models.FeedPost, page, offset int, err error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	skip := s.Store.Len()
	posts, err = load(ctx, skip)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(posts) == 0 {
		return nil, s.Store.Pages(), skip, nil
	}
	page = s.Store.AppendPage(posts)
	return posts, page, s.Store.Offset(page), nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// CoordinatorFactory builds the coordinator of a new session
type CoordinatorFactory func(store *Store, feedName string, columns int) *Coordinator

// Sessions is the registry of live feed sessions. Idle sessions expire after ttl.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl            time.Duration
	newCoordinator CoordinatorFactory
	logger         *zap.Logger
	now            func() time.Time

	quit chan struct{}
	done chan struct{}
}

// NewSessions creates a new session registry
func NewSessions(ttl time.Duration, newCoordinator CoordinatorFactory, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		sessions:       make(map[string]*Session),
		ttl:            ttl,
		newCoordinator: newCoordinator,
		logger:         logger,
		now:            time.Now,
	}
}

// Create opens a new empty session for feedName
func (s *Sessions) Create(feedName string, columns int, viewerID uint) *Session {
	if columns < 1 {
		columns = 1
	}
	store := NewStore()
	sess := &Session{
		ID:          ulid.Make().String(),
		Feed:        feedName,
		Columns:     columns,
		ViewerID:    viewerID,
		Store:       store,
		Coordinator: s.newCoordinator(store, feedName, columns),
		lastSeen:    s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session if it belongs to feedName and was opened by viewerID. Flags in a
// session are computed for the viewer that opened it, so a viewer who signs in or out needs
// a new session.
func (s *Sessions) Get(id, feedName string, viewerID uint) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok || sess.Feed != feedName {
		return nil, ErrSessionNotFound
	}
	if sess.ViewerID != viewerID {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many were dropped
func (s *Sessions) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Start runs Sweep every interval until Close
func (s *Sessions) Start(interval time.Duration) {
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.quit:
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.logger.Debug("expired feed sessions", zap.Int("count", n))
				}
			}
		}
	}()
}

// Close stops the sweeper started by Start
func (s *Sessions) Close() {
	if s.quit == nil {
		return
	}
	close(s.quit)
	<-s.done
	s.quit = nil
}
