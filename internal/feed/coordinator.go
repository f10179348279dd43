// Package feed keeps a viewer's rendered feed and applies bookmark and upvote toggles to it
// optimistically, ahead of the server mutation.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/authgate"
	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/mutation"
	"github.com/anonto42/nano-midea/feedgate/internal/querycache"
	"go.uber.org/zap"
)

// QueryCache is the part of the query cache the coordinator writes to
type QueryCache interface {
	CancelPending(key querycache.Key)
	Dispatch(key querycache.Key, action querycache.Action) bool
}

// EventTracker receives analytics events; Track must not block
type EventTracker interface {
	Track(event models.AnalyticsEvent)
}

const (
	originFeed = "feed"

	// bounds a dispatched mutation once the caller has gone away
	mutationTimeout = 30 * time.Second
)

// Coordinator applies feed actions locally and to the query cache before dispatching the
// mutation. A failed mutation is compensated unless a newer toggle of the same kind on the
// same post has been applied since.
type Coordinator struct {
	store    *Store
	cache    QueryCache
	client   mutation.Client
	tracker  EventTracker
	columns  int
	feedName string
	logger   *zap.Logger

	// serializes local+cache application; never held across a mutation call
	mu          sync.Mutex
	generations map[string]uint64
}

// NewCoordinator creates a new Coordinator for the items of store
func NewCoordinator(store *Store, cache QueryCache, client mutation.Client, tracker EventTracker, columns int, feedName string, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:       store,
		cache:       cache,
		client:      client,
		tracker:     tracker,
		columns:     columns,
		feedName:    feedName,
		logger:      logger,
		generations: make(map[string]uint64),
	}
}

// toggle describes one optimistic action
type toggle struct {
	kind   string
	origin string
	event  string
	// apply returns the patched post and a revert function for the same patch
	apply  func(models.FeedPost) (models.FeedPost, func(models.FeedPost) models.FeedPost)
	cache  func(user *models.User, prev, next models.FeedPost) (querycache.Key, querycache.Action, bool)
	mutate func(ctx context.Context, user *models.User, vars mutation.Variables) error
}

// SetBookmark bookmarks or un-bookmarks the post at flat feed position index.
// Without a user it opens the login flow and returns nil.
func (c *Coordinator) SetBookmark(ctx context.Context, auth authgate.Auth, post models.FeedPost, index, row, column int, bookmarked bool) error {
	event := models.EventRemovePostBookmark
	mutate := c.client.RemoveBookmark
	if bookmarked {
		event = models.EventBookmarkPost
		mutate = c.client.Bookmark
	}
	return c.run(ctx, auth, post, index, row, column, toggle{
		kind:   "bookmark",
		origin: authgate.OriginBookmark,
		event:  event,
		apply: func(p models.FeedPost) (models.FeedPost, func(models.FeedPost) models.FeedPost) {
			was := p.Bookmarked
			p.Bookmarked = bookmarked
			return p, func(cur models.FeedPost) models.FeedPost {
				cur.Bookmarked = was
				return cur
			}
		},
		cache: func(user *models.User, _, next models.FeedPost) (querycache.Key, querycache.Action, bool) {
			key := querycache.BookmarksKey(user.Key())
			if bookmarked {
				return key, querycache.AddEdge{Post: next}, true
			}
			return key, querycache.RemoveEdges{PostID: next.ID}, true
		},
		mutate: mutate,
	})
}

// SetUpvote upvotes or cancels the upvote of the post at flat feed position index
func (c *Coordinator) SetUpvote(ctx context.Context, auth authgate.Auth, post models.FeedPost, index, row, column int, upvoted bool) error {
	event := models.EventRemovePostUpvote
	mutate := c.client.CancelUpvote
	if upvoted {
		event = models.EventUpvotePost
		mutate = c.client.Upvote
	}
	return c.run(ctx, auth, post, index, row, column, toggle{
		kind:   "upvote",
		origin: authgate.OriginUpvote,
		event:  event,
		apply: func(p models.FeedPost) (models.FeedPost, func(models.FeedPost) models.FeedPost) {
			delta := 0
			if upvoted && !p.Upvoted {
				delta = 1
			} else if !upvoted && p.Upvoted && p.NumUpvotes > 0 {
				delta = -1
			}
			was := p.Upvoted
			p.Upvoted = upvoted
			p.NumUpvotes += delta
			return p, func(cur models.FeedPost) models.FeedPost {
				cur.Upvoted = was
				cur.NumUpvotes -= delta
				if cur.NumUpvotes < 0 {
					cur.NumUpvotes = 0
				}
				return cur
			}
		},
		mutate: mutate,
	})
}

func (c *Coordinator) run(ctx context.Context, auth authgate.Auth, post models.FeedPost, index, row, column int, t toggle) error {
	user, ok := authgate.RequireUser(auth, t.origin)
	if !ok {
		return nil
	}

	item, err := c.store.Item(index)
	if err != nil {
		return err
	}
	if item.Post.ID != post.ID {
		return fmt.Errorf("%w: post %s is not at index %d", ErrItemNotFound, post.ID, index)
	}

	c.tracker.Track(c.analyticsEvent(t.event, user, post, row, column))

	genKey := t.kind + ":" + post.ID
	var revert func(models.FeedPost) models.FeedPost
	var prev, next models.FeedPost
	var cacheKey querycache.Key
	var cacheAction querycache.Action
	cacheChanged := false

	c.mu.Lock()
	c.generations[genKey]++
	gen := c.generations[genKey]
	prev, next, err = c.store.Update(index, func(p models.FeedPost) models.FeedPost {
		var patched models.FeedPost
		patched, revert = t.apply(p)
		return patched
	})
	if err == nil && t.cache != nil {
		var hasAction bool
		cacheKey, cacheAction, hasAction = t.cache(user, prev, next)
		if hasAction {
			c.cache.CancelPending(cacheKey)
			cacheChanged = c.cache.Dispatch(cacheKey, cacheAction)
		}
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}

	// a dispatched mutation is not cancellable: the server may already have applied it
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mutationTimeout)
	defer cancel()
	vars := mutation.Variables{ID: post.ID, Index: index}
	if err := t.mutate(mctx, user, vars); err != nil {
		c.compensate(genKey, gen, index, post.ID, revert, func() {
			if cacheChanged {
				c.cache.Dispatch(cacheKey, querycache.Inverse(cacheAction, prev))
			}
		})
		return fmt.Errorf("%s post %s: %w", t.kind, post.ID, err)
	}
	return nil
}

// compensate undoes an optimistic toggle after its mutation failed. A newer toggle of the
// same post owns the state by then and is left alone.
func (c *Coordinator) compensate(genKey string, gen uint64, index int, postID string, revert func(models.FeedPost) models.FeedPost, revertCache func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[genKey] != gen {
		c.logger.Debug("skipping rollback of superseded toggle", zap.String("toggle", genKey))
		return
	}
	_, _, err := c.store.Update(index, func(p models.FeedPost) models.FeedPost {
		if p.ID != postID {
			return p
		}
		return revert(p)
	})
	if err != nil {
		c.logger.Warn("rollback of feed item failed", zap.String("toggle", genKey), zap.Error(err))
	}
	revertCache()
	c.logger.Info("rolled back optimistic toggle", zap.String("toggle", genKey), zap.String("feed", c.feedName))
}

func (c *Coordinator) analyticsEvent(name string, user *models.User, post models.FeedPost, row, column int) models.AnalyticsEvent {
	return models.AnalyticsEvent{
		EventName: name,
		UserID:    user.ID,
		Post: models.AnalyticsPost{
			ID:       post.ID,
			Title:    post.Title,
			AuthorID: post.Author.ID,
		},
		Columns: c.columns,
		Column:  column,
		Row:     row,
		Extra: models.AnalyticsExtra{
			Origin: originFeed,
			Feed:   c.feedName,
		},
	}
}
