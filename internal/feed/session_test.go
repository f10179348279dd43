package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/querycache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestSessions(ttl time.Duration) *Sessions {
	cache := querycache.New(nil, 0, zap.NewNop())
	return NewSessions(ttl, func(store *Store, feedName string, columns int) *Coordinator {
		return NewCoordinator(store, cache, &fakeClient{}, &fakeTracker{}, columns, feedName, zap.NewNop())
	}, zap.NewNop())
}

func TestSessions_CreateAndGet(t *testing.T) {
	s := newTestSessions(time.Minute)

	sess := s.Create("popular", 3, 7)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 3, sess.Columns)
	assert.NotNil(t, sess.Coordinator)
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(sess.ID, "popular", 7)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = s.Get(sess.ID, "recent", 7)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(sess.ID, "popular", 8)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get("missing", "popular", 7)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessions_AnonymousSessionIsNotVisibleToSignedInViewer(t *testing.T) {
	s := newTestSessions(time.Minute)
	sess := s.Create("recent", 0, 0)
	assert.Equal(t, 1, sess.Columns)

	_, err := s.Get(sess.ID, "recent", 0)
	assert.NoError(t, err)
	_, err = s.Get(sess.ID, "recent", 42)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSession_LoadNextSkipsLoadedPostsAndEmptyPages(t *testing.T) {
	s := newTestSessions(time.Minute)
	sess := s.Create("popular", 1, 0)
	var skips []int
	load := func(posts ...string) PageLoader {
		return func(_ context.Context, skip int) ([]models.FeedPost, error) {
			skips = append(skips, skip)
			out := make([]models.FeedPost, len(posts))
			for i, id := range posts {
				out[i] = models.FeedPost{ID: id}
			}
			return out, nil
		}
	}

	posts, page, offset, err := sess.LoadNext(context.Background(), load("a", "b"))
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, 0, page)
	assert.Equal(t, 0, offset)

	_, page, offset, err = sess.LoadNext(context.Background(), load("c"))
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, 2, offset)

	posts, page, offset, err = sess.LoadNext(context.Background(), load())
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, 2, page)
	assert.Equal(t, 3, offset)
	assert.Equal(t, 2, sess.Store.Pages())
	assert.Equal(t, []int{0, 2, 3}, skips)

	_, _, _, err = sess.LoadNext(context.Background(), func(context.Context, int) ([]models.FeedPost, error) {
		return nil, errors.New("source down")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, sess.Store.Len())
}

func TestSessions_SweepDropsIdle(t *testing.T) {
	s := newTestSessions(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	idle := s.Create("popular", 1, 0)
	now = now.Add(45 * time.Second)
	active := s.Create("popular", 1, 0)
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, s.Sweep())
	_, err := s.Get(idle.ID, "popular", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(active.ID, "popular", 0)
	assert.NoError(t, err)
}

func TestSessions_StartAndClose(t *testing.T) {
	s := newTestSessions(time.Millisecond)
	s.Create("popular", 1, 0)
	s.Start(time.Millisecond)

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	s.Close()
	s.Close()
}
