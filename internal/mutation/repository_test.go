package mutation

import (
	"context"
	"testing"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaved struct {
	saved map[string]bool
}

func (f *fakeSaved) SavePost(_ context.Context, s *models.SavedPost) error {
	f.saved[s.PostID] = true
	return nil
}

func (f *fakeSaved) UnsavePost(_ context.Context, _ uint, postID string) error {
	if !f.saved[postID] {
		return repositories.ErrNotFound
	}
	delete(f.saved, postID)
	return nil
}

func (f *fakeSaved) IsPostSaved(_ context.Context, _ uint, postID string) (bool, error) {
	return f.saved[postID], nil
}

func (f *fakeSaved) GetSavedPostsByUser(context.Context, uint, int) ([]models.SavedPost, error) {
	return nil, nil
}

func (f *fakeSaved) GetSavedPostIDs(context.Context, uint, []string) (map[string]bool, error) {
	return f.saved, nil
}

type fakeLikes struct {
	liked map[string]bool
}

func (f *fakeLikes) CreateLike(_ context.Context, l *models.Like) (bool, error) {
	if f.liked[l.PostID] {
		return false, nil
	}
	f.liked[l.PostID] = true
	return true, nil
}

func (f *fakeLikes) DeleteLike(_ context.Context, postID string, _ uint) error {
	if !f.liked[postID] {
		return repositories.ErrNotFound
	}
	delete(f.liked, postID)
	return nil
}

func (f *fakeLikes) HasUserLikedPost(_ context.Context, postID string, _ uint) (bool, error) {
	return f.liked[postID], nil
}

func (f *fakeLikes) GetLikedPostIDs(context.Context, uint, []string) (map[string]bool, error) {
	return f.liked, nil
}

type fakePosts struct {
	repositories.PostRepository
	exists map[string]bool
	likes  map[string]int
}

func (f *fakePosts) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	if !f.exists[id] {
		return nil, repositories.ErrNotFound
	}
	return &models.Post{}, nil
}

func (f *fakePosts) IncrementLikesCount(_ context.Context, id string) error {
	f.likes[id]++
	return nil
}

func (f *fakePosts) DecrementLikesCount(_ context.Context, id string) error {
	f.likes[id]--
	return nil
}

func newRepoClient() (*RepositoryClient, *fakeSaved, *fakeLikes, *fakePosts) {
	saved := &fakeSaved{saved: map[string]bool{}}
	likes := &fakeLikes{liked: map[string]bool{}}
	posts := &fakePosts{exists: map[string]bool{"42": true}, likes: map[string]int{}}
	return NewRepositoryClient(saved, likes, posts), saved, likes, posts
}

func TestRepositoryClient_Bookmarks(t *testing.T) {
	ctx := context.Background()
	c, saved, _, _ := newRepoClient()
	user := &models.User{ID: 1}

	require.NoError(t, c.Bookmark(ctx, user, Variables{ID: "42"}))
	assert.True(t, saved.saved["42"])

	require.NoError(t, c.RemoveBookmark(ctx, user, Variables{ID: "42"}))
	require.NoError(t, c.RemoveBookmark(ctx, user, Variables{ID: "42"}), "removing twice is not an error")

	err := c.Bookmark(ctx, user, Variables{ID: "missing"})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestRepositoryClient_UpvoteCountsOnce(t *testing.T) {
	ctx := context.Background()
	c, _, _, posts := newRepoClient()
	user := &models.User{ID: 1}

	require.NoError(t, c.Upvote(ctx, user, Variables{ID: "42"}))
	require.NoError(t, c.Upvote(ctx, user, Variables{ID: "42"}))
	assert.Equal(t, 1, posts.likes["42"])

	require.NoError(t, c.CancelUpvote(ctx, user, Variables{ID: "42"}))
	require.NoError(t, c.CancelUpvote(ctx, user, Variables{ID: "42"}))
	assert.Equal(t, 0, posts.likes["42"])
}
