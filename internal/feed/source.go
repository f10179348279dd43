package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/repositories"
	"golang.org/x/sync/errgroup"
)

// Source reads feed pages and bookmark lists from the repositories and decorates each post
// with its author and the viewer's flags
type Source struct {
	postRepository      repositories.PostRepository
	userRepository      repositories.UserRepository
	savedPostRepository repositories.SavedPostRepository
	likeRepository      repositories.LikeRepository
}

// NewSource creates a new Source
func NewSource(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	savedPostRepo repositories.SavedPostRepository,
	likeRepo repositories.LikeRepository,
) *Source {
	return &Source{
		postRepository:      postRepo,
		userRepository:      userRepo,
		savedPostRepository: savedPostRepo,
		likeRepository:      likeRepo,
	}
}

// LoadPage returns one page of the named feed as seen by viewer (nil for anonymous)
func (s *Source) LoadPage(ctx context.Context, feedName string, viewer *models.User, skip, limit int) ([]models.FeedPost, error) {
	posts, err := s.postRepository.GetFeedPosts(ctx, feedName, int64(skip), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("load %s feed: %w", feedName, err)
	}
	return s.Enrich(ctx, viewer, posts)
}

// LoadBookmarks returns the first page of the user's bookmarks, newest first
func (s *Source) LoadBookmarks(ctx context.Context, user *models.User, limit int) (models.PostConnection, error) {
	saved, err := s.savedPostRepository.GetSavedPostsByUser(ctx, user.ID, limit+1)
	if err != nil {
		return models.PostConnection{}, fmt.Errorf("load bookmarks: %w", err)
	}
	hasNext := limit > 0 && len(saved) > limit
	if hasNext {
		saved = saved[:limit]
	}

	ids := make([]string, len(saved))
	for i, sp := range saved {
		ids[i] = sp.PostID
	}
	posts, err := s.postRepository.GetPostsByIDs(ctx, ids)
	if err != nil {
		return models.PostConnection{}, fmt.Errorf("load bookmarked posts: %w", err)
	}
	feedPosts, err := s.Enrich(ctx, user, posts)
	if err != nil {
		return models.PostConnection{}, err
	}

	edges := make([]models.PostEdge, len(feedPosts))
	for i, p := range feedPosts {
		edges[i] = models.PostEdge{Node: p}
	}
	page := models.PostPage{Edges: edges, PageInfo: models.PageInfo{HasNextPage: hasNext}}
	if len(saved) > 0 {
		page.PageInfo.EndCursor = saved[len(saved)-1].CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return models.PostConnection{Pages: []models.PostPage{page}}, nil
}

// Enrich builds feed posts with authors and, for a signed-in viewer, bookmark and upvote flags
func (s *Source) Enrich(ctx context.Context, viewer *models.User, posts []models.Post) ([]models.FeedPost, error) {
	postIDs := make([]string, len(posts))
	authorSet := make(map[uint]struct{})
	for i, p := range posts {
		postIDs[i] = p.ID.Hex()
		authorSet[p.UserID] = struct{}{}
	}
	authorIDs := make([]uint, 0, len(authorSet))
	for id := range authorSet {
		authorIDs = append(authorIDs, id)
	}

	var (
		authors  map[uint]models.User
		savedMap map[string]bool
		likedMap map[string]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authors, err = s.userRepository.GetUsersByIDs(gctx, authorIDs)
		return err
	})
	if viewer != nil {
		g.Go(func() error {
			var err error
			savedMap, err = s.savedPostRepository.GetSavedPostIDs(gctx, viewer.ID, postIDs)
			return err
		})
		g.Go(func() error {
			var err error
			likedMap, err = s.likeRepository.GetLikedPostIDs(gctx, viewer.ID, postIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich posts: %w", err)
	}

	out := make([]models.FeedPost, len(posts))
	for i, p := range posts {
		var author models.UserCompact
		if u, ok := authors[p.UserID]; ok {
			author = u.ToCompact()
		}
		fp := p.ToFeedPost(author)
		fp.Bookmarked = savedMap[postIDs[i]]
		fp.Upvoted = likedMap[postIDs[i]]
		out[i] = fp
	}
	return out, nil
}
