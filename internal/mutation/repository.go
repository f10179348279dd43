package mutation

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/repositories"
)

// RepositoryClient applies mutations directly to the databases
type RepositoryClient struct {
	savedPostRepository repositories.SavedPostRepository
	likeRepository      repositories.LikeRepository
	postRepository      repositories.PostRepository
}

// NewRepositoryClient creates a new RepositoryClient
func NewRepositoryClient(savedPostRepo repositories.SavedPostRepository, likeRepo repositories.LikeRepository, postRepo repositories.PostRepository) *RepositoryClient {
	return &RepositoryClient{
		savedPostRepository: savedPostRepo,
		likeRepository:      likeRepo,
		postRepository:      postRepo,
	}
}

func (c *RepositoryClient) Bookmark(ctx context.Context, user *models.User, vars Variables) error {
	if err := c.ensurePost(ctx, vars.ID); err != nil {
		return err
	}
	saved := &models.SavedPost{UserID: user.ID, PostID: vars.ID}
	if err := c.savedPostRepository.SavePost(ctx, saved); err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

// RemoveBookmark succeeds when the post was not bookmarked
func (c *RepositoryClient) RemoveBookmark(ctx context.Context, user *models.User, vars Variables) error {
	err := c.savedPostRepository.UnsavePost(ctx, user.ID, vars.ID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("unsave post: %w", err)
	}
	return nil
}

func (c *RepositoryClient) Upvote(ctx context.Context, user *models.User, vars Variables) error {
	if err := c.ensurePost(ctx, vars.ID); err != nil {
		return err
	}
	created, err := c.likeRepository.CreateLike(ctx, &models.Like{PostID: vars.ID, UserID: user.ID})
	if err != nil {
		return fmt.Errorf("create like: %w", err)
	}
	if !created {
		return nil
	}
	if err := c.postRepository.IncrementLikesCount(ctx, vars.ID); err != nil {
		return fmt.Errorf("increment likes: %w", err)
	}
	return nil
}

// CancelUpvote succeeds when the post was not upvoted
func (c *RepositoryClient) CancelUpvote(ctx context.Context, user *models.User, vars Variables) error {
	err := c.likeRepository.DeleteLike(ctx, vars.ID, user.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if err := c.postRepository.DecrementLikesCount(ctx, vars.ID); err != nil {
		return fmt.Errorf("decrement likes: %w", err)
	}
	return nil
}

func (c *RepositoryClient) ensurePost(ctx context.Context, postID string) error {
	_, err := c.postRepository.GetPostByID(ctx, postID)
	if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, repositories.ErrInvalidID) {
		return fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}
	return nil
}
