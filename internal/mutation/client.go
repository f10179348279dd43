// Package mutation issues the server-side bookmark and upvote mutations.
package mutation

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
)

// ErrPostNotFound is returned when the mutated post does not exist
var ErrPostNotFound = errors.New("post not found")

// Variables identify the mutated post and its position in the feed
type Variables struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

// Client performs feed mutations on behalf of a user
type Client interface {
	Bookmark(ctx context.Context, user *models.User, vars Variables) error
	RemoveBookmark(ctx context.Context, user *models.User, vars Variables) error
	Upvote(ctx context.Context, user *models.User, vars Variables) error
	CancelUpvote(ctx context.Context, user *models.User, vars Variables) error
}
