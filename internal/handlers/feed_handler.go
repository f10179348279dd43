package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/feedgate/internal/authgate"
	"github.com/anonto42/nano-midea/feedgate/internal/feed"
	"github.com/anonto42/nano-midea/feedgate/internal/middleware"
	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/mutation"
	"github.com/anonto42/nano-midea/feedgate/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxPageSize = 50

// FeedSource loads feed pages
type FeedSource interface {
	LoadPage(ctx context.Context, feedName string, viewer *models.User, skip, limit int) ([]models.FeedPost, error)
}

// FeedHandler serves feed sessions and the bookmark and upvote toggles on their items
type FeedHandler struct {
	source   FeedSource
	sessions *feed.Sessions
	pageSize int
	logger   *zap.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(source FeedSource, sessions *feed.Sessions, pageSize int, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		source:   source,
		sessions: sessions,
		pageSize: pageSize,
		logger:   logger,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feeds/:feed", h.GetFeed)
	g.POST("/feeds/:feed/sessions/:session/items/:index/bookmark", h.ToggleBookmark)
	g.POST("/feeds/:feed/sessions/:session/items/:index/upvote", h.ToggleUpvote)
}

// FeedItem is a post with its flat position in the session
type FeedItem struct {
	Index int             `json:"index"`
	Page  int             `json:"page"`
	Post  models.FeedPost `json:"post"`
}

// GetFeed loads the next page of a feed into the session named by ?session, opening a new
// session when none is given
func (h *FeedHandler) GetFeed(c echo.Context) error {
	feedName := c.Param("feed")
	if !knownFeed(feedName) {
		return echo.NewHTTPError(http.StatusNotFound, "Feed not found")
	}
	user := middleware.CurrentUser(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > maxPageSize {
		limit = h.pageSize
	}

	var sess *feed.Session
	if id := c.QueryParam("session"); id != "" {
		var err error
		if sess, err = h.sessions.Get(id, feedName, viewerID(user)); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "Feed session not found")
		}
	} else {
		columns, _ := strconv.Atoi(c.QueryParam("columns"))
		sess = h.sessions.Create(feedName, columns, viewerID(user))
	}

	posts, page, offset, err := sess.LoadNext(c.Request().Context(), func(ctx context.Context, skip int) ([]models.FeedPost, error) {
		return h.source.LoadPage(ctx, feedName, user, skip, limit)
	})
	if err != nil {
		h.logger.Error("load feed page", zap.String("feed", feedName), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load feed")
	}

	items := make([]FeedItem, len(posts))
	for i, p := range posts {
		items[i] = FeedItem{Index: offset + i, Page: page, Post: p}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"session": sess.ID,
			"columns": sess.Columns,
			"page":    page,
			"items":   items,
		},
		"meta": echo.Map{
			"itemsPerPage": limit,
			"totalLoaded":  sess.Store.Len(),
			"hasNextPage":  len(posts) == limit,
		},
	})
}

// ToggleBookmark bookmarks or un-bookmarks a feed item
func (h *FeedHandler) ToggleBookmark(c echo.Context) error {
	var req models.BookmarkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	return h.toggle(c, func(ctx context.Context, sess *feed.Session, auth authgate.Auth, item feed.Item, index int) error {
		return sess.Coordinator.SetBookmark(ctx, auth, item.Post, index, req.Row, req.Column, *req.Bookmarked)
	})
}

// ToggleUpvote upvotes a feed item or cancels the upvote
func (h *FeedHandler) ToggleUpvote(c echo.Context) error {
	var req models.UpvoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	return h.toggle(c, func(ctx context.Context, sess *feed.Session, auth authgate.Auth, item feed.Item, index int) error {
		return sess.Coordinator.SetUpvote(ctx, auth, item.Post, index, req.Row, req.Column, *req.Upvoted)
	})
}

type toggleFunc func(ctx context.Context, sess *feed.Session, auth authgate.Auth, item feed.Item, index int) error

func (h *FeedHandler) toggle(c echo.Context, apply toggleFunc) error {
	user := middleware.CurrentUser(c)
	sess, err := h.sessions.Get(c.Param("session"), c.Param("feed"), viewerID(user))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Feed session not found")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid item index")
	}
	item, err := sess.Store.Item(index)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Feed item not found")
	}

	auth := authgate.NewRequestAuth(user, loggedOut(c))
	if err := apply(c.Request().Context(), sess, auth, item, index); err != nil {
		switch {
		case errors.Is(err, feed.ErrItemNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Feed item not found")
		case errors.Is(err, mutation.ErrPostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		default:
			return echo.NewHTTPError(http.StatusBadGateway, "Action failed and was reverted").SetInternal(err)
		}
	}
	if prompt := auth.Prompt(); prompt != nil {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"login": prompt}})
	}

	updated, err := sess.Store.Item(index)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Feed item not found")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    FeedItem{Index: index, Page: updated.Page, Post: updated.Post},
	})
}

func knownFeed(name string) bool {
	return name == repositories.FeedPopular || name == repositories.FeedRecent
}

func viewerID(user *models.User) uint {
	if user == nil {
		return 0
	}
	return user.ID
}
