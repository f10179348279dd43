package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/feedgate/internal/middleware"
	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/querycache"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// BookmarkCache is the part of the query cache the bookmarks list reads through
type BookmarkCache interface {
	Fetch(ctx context.Context, key querycache.Key, load querycache.Loader) (models.PostConnection, error)
	Invalidate(key querycache.Key)
}

// BookmarkSource loads a user's bookmarks from the source of truth
type BookmarkSource interface {
	LoadBookmarks(ctx context.Context, user *models.User, limit int) (models.PostConnection, error)
}

// BookmarksHandler serves the signed-in user's bookmarks from the query cache
type BookmarksHandler struct {
	cache    BookmarkCache
	source   BookmarkSource
	pageSize int
	logger   *zap.Logger
}

// NewBookmarksHandler creates a new BookmarksHandler
func NewBookmarksHandler(cache BookmarkCache, source BookmarkSource, pageSize int, logger *zap.Logger) *BookmarksHandler {
	return &BookmarksHandler{
		cache:    cache,
		source:   source,
		pageSize: pageSize,
		logger:   logger,
	}
}

// RegisterBookmarkRoutes registers bookmark routes; the group must require authentication
func (h *BookmarksHandler) RegisterBookmarkRoutes(g *echo.Group) {
	g.GET("/bookmarks", h.GetBookmarks)
}

// GetBookmarks returns the cached bookmark connection; ?refresh=true refetches it
func (h *BookmarksHandler) GetBookmarks(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	key := querycache.BookmarksKey(user.Key())
	if c.QueryParam("refresh") == "true" {
		h.cache.Invalidate(key)
	}

	conn, err := h.cache.Fetch(c.Request().Context(), key, func(ctx context.Context) (models.PostConnection, error) {
		return h.source.LoadBookmarks(ctx, user, h.pageSize)
	})
	if err != nil {
		h.logger.Error("fetch bookmarks", zap.Uint("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load bookmarks")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": conn})
}
