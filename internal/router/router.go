package router

import (
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/analytics"
	"github.com/anonto42/nano-midea/feedgate/internal/feed"
	"github.com/anonto42/nano-midea/feedgate/internal/handlers"
	"github.com/anonto42/nano-midea/feedgate/internal/middleware"
	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/mutation"
	"github.com/anonto42/nano-midea/feedgate/internal/querycache"
	"github.com/anonto42/nano-midea/feedgate/internal/repositories"
	"github.com/anonto42/nano-midea/feedgate/pkg/config"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	redisKeyPrefix = "feedgate:query:"
	maxSweepEvery  = time.Minute
)

// Migrate creates or updates the PostgreSQL schema
func Migrate(pgdb *gorm.DB) error {
	if err := pgdb.AutoMigrate(&models.User{}, &models.SavedPost{}, &models.Like{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Repositories are the storage dependencies of the routes
type Repositories struct {
	Users     repositories.UserRepository
	Posts     repositories.PostRepository
	SavedPost repositories.SavedPostRepository
	Likes     repositories.LikeRepository
	Analytics repositories.AnalyticsRepository
}

// NewRepositories builds the PostgreSQL and MongoDB repositories
func NewRepositories(db *config.DB) Repositories {
	return Repositories{
		Users:     repositories.NewPostgresUserRepository(db.Postgres),
		Posts:     repositories.NewMongoPostRepository(db.MongoDB()),
		SavedPost: repositories.NewPostgresSavedPostRepository(db.Postgres),
		Likes:     repositories.NewPostgresLikeRepository(db.Postgres),
		Analytics: repositories.NewMongoAnalyticsRepository(db.MongoDB()),
	}
}

// NewCacheMirror returns the Redis mirror of the query cache, or nil when Redis is not configured
func NewCacheMirror(db *config.DB, cfg *config.Config) querycache.Mirror {
	if db.Redis == nil {
		return nil
	}
	return querycache.NewRedisMirror(db.Redis, redisKeyPrefix, cfg.CacheMaxAge)
}

// Options carry the optional backends of the routes
type Options struct {
	Mirror   querycache.Mirror          // nil disables the cache mirror
	IDTokens middleware.IDTokenVerifier // nil disables Firebase tokens
}

// Services are the background parts of the app; Close stops them
type Services struct {
	Cache    *querycache.Cache
	Tracker  *analytics.Tracker
	Sessions *feed.Sessions
}

func (s *Services) Close() {
	s.Sessions.Close()
	s.Tracker.Close()
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, repos Repositories, opts Options, logger *zap.Logger) (*Services, error) {
	client, err := newMutationClient(cfg, repos)
	if err != nil {
		return nil, err
	}

	cache := querycache.New(opts.Mirror, cfg.CacheMaxAge, logger.Named("querycache"))
	tracker := analytics.NewTracker(cfg.AnalyticsQueueSize, logger.Named("analytics"),
		analytics.NewRepositorySink(repos.Analytics),
		analytics.NewLogSink(logger.Named("analytics")),
	)
	feedLogger := logger.Named("feed")
	sessions := feed.NewSessions(cfg.SessionTTL, func(store *feed.Store, feedName string, columns int) *feed.Coordinator {
		return feed.NewCoordinator(store, cache, client, tracker, columns, feedName, feedLogger)
	}, feedLogger)
	if cfg.SessionTTL > 0 {
		sessions.Start(min(cfg.SessionTTL, maxSweepEvery))
	}
	source := feed.NewSource(repos.Posts, repos.Users, repos.SavedPost, repos.Likes)

	jwtVerifier := middleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTTTL, repos.Users)
	verifiers := middleware.Verifiers{jwtVerifier}
	if opts.IDTokens != nil {
		verifiers = append(verifiers, middleware.NewFirebaseVerifier(opts.IDTokens, repos.Users))
	}

	e.GET("/health", handlers.HealthCheck)

	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(repos.Users, opts.IDTokens, jwtVerifier, logger.Named("auth")).RegisterAuthRoutes(authGroup)

	// feeds are readable anonymously; toggles answer anonymous viewers with a login prompt
	viewer := e.Group("/api/v1", middleware.Identity(verifiers, false, logger))
	handlers.NewFeedHandler(source, sessions, cfg.FeedPageSize, feedLogger).RegisterFeedRoutes(viewer)

	signedIn := e.Group("/api/v1", middleware.Identity(verifiers, true, logger))
	handlers.NewBookmarksHandler(cache, source, cfg.BookmarksPageSize, logger.Named("bookmarks")).RegisterBookmarkRoutes(signedIn)

	logger.Info("routes configured", zap.String("mutation_backend", cfg.MutationBackend), zap.Bool("cache_mirror", opts.Mirror != nil))
	return &Services{Cache: cache, Tracker: tracker, Sessions: sessions}, nil
}

func newMutationClient(cfg *config.Config, repos Repositories) (mutation.Client, error) {
	switch cfg.MutationBackend {
	case config.MutationBackendDB:
		return mutation.NewRepositoryClient(repos.SavedPost, repos.Likes, repos.Posts), nil
	case config.MutationBackendGraphQL:
		return mutation.NewGraphQLClient(cfg.GraphQLEndpoint, cfg.GraphQLToken), nil
	default:
		return nil, fmt.Errorf("unknown mutation backend %q", cfg.MutationBackend)
	}
}
