package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads; blank values fall back to defaults
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "ENV", "POSTGRES_URL", "MONGO_URI", "MONGO_DATABASE",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "JWT_SECRET", "JWT_TTL",
		"FIREBASE_CREDENTIALS_PATH", "MUTATION_BACKEND", "GRAPHQL_ENDPOINT", "GRAPHQL_TOKEN",
		"SESSION_TTL", "CACHE_MAX_AGE", "ANALYTICS_QUEUE_SIZE", "FEED_PAGE_SIZE", "BOOKMARKS_PAGE_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, MutationBackendDB, cfg.MutationBackend)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "feedgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
redis_addr: localhost:6379
session_ttl: 10m
feed_page_size: 12
mutation_backend: graphql
graphql_endpoint: http://api.internal/graphql
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("ANALYTICS_QUEUE_SIZE", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 12, cfg.FeedPageSize)
	assert.Equal(t, 8, cfg.AnalyticsQueueSize)
	assert.Equal(t, MutationBackendGraphQL, cfg.MutationBackend)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("MUTATION_BACKEND", "carrier-pigeon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_GraphQLNeedsEndpoint(t *testing.T) {
	clearEnv(t)
	t.Setenv("MUTATION_BACKEND", MutationBackendGraphQL)
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("FEED_PAGE_SIZE", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionNeedsSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	assert.NoError(t, err)
}
