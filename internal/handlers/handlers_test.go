package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/nano-midea/feedgate/internal/middleware"
	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/mutation"
	"github.com/anonto42/nano-midea/feedgate/internal/repositories"
	"github.com/anonto42/nano-midea/feedgate/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	return e
}

// asUser authenticates every request of the group as user
func asUser(user *models.User) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user != nil {
				middleware.SetUser(c, user)
			}
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, data))
}

type fakeSource struct {
	total int
	// when set, every load waits for a value before reading
	gate chan struct{}
}

func (s *fakeSource) LoadPage(_ context.Context, _ string, viewer *models.User, skip, limit int) ([]models.FeedPost, error) {
	if s.gate != nil {
		<-s.gate
	}
	var posts []models.FeedPost
	for i := skip; i < s.total && i < skip+limit; i++ {
		posts = append(posts, models.FeedPost{ID: strconv.Itoa(i), NumUpvotes: 2})
	}
	return posts, nil
}

type fakeClient struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (c *fakeClient) record(op string, vars mutation.Variables) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, op+":"+vars.ID)
	return c.err
}

func (c *fakeClient) Bookmark(_ context.Context, _ *models.User, vars mutation.Variables) error {
	return c.record("bookmark", vars)
}

func (c *fakeClient) RemoveBookmark(_ context.Context, _ *models.User, vars mutation.Variables) error {
	return c.record("removeBookmark", vars)
}

func (c *fakeClient) Upvote(_ context.Context, _ *models.User, vars mutation.Variables) error {
	return c.record("upvote", vars)
}

func (c *fakeClient) CancelUpvote(_ context.Context, _ *models.User, vars mutation.Variables) error {
	return c.record("cancelUpvote", vars)
}

type nopTracker struct{}

func (nopTracker) Track(models.AnalyticsEvent) {}

type memUsers struct {
	mu    sync.Mutex
	users []*models.User
}

func (m *memUsers) CreateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uint(len(m.users) + 1)
	m.users = append(m.users, user)
	return nil
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memUsers) GetUserByID(id uint) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetUsersByIDs(_ context.Context, ids []uint) (map[uint]models.User, error) {
	out := make(map[uint]models.User)
	for _, id := range ids {
		if u, err := m.GetUserByID(id); err == nil {
			out[id] = *u
		}
	}
	return out, nil
}

func (m *memUsers) GetUserByEmail(email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) GetUserByFirebaseUID(uid string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == uid })
}

func (m *memUsers) UpdateUser(*models.User) error { return nil }

var _ repositories.UserRepository = (*memUsers)(nil)

func assertStatus(t *testing.T, want int, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}
