package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[uint]*models.User

func (f fakeUsers) GetUserByID(id uint) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (f fakeUsers) GetUserByFirebaseUID(uid string) (*models.User, error) {
	for _, u := range f {
		if u.FirebaseUID != nil && *u.FirebaseUID == uid {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type fakeIDTokens struct{}

func (fakeIDTokens) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if idToken != "firebase-token" {
		return nil, errors.New("bad id token")
	}
	return &auth.Token{UID: "fb-1"}, nil
}

func serve(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, *models.User) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *models.User
	err := mw(func(c echo.Context) error {
		seen = CurrentUser(c)
		return c.NoContent(http.StatusNoContent)
	})(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, seen
}

func TestJWTVerifier_IssueAndVerify(t *testing.T) {
	users := fakeUsers{1: {ID: 1, Email: "ada@example.com"}}
	v := NewJWTVerifier("secret", time.Hour, users)

	token, err := v.Issue(users[1])
	require.NoError(t, err)

	user, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)

	_, err = NewJWTVerifier("other", time.Hour, users).Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_RejectsExpiredAndUnknown(t *testing.T) {
	users := fakeUsers{1: {ID: 1}}
	v := NewJWTVerifier("secret", time.Hour, users)
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := v.Issue(users[1])
	require.NoError(t, err)
	_, err = NewJWTVerifier("secret", time.Hour, users).Verify(context.Background(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	ghost, err := NewJWTVerifier("secret", time.Hour, users).Issue(&models.User{ID: 9})
	require.NoError(t, err)
	_, err = NewJWTVerifier("secret", time.Hour, users).Verify(context.Background(), ghost)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFirebaseVerifier(t *testing.T) {
	uid := "fb-1"
	users := fakeUsers{2: {ID: 2, FirebaseUID: &uid}}
	v := NewFirebaseVerifier(fakeIDTokens{}, users)

	user, err := v.Verify(context.Background(), "firebase-token")
	require.NoError(t, err)
	assert.Equal(t, uint(2), user.ID)

	_, err = v.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentity(t *testing.T) {
	uid := "fb-1"
	users := fakeUsers{1: {ID: 1}, 2: {ID: 2, FirebaseUID: &uid}}
	jwtVerifier := NewJWTVerifier("secret", time.Hour, users)
	verifiers := Verifiers{jwtVerifier, NewFirebaseVerifier(fakeIDTokens{}, users)}
	token, err := jwtVerifier.Issue(users[1])
	require.NoError(t, err)

	optional := Identity(verifiers, false, nil)
	required := Identity(verifiers, true, nil)

	rec, user := serve(t, optional, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, user)

	rec, user = serve(t, optional, "Bearer garbage")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, user)

	rec, user = serve(t, optional, "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, user)
	assert.Equal(t, uint(1), user.ID)

	rec, user = serve(t, optional, "Bearer firebase-token")
	require.NotNil(t, user)
	assert.Equal(t, uint(2), user.ID)

	rec, _ = serve(t, required, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(t, required, "Token "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(t, required, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
