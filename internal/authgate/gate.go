// Package authgate gates state-changing feed actions on an authenticated user.
package authgate

import (
	"sync"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
)

// Login origins, telling the login flow which action sent the user there
const (
	OriginBookmark = "bookmark"
	OriginUpvote   = "upvote"
)

// Login displays the client opens the auth modal on
const (
	DisplayDefault  = "default"
	DisplaySignBack = "sign_back"
)

// Auth exposes the current viewer and the login flow
type Auth interface {
	User() *models.User
	ShowLogin(origin string)
}

// RequireUser returns the authenticated user. Without one it starts the login flow tagged
// with origin and returns false; the caller must stop without further side effects.
func RequireUser(a Auth, origin string) (*models.User, bool) {
	if u := a.User(); u != nil {
		return u, true
	}
	a.ShowLogin(origin)
	return nil, false
}

// LoginDisplay picks the auth modal display. Users who just logged out are offered to sign back in.
func LoginDisplay(loggedOut bool) string {
	if loggedOut {
		return DisplaySignBack
	}
	return DisplayDefault
}

// RequestAuth is the Auth of a single HTTP request. ShowLogin records a prompt the handler
// returns to the client.
type RequestAuth struct {
	user      *models.User
	loggedOut bool

	mu     sync.Mutex
	prompt *models.LoginPrompt
}

// NewRequestAuth creates a new RequestAuth
func NewRequestAuth(user *models.User, loggedOut bool) *RequestAuth {
	return &RequestAuth{user: user, loggedOut: loggedOut}
}

func (r *RequestAuth) User() *models.User {
	return r.user
}

func (r *RequestAuth) ShowLogin(origin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompt = &models.LoginPrompt{Origin: origin, Display: LoginDisplay(r.loggedOut)}
}

// Prompt returns the login prompt recorded by ShowLogin, or nil
func (r *RequestAuth) Prompt() *models.LoginPrompt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prompt
}
