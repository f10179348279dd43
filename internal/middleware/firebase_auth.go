package middleware

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/repositories"
)

// IDTokenVerifier checks Firebase ID tokens; *auth.Client implements it
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier accepts Firebase ID tokens of users who have signed in through firebase-login
type FirebaseVerifier struct {
	idTokens IDTokenVerifier
	users    UserLookup
}

func NewFirebaseVerifier(idTokens IDTokenVerifier, users UserLookup) *FirebaseVerifier {
	return &FirebaseVerifier{idTokens: idTokens, users: users}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*models.User, error) {
	token, err := v.idTokens.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	user, err := v.users.GetUserByFirebaseUID(token.UID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: no user for firebase uid %s", ErrInvalidToken, token.UID)
		}
		return nil, err
	}
	return user, nil
}
