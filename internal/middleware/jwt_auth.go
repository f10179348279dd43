package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/anonto42/nano-midea/feedgate/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
)

// UserLookup finds the user a verified token belongs to
type UserLookup interface {
	GetUserByID(id uint) (*models.User, error)
	GetUserByFirebaseUID(firebaseUID string) (*models.User, error)
}

// JWTVerifier issues and verifies locally signed HS256 tokens
type JWTVerifier struct {
	secret []byte
	ttl    time.Duration
	users  UserLookup
	now    func() time.Time
}

func NewJWTVerifier(secret string, ttl time.Duration, users UserLookup) *JWTVerifier {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &JWTVerifier{secret: []byte(secret), ttl: ttl, users: users, now: time.Now}
}

// Issue signs a token for user
func (v *JWTVerifier) Issue(user *models.User) (string, error) {
	now := v.now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*models.User, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := v.users.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user %d", ErrInvalidToken, claims.UserID)
		}
		return nil, err
	}
	return user, nil
}
