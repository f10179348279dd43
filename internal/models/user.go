package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Email       string    `json:"email" gorm:"uniqueIndex"`
	Image       string    `json:"image,omitempty"`
	Username    string    `json:"username,omitempty" gorm:"index"`
	Password    string    `json:"-"`                                         // bcrypt hash
	FirebaseUID *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // nil for local accounts
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the author reference shown on post cards and profile links
type UserCompact struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Permalink string `json:"permalink"`
}

// Key returns the user's identifier as used in query cache keys
func (u *User) Key() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

func (u *User) ToCompact() UserCompact {
	handle := u.Username
	if handle == "" {
		handle = u.Key()
	}
	return UserCompact{
		ID:        u.ID,
		Name:      u.Name,
		Image:     u.Image,
		Permalink: fmt.Sprintf("/%s", handle),
	}
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username,omitempty" validate:"omitempty,alphanum,min=3,max=30"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
