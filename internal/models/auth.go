package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest carries the identity credential issued by the identity provider.
type LoginRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// Identity is the verified subject of an identity credential.
type Identity struct {
	Email string
	Name  string
}

// LoginResponse returns the access token and the resolved user.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	IssuedAt    time.Time   `json:"issued_at"`
	Created     bool        `json:"created"`
	User        UserProfile `json:"user"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
