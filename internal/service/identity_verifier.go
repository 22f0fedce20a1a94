package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
)

// IdentityConfig configures verification of identity-provider credentials.
type IdentityConfig struct {
	Secret   string
	Audience string
	Issuer   string
}

type identityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// JWTIdentityVerifier validates HS256 identity tokens minted by the identity
// provider and extracts the user identity.
type JWTIdentityVerifier struct {
	config IdentityConfig
	now    func() time.Time
}

// NewJWTIdentityVerifier constructs a verifier.
func NewJWTIdentityVerifier(cfg IdentityConfig) *JWTIdentityVerifier {
	return &JWTIdentityVerifier{config: cfg, now: time.Now}
}

// Verify parses credential and returns the identity it asserts.
func (v *JWTIdentityVerifier) Verify(ctx context.Context, credential string) (*models.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.config.Audience))
	}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}

	claims := &identityClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(credential), claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(v.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidCredential.Code, appErrors.ErrInvalidCredential.Status, "invalid identity credential")
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredential, "identity credential carries no email")
	}
	return &models.Identity{Email: email, Name: strings.TrimSpace(claims.Name)}, nil
}

// SignIdentity mints a credential accepted by a verifier with the same
// configuration. Used by local tooling and tests.
func SignIdentity(cfg IdentityConfig, identity models.Identity, ttl time.Duration, now time.Time) (string, error) {
	claims := identityClaims{
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   identity.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign identity: %w", err)
	}
	return signed, nil
}
