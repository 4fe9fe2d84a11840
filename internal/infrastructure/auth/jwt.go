// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package auth validates the bearer tokens minted by the platform gateway.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
)

const (
	// PS256 is the signing algorithm of the gateway tokens.
	signatureAlgorithm = validator.PS256

	defaultIssuer   = "heimdall"
	defaultAudience = "lfx-v2-meet-middleware"
	defaultJWKSURL  = "http://lfx-platform-heimdall.lfx.svc.cluster.local:4457/.well-known/jwks"

	jwksCacheTTL = 5 * time.Minute
	clockSkew    = 30 * time.Second
)

// HeimdallClaims contains the custom claims the gateway adds to every token.
type HeimdallClaims struct {
	Principal string `json:"principal"`
	Email     string `json:"email,omitempty"`
}

// Validate ensures the token names a principal.
func (c *HeimdallClaims) Validate(_ context.Context) error {
	if c.Principal == "" {
		return errors.New("principal must be provided")
	}
	return nil
}

// JWTAuthConfig holds the JWT validation settings.
type JWTAuthConfig struct {
	// JWKSURL is where the signing keys are fetched from.
	JWKSURL string
	// Audience is the expected aud claim.
	Audience string
	// Issuer is the expected iss claim.
	Issuer string
	// MockLocalPrincipal disables validation and authenticates every
	// request as this principal. Local development only.
	MockLocalPrincipal string
}

// JWTAuth validates bearer tokens and extracts their principal.
type JWTAuth struct {
	validator *validator.Validator
	config    JWTAuthConfig
}

// NewJWTAuth creates a JWTAuth backed by a caching JWKS provider.
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	if config.JWKSURL == "" {
		config.JWKSURL = defaultJWKSURL
	}
	if config.Audience == "" {
		config.Audience = defaultAudience
	}
	if config.Issuer == "" {
		config.Issuer = defaultIssuer
	}

	jwksURL, err := url.Parse(config.JWKSURL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWKS URL: %w", err)
	}

	issuerURL, err := url.Parse(config.Issuer)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, jwksCacheTTL, jwks.WithCustomJWKSURI(jwksURL))

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		signatureAlgorithm,
		config.Issuer,
		[]string{config.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &HeimdallClaims{}
		}),
		validator.WithAllowedClockSkew(clockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up JWT validator: %w", err)
	}

	return &JWTAuth{
		validator: jwtValidator,
		config:    config,
	}, nil
}

// MockMode reports whether tokens are ignored.
func (a *JWTAuth) MockMode() bool {
	return a.config.MockLocalPrincipal != ""
}

// ParsePrincipal validates token and returns the principal it carries.
func (a *JWTAuth) ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (string, error) {
	if a.MockMode() {
		logger.InfoContext(ctx, "JWT validation disabled, using mock principal",
			"principal", a.config.MockLocalPrincipal,
		)
		return a.config.MockLocalPrincipal, nil
	}

	if a.validator == nil {
		return "", errors.New("JWT validator is not set up")
	}

	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	parsed, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		logger.WarnContext(ctx, "token validation failed", logging.ErrKey, err)
		return "", err
	}

	claims, ok := parsed.(*validator.ValidatedClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	custom, ok := claims.CustomClaims.(*HeimdallClaims)
	if !ok || custom == nil {
		return "", errors.New("token carries no principal claims")
	}

	return custom.Principal, nil
}

// IJWTAuth is implemented by JWTAuth.
type IJWTAuth interface {
	ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (string, error)
}

var _ IJWTAuth = (*JWTAuth)(nil)
