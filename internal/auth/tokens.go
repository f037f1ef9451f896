package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const issuer = "multitenant-rag-platform"

// TokenPair is the access/refresh pair issued to the admin login.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	AccessExp    time.Time `json:"access_exp"`
	RefreshExp   time.Time `json:"refresh_exp"`
}

// Claims carries the authenticated principal. TenantID is empty for
// admin tokens and set for tenant-scoped credentials; handlers must
// check it against the tenant being accessed.
type Claims struct {
	TenantID string `json:"tenant_id,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates JWTs and tracks their JTIs in Redis
// so individual tokens can be revoked before expiry.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	rdb           *redis.Client
}

func NewTokenService(accessSecret, refreshSecret string, rdb *redis.Client) (*TokenService, error) {
	if len(accessSecret) < 32 || len(refreshSecret) < 32 {
		return nil, fmt.Errorf("ACCESS_SECRET and REFRESH_SECRET must be at least 32 characters")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		rdb:           rdb,
	}, nil
}

// IssuePair mints an access token (1h) and refresh token (7d) for the
// subject.
func (s *TokenService) IssuePair(ctx context.Context, subject, tenantID, role string) (*TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(1 * time.Hour)
	refreshExp := now.Add(7 * 24 * time.Hour)

	accessJTI := uuid.NewString()
	refreshJTI := uuid.NewString()

	accessString, err := s.sign(s.accessSecret, subject, tenantID, role, accessJTI, now, accessExp)
	if err != nil {
		return nil, err
	}
	refreshString, err := s.sign(s.refreshSecret, subject, tenantID, role, refreshJTI, now, refreshExp)
	if err != nil {
		return nil, err
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, "access:"+accessJTI, subject, time.Until(accessExp))
	pipe.Set(ctx, "refresh:"+refreshJTI, subject, time.Until(refreshExp))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessString,
		RefreshToken: refreshString,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *TokenService) sign(secret []byte, subject, tenantID, role, jti string, now, exp time.Time) (string, error) {
	claims := Claims{
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateAccess parses and verifies an access token and confirms its
// JTI has not been revoked.
func (s *TokenService) ValidateAccess(ctx context.Context, tokenString string) (*Claims, error) {
	return s.validate(ctx, tokenString, s.accessSecret, "access:")
}

// ValidateRefresh does the same for refresh tokens.
func (s *TokenService) ValidateRefresh(ctx context.Context, tokenString string) (*Claims, error) {
	return s.validate(ctx, tokenString, s.refreshSecret, "refresh:")
}

func (s *TokenService) validate(ctx context.Context, tokenString string, secret []byte, prefix string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Prevent algorithm confusion attacks
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	exists, err := s.rdb.Exists(ctx, prefix+claims.ID).Result()
	if err != nil || exists != 1 {
		return nil, errors.New("token revoked or expired")
	}
	return claims, nil
}

// Revoke deletes one token's JTI, invalidating it immediately.
func (s *TokenService) Revoke(ctx context.Context, jti string, isRefresh bool) error {
	prefix := "access:"
	if isRefresh {
		prefix = "refresh:"
	}
	return s.rdb.Del(ctx, prefix+jti).Err()
}
