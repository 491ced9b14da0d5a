// Package auth issues and validates login sessions. Sessions are JWTs
// backed by an in-process registry so that logout revokes a token
// before its expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/ayurmed/hms-api/internal/config"
	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository"
	apperrors "github.com/ayurmed/hms-api/pkg/errors"
)

type Claims struct {
	Role model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	userRepo repository.UserRepository
	sessions *cache.Cache
	secret   []byte
	ttl      time.Duration
}

func NewService(userRepo repository.UserRepository, cfg config.SessionConfig) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is not configured")
	}
	ttl := time.Duration(cfg.TTLHours) * time.Hour
	return &Service{
		userRepo: userRepo,
		sessions: cache.New(ttl, 10*time.Minute),
		secret:   []byte(cfg.Secret),
		ttl:      ttl,
	}, nil
}

// Login authenticates by email and issues a session token. The roster
// logs in by email alone; an address that does not resolve to an
// account is a not-found, not an authorization failure.
func (s *Service) Login(ctx context.Context, email string) (*model.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(err)
	}

	now := time.Now()
	claims := &Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.sessions.Set(claims.ID, user.ID, s.ttl)
	return &model.LoginResponse{Token: token, User: user}, nil
}

// Validate checks the token signature and that the session has not
// been revoked, then loads the current user record.
func (s *Service) Validate(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if _, ok := s.sessions.Get(claims.ID); !ok {
		return nil, apperrors.Unauthorized(fmt.Errorf("session revoked or expired"))
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(err)
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// Logout revokes the session carried by the token. Revoking an already
// invalid token is not an error.
func (s *Service) Logout(ctx context.Context, tokenString string) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return
	}
	s.sessions.Delete(claims.ID)
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized(err)
	}
	return claims, nil
}
