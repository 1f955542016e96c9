package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

const tokenIssuer = "habitquest"

// TokenRevoker is implemented by internal/cache. Without one, logout only clears the cookie.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

type AuthService struct {
	store   storage.Store
	secret  []byte
	ttl     time.Duration
	revoker TokenRevoker
	board   LeaderboardCache
	logger  *slog.Logger
	now     func() time.Time
}

func NewAuthService(st storage.Store, secret string, ttl time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{store: st, secret: []byte(secret), ttl: ttl, logger: logger, now: time.Now}
}

func (s *AuthService) SetRevoker(r TokenRevoker) { s.revoker = r }

// SetLeaderboardCache makes new users show up on the cached leaderboard at 0 XP.
func (s *AuthService) SetLeaderboardCache(c LeaderboardCache) { s.board = c }

func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (*user.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Level:        1,
		Badges:       []string{},
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, err
	}
	if s.board != nil {
		if err := s.board.SetScore(ctx, u.ID, u.Username, u.XP); err != nil {
			s.logger.Warn("failed to add user to leaderboard", slog.String("user_id", u.ID), slog.String("error", err.Error()))
		}
	}
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized()
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized()
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *user.User) (*user.AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username: u.Username,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &user.AuthResponse{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// ParseToken verifies signature, expiry and revocation. Every failure is reported as the same
// unauthorized error.
func (s *AuthService) ParseToken(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, apperror.Unauthorized()
	}

	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("token revocation check failed", slog.String("error", err.Error()))
		}
		if revoked {
			return nil, apperror.Unauthorized()
		}
	}
	return claims, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if s.revoker == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	return s.revoker.RevokeToken(ctx, claims.ID, ttl)
}
