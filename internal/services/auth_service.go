package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chemviz/internal/config"
	"chemviz/internal/infrastructure"
	"chemviz/internal/security"
)

// AuthService exchanges configured credentials for API tokens.
type AuthService struct {
	enabled bool
	users   map[string]string
	tokens  *security.TokenStore
	logger  *slog.Logger
}

// NewAuthService copies the user table from cfg.
func NewAuthService(cfg config.AuthConfig, logger *slog.Logger) *AuthService {
	users := make(map[string]string, len(cfg.Users))
	for name, hash := range cfg.Users {
		users[name] = hash
	}

	logger = infrastructure.WithComponent(logger, "auth_service")
	logger.Info("AuthService initialized",
		slog.Bool("enabled", cfg.Enabled),
		slog.Int("users", len(users)))

	return &AuthService{
		enabled: cfg.Enabled,
		users:   users,
		tokens:  security.NewTokenStore(cfg.TokenTTL),
		logger:  logger,
	}
}

// Enabled reports whether API routes require a token.
func (s *AuthService) Enabled() bool {
	return s.enabled
}

// Login verifies the password and returns the user's token, reusing a live one.
func (s *AuthService) Login(ctx context.Context, username, password string) (security.Token, error) {
	hash, ok := s.users[username]
	if !ok || password == "" {
		s.logger.WarnContext(ctx, "login failed", slog.String("username", username))
		return security.Token{}, security.ErrInvalidCredentials
	}

	match, err := security.VerifyPassword(password, hash)
	if err != nil {
		if errors.Is(err, security.ErrMalformedHash) {
			s.logger.ErrorContext(ctx, "configured password hash is malformed",
				slog.String("username", username))
		}
		return security.Token{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		s.logger.WarnContext(ctx, "login failed", slog.String("username", username))
		return security.Token{}, security.ErrInvalidCredentials
	}

	token := s.tokens.GetOrCreate(username)
	s.logger.InfoContext(ctx, "user logged in", slog.String("username", username))
	return token, nil
}

// ValidateToken resolves a token to its username.
func (s *AuthService) ValidateToken(_ context.Context, token string) (string, error) {
	return s.tokens.Validate(token)
}

// Logout revokes token.
func (s *AuthService) Logout(_ context.Context, token string) {
	s.tokens.Revoke(token)
}
