package service

import (
	"context"
	"log"

	"storefront-service/internal/auth"
)

// AuthService exchanges admin credentials for a token.
type AuthService struct {
	admin  auth.Admin
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	logger *log.Logger
}

func NewAuthService(admin auth.Admin, hasher *auth.PasswordHasher, tokens *auth.TokenManager, logger *log.Logger) *AuthService {
	return &AuthService{admin: admin, hasher: hasher, tokens: tokens, logger: logger}
}

// Login returns a signed admin token. Unknown users and wrong passwords both
// yield auth.ErrInvalidCredentials.
func (s *AuthService) Login(_ context.Context, username, password string) (string, error) {
	id, err := s.admin.Authenticate(s.hasher, username, password)
	if err != nil {
		s.logger.Printf("WARN: Failed login attempt for user %q", username)
		return "", err
	}
	return s.tokens.Issue(id, true)
}
