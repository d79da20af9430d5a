package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost existing admin hashes were generated with.
const DefaultBcryptCost = 10

// ErrInvalidCredentials is returned for an unknown username or a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

// PasswordHasher provides password hashing and verification.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: DefaultBcryptCost}
}

// Hash generates a bcrypt hash of the given password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// Verify checks if the provided password matches the hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Admin is the single configured admin account.
type Admin struct {
	Username     string
	PasswordHash string
}

// Authenticate returns the account identity when username and password match.
func (a Admin) Authenticate(h *PasswordHasher, username, password string) (string, error) {
	if a.Username == "" || a.PasswordHash == "" || username != a.Username {
		return "", ErrInvalidCredentials
	}
	if !h.Verify(password, a.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return a.Username, nil
}
