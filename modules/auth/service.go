package auth

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/hangout-hub/domain/hangout"
	"github.com/example/hangout-hub/modules/hangout"
)

var (
	// ErrInvalidCredentials is returned when login credentials are wrong.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrUsernameEmpty is returned when registering without a username.
	ErrUsernameEmpty = errors.New("username cannot be empty")
	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when the password exceeds bcrypt's
	// 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// Service handles registration, login, and credential resolution. Users
// live in the shared snapshot store alongside hangouts.
type Service struct {
	store  *hangout.SnapshotStore
	hasher *PasswordHasher
	jwt    *JWTManager
}

// NewService creates a new auth service.
func NewService(store *hangout.SnapshotStore, hasher *PasswordHasher, jwt *JWTManager) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a new user account. Registration never grants the
// admin flag; that is seeded in the snapshot out of band.
func (s *Service) Register(_ context.Context, username, password string) (domain.User, error) {
	if username == "" {
		return domain.User{}, ErrUsernameEmpty
	}
	if len(password) < 8 {
		return domain.User{}, ErrWeakPassword
	}
	if len(password) > 72 {
		return domain.User{}, ErrPasswordTooLong
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := s.store.RegisterUser(user); err != nil {
		return domain.User{}, err
	}

	return user, nil
}

// Login verifies the password and issues a session token.
func (s *Service) Login(_ context.Context, username, password string) (string, error) {
	user, err := s.store.FindUser(username)
	if err != nil {
		if errors.Is(err, hangout.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.jwt.Generate(user.Username, user.IsAdmin)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// Authenticate resolves a bearer credential to the user it names. The
// user must still exist; a token for a vanished identity is invalid.
func (s *Service) Authenticate(credential string) (domain.User, error) {
	claims, err := s.jwt.Validate(credential)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.store.FindUser(claims.Username)
	if err != nil {
		return domain.User{}, ErrInvalidToken
	}
	return user, nil
}

// IsAuthError reports whether err belongs to the credential-failure
// family that must terminate a session without retry.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrInvalidCredentials)
}
