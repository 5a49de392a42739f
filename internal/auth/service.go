package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/vovakirdan/wirechat-client/internal/utils"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with existing username.
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("username must be 3-32 characters")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("password must be at least 6 characters")
	// ErrUserNotFound is returned by a UserStore lookup miss.
	ErrUserNotFound = errors.New("user not found")
)

const bcryptCost = bcrypt.DefaultCost

// User is a registered account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// CheckCredentials applies the account rules shared by register and login forms.
// It returns the trimmed username.
func CheckCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return "", ErrInvalidUsername
	}
	if len(password) < 6 {
		return "", ErrInvalidPassword
	}
	return username, nil
}

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Service registers accounts and issues tokens.
type Service struct {
	store     UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new user with a hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	username, err := CheckCredentials(username, password)
	if err != nil {
		return nil, err
	}

	if existing, err := s.store.GetUserByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, hashedPassword)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login validates credentials and returns a JWT token with the account.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if errPwd := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); errPwd != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// MemoryStore is a UserStore kept in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string]*User
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byName: make(map[string]*User)}
}

func (m *MemoryStore) CreateUser(_ context.Context, username, passwordHash string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byName[username]; ok {
		return nil, ErrUserExists
	}
	user := &User{ID: utils.NewID(), Username: username, PasswordHash: passwordHash}
	m.byName[username] = user
	return user, nil
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byName[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}
