package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chat-relay/internal/models"
)

var (
	ErrSecretRequired     = errors.New("auth: jwt secret required")
	ErrStoreRequired      = errors.New("auth: user store required")
	ErrUserExists         = errors.New("auth: user already exists")
	ErrEmailExists        = errors.New("auth: email already registered")
	ErrUsernameRequired   = errors.New("auth: username is required")
	ErrPasswordTooWeak    = errors.New("auth: password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrMissingToken       = errors.New("auth: no token provided")
)

// UserStore persists accounts. The Postgres implementation lives in
// internal/db; implementations map uniqueness violations to ErrUserExists
// and ErrEmailExists.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	TouchUpdatedAt(ctx context.Context, userID string) error
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Identifier string
	Password   string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// Service issues and verifies HS256 bearer tokens and manages credentials.
type Service struct {
	secret []byte
	ttl    time.Duration
	users  UserStore
}

func NewService(secret string, ttl time.Duration, users UserStore) (*Service, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if users == nil {
		return nil, ErrStoreRequired
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Service{secret: []byte(secret), ttl: ttl, users: users}, nil
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(strings.TrimSpace(input.Password)) < 6 {
		return nil, ErrPasswordTooWeak
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.generateToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user.Sanitize()}, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Best-effort; login does not depend on the timestamp write.
	if err := s.users.TouchUpdatedAt(ctx, user.ID); err == nil {
		user.UpdatedAt = time.Now().UTC()
	}

	token, expiresAt, err := s.generateToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user.Sanitize()}, nil
}

// VerifyToken checks the signature and expiry of token and returns its
// claims. The subject claim carries the owner ID.
func (s *Service) VerifyToken(token string) (*jwt.RegisteredClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TokenTTL reports the lifetime applied to issued tokens.
func (s *Service) TokenTTL() time.Duration {
	return s.ttl
}

func (s *Service) generateToken(userID string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}
