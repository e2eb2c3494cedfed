package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"serio/internal/core/apperror"
	"serio/internal/core/id"
	"serio/pkg/logger"
)

// Repository defines operator storage operations.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*Operator, error)
	Create(ctx context.Context, op *Operator) error
}

// Service provides login and operator management.
type Service struct {
	repo Repository
	jwt  *JWTService
}

// NewService creates the auth service.
func NewService(repo Repository, jwt *JWTService) *Service {
	return &Service{repo: repo, jwt: jwt}
}

// LoginResult carries an issued access token.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Operator  *Operator `json:"operator"`
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.NewInvalidInput("email and password are required")
	}

	op, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the account exists
		return nil, apperror.NewUnauthorized("invalid credentials").WithCause(err)
	}
	if !op.Active {
		return nil, apperror.NewUnauthorized("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(op.ID.String(), op.Email, op.Roles, op.IsAdmin)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "operator logged in", "operator", op.ID, "email", op.Email)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Operator: op}, nil
}

// CreateOperator registers a new operator with a bcrypt-hashed password.
func (s *Service) CreateOperator(ctx context.Context, email, name, password string, roles []string, isAdmin bool) (*Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.NewInvalidInput("email is required")
	}
	if len(password) < 8 {
		return nil, apperror.NewInvalidInput("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	op := &Operator{
		ID:           id.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Roles:        roles,
		IsAdmin:      isAdmin,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}
