// internal/service/auth/auth_service.go
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/user"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/token"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/repository/postgres"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users  *postgres.UserRepository
	tokens *token.Manager
	logger *zap.Logger
}

func NewAuthService(users *postgres.UserRepository, tokens *token.Manager, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Register creates a BUYER or SELLER account. Admin accounts are only
// bootstrapped from environment configuration at startup.
func (s *AuthService) Register(ctx context.Context, input *user.RegisterInput) (*user.AuthResult, error) {
	role := input.Role
	if role == "" {
		role = user.RoleBuyer
	}
	if role != user.RoleBuyer && role != user.RoleSeller {
		return nil, fmt.Errorf("%w: role must be BUYER or SELLER", xerrors.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", xerrors.ErrConflict)
		}
		return nil, err
	}

	return s.issueToken(u)
}

// Login verifies credentials and issues a JWT.
func (s *AuthService) Login(ctx context.Context, input *user.LoginInput) (*user.AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, xerrors.ErrUnauthorized
	}

	return s.issueToken(u)
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (*user.User, error) {
	return s.users.FindByID(ctx, id)
}

// ValidateToken verifies a bearer token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*token.Claims, error) {
	return s.tokens.Verify(tokenString)
}

// EnsureAdminExists creates the admin account from env-provided
// credentials if it is missing. Replaces the legacy hardcoded panel
// login with a real credential-backed account.
func (s *AuthService) EnsureAdminExists(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return fmt.Errorf("admin email and password must be configured")
	}
	if len(password) < 8 {
		return fmt.Errorf("admin password must be at least 8 characters")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, xerrors.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	u := &user.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         user.RoleAdmin,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	s.logger.Info("admin account created", zap.String("email", email))
	return nil
}

func (s *AuthService) issueToken(u *user.User) (*user.AuthResult, error) {
	signed, err := s.tokens.Generate(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &user.AuthResult{Token: signed, User: u}, nil
}
