package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

const minPasswordLength = 8

// RegisterInput is the account creation payload.
type RegisterInput struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result carries the minted access token and the account it belongs to.
type Result struct {
	Token string         `json:"token"`
	User  *users.UserDTO `json:"user"`
}

// Service exposes registration and login.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Result, error)
	Login(ctx context.Context, input LoginInput) (*Result, error)
}

type service struct {
	users     users.Repository
	jwtConfig config.JWTConfig
	pwConfig  config.PasswordConfig
	now       func() time.Time
}

// NewService builds the auth service.
func NewService(userRepo users.Repository, jwtConfig config.JWTConfig, pwConfig config.PasswordConfig) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if jwtConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		users:     userRepo,
		jwtConfig: jwtConfig,
		pwConfig:  pwConfig,
		now:       time.Now,
	}, nil
}

// Register creates the account and signs the user straight in.
func (s *service) Register(ctx context.Context, input RegisterInput) (*Result, error) {
	email := address.NormalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}

	hash, err := security.HashPassword(input.Password, s.pwConfig)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.buildResult(user)
}

// Login checks credentials and mints an access token. Bad email and bad
// password both come back as the same unauthorized error.
func (s *service) Login(ctx context.Context, input LoginInput) (*Result, error) {
	email := address.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	user.LastLoginAt = &now

	return s.buildResult(user)
}

func (s *service) buildResult(user *models.User) (*Result, error) {
	token, err := pkgauth.MintAccessToken(s.jwtConfig, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &Result{Token: token, User: users.ToDTO(user)}, nil
}
