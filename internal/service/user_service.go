package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"librarium/internal/auth"
	apperrors "librarium/internal/errors"
	"librarium/internal/mail"
	"librarium/internal/model"
	"librarium/internal/repository"
)

const bcryptCost = 10

// UserService handles account management: role-gated creation, password
// setup and password reset. Every creation and reset sends a tokenized
// email link through the mailer.
type UserService interface {
	CreateUser(ctx context.Context, creatorID uint, user *model.User) error
	SetPassword(ctx context.Context, email, token, password string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, password string) error

	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type userService struct {
	userRepo   repository.UserRepository
	tokenStore auth.TokenStoreInterface
	mailer     mail.Mailer
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, tokenStore auth.TokenStoreInterface, mailer mail.Mailer) UserService {
	return &userService{
		userRepo:   userRepo,
		tokenStore: tokenStore,
		mailer:     mailer,
	}
}

// CreateUser creates an account on behalf of a staff member. The creator's
// role must be allowed to create the target role, and the new user receives
// a password-creation link by email.
func (s *userService) CreateUser(ctx context.Context, creatorID uint, user *model.User) error {
	creator, err := s.findUserByID(ctx, creatorID)
	if err != nil {
		return err
	}
	if !user.Role.Valid() {
		return apperrors.ErrRoleNotPermitted
	}
	if !CanCreate(creator.Role, user.Role) {
		return apperrors.ErrRoleNotPermitted
	}

	user.Email = strings.TrimSpace(user.Email)
	if err := s.checkUnique(ctx, user.Email, user.Username); err != nil {
		return err
	}

	user.Active = true
	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	token := uuid.New().String()
	if err := s.tokenStore.StorePasswordToken(ctx, user.Email, token, auth.PasswordCreateTokenTTL); err != nil {
		return fmt.Errorf("store password token: %w", err)
	}
	if err := s.mailer.SendPasswordCreationLink(user.Email, user.Username, token); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMailDelivery, err)
	}
	return nil
}

// SetPassword consumes a password-creation token, hashes the password and
// activates the account.
func (s *userService) SetPassword(ctx context.Context, email, token, password string) error {
	return s.applyPassword(ctx, email, token, password)
}

// RequestPasswordReset issues a short-lived reset token and emails the link.
func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.findUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	token := uuid.New().String()
	if err := s.tokenStore.StorePasswordToken(ctx, user.Email, token, auth.PasswordResetTokenTTL); err != nil {
		return fmt.Errorf("store password token: %w", err)
	}
	if err := s.mailer.SendPasswordResetLink(user.Email, user.Username, token); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMailDelivery, err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *userService) ResetPassword(ctx context.Context, email, token, password string) error {
	return s.applyPassword(ctx, email, token, password)
}

// applyPassword validates and consumes a password token, then stores the
// bcrypt hash and activates the account.
func (s *userService) applyPassword(ctx context.Context, email, token, password string) error {
	email = strings.TrimSpace(email)

	valid, err := s.tokenStore.ValidatePasswordToken(ctx, email, token)
	if err != nil || !valid {
		return apperrors.ErrTokenInvalid
	}

	user, err := s.findUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hashed)
	user.Active = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	_ = s.tokenStore.ConsumePasswordToken(ctx, email, token)
	return nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return s.findUserByID(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) checkUnique(ctx context.Context, email, username string) error {
	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		return apperrors.ErrDuplicateUser
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check email: %w", err)
	}
	if existing, err := s.userRepo.FindByUsername(ctx, username); err == nil && existing != nil {
		return apperrors.ErrDuplicateUser
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check username: %w", err)
	}
	return nil
}

func (s *userService) findUserByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) findUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
