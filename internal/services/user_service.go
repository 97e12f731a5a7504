package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/auth"
	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/repository"
)

// RegisterInput is a complete sign-up request.
type RegisterInput struct {
	Name        string              `json:"name" validate:"required"`
	Email       string              `json:"email" validate:"required,email"`
	Phone       string              `json:"phone,omitempty"`
	Password    string              `json:"password" validate:"required,min=6"`
	Role        models.Role         `json:"role" validate:"required,oneof=tenant owner"`
	StudentInfo *models.StudentInfo `json:"student_info,omitempty" validate:"omitempty"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// IUserService defines the account operations.
type IUserService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.User, error)
}

type userService struct {
	users     repository.UserRepository
	jwtSecret string
	jwtTTL    time.Duration
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewUserService(users repository.UserRepository, jwtSecret string, jwtTTL time.Duration, log logrus.FieldLogger) IUserService {
	return &userService{
		users:     users,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		log:       log.WithField("service", "user"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.StudentInfo != nil && input.Role != models.RoleTenant {
		return nil, models.Validation("student_info only applies to tenants")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
		Role:         input.Role,
		Profile:      models.Profile{Name: input.Name, StudentInfo: input.StudentInfo},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeErr(err, "failed to create user")
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return s.issue(user)
}

func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, models.Validation("email and password are required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, models.Unauthenticated("invalid email or password")
		}
		return nil, storeErr(err, "failed to load user")
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, models.Unauthenticated("invalid email or password")
	}
	if !user.IsActive {
		return nil, models.Forbidden("account %s is deactivated", user.Email)
	}
	return s.issue(user)
}

func (s *userService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateJWT(user.ID, user.Role, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: s.now().Add(s.jwtTTL)}, nil
}

func (s *userService) FindByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, models.Unauthenticated("not logged in")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "failed to load user")
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.User, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, models.Validation("name must not be empty")
		}
		user.Profile.Name = name
	}
	if patch.Photo != nil {
		user.Profile.Photo = *patch.Photo
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.StudentInfo != nil {
		if user.Role != models.RoleTenant {
			return nil, models.Validation("student_info only applies to tenants")
		}
		if err := validateStruct(patch.StudentInfo); err != nil {
			return nil, err
		}
		info := *patch.StudentInfo
		user.Profile.StudentInfo = &info
	}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeErr(err, "failed to update user")
	}
	return user, nil
}
