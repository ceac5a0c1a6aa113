package service

import (
	"errors"
	"fmt"
	"strings"

	"frendo-pos/internal/model"
	"frendo-pos/internal/repository"
	"frendo-pos/pkg/database"
	"frendo-pos/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("email already registered")

type CreateUserRequest struct {
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role" validate:"required,oneof=owner kasir"`
	IsActive *bool      `json:"is_active"`
}

// UpdateUserRequest only covers the profile; email and password stay with the identity.
type UpdateUserRequest struct {
	Name     string     `json:"name" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=owner kasir"`
	IsActive *bool      `json:"is_active"`
}

type UserService interface {
	GetAllUsers() ([]model.UserResponse, error)
	CreateUser(req *CreateUserRequest) (*model.UserResponse, error)
	UpdateUser(id uuid.UUID, req *UpdateUserRequest) (*model.UserResponse, error)
	DeleteUser(id uuid.UUID) error
}

type userService struct {
	userRepo     repository.UserRepository
	identityRepo repository.IdentityRepository
	log          *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, identityRepo repository.IdentityRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		log:          log,
	}
}

// GetAllUsers merges profiles (newest first) with identity emails
func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}
	identities, err := s.identityRepo.FindAll()
	if err != nil {
		return nil, err
	}

	emails := make(map[uuid.UUID]string, len(identities))
	for _, identity := range identities {
		emails[identity.ID] = identity.Email
	}

	responses := make([]model.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse(emails[users[i].ID]))
	}
	return responses, nil
}

func (s *userService) CreateUser(req *CreateUserRequest) (*model.UserResponse, error) {
	// 1. Validate request
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 2. Create the identity first
	identity := &model.AuthIdentity{Email: strings.ToLower(strings.TrimSpace(req.Email))}
	if err := identity.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}
	if err := s.identityRepo.Create(identity); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	// 3. Profile shares the identity id
	user := &model.User{
		Name:     req.Name,
		Role:     req.Role,
		IsActive: boolOr(req.IsActive, true),
	}
	user.ID = identity.ID
	if err := s.userRepo.Create(user); err != nil {
		// 4. Compensate: drop the orphan identity
		if delErr := s.identityRepo.Delete(identity.ID); delErr != nil {
			s.log.Warn("failed to remove identity after profile insert failed",
				zap.String("user_id", identity.ID.String()), zap.Error(delErr))
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	resp := user.ToResponse(identity.Email)
	return &resp, nil
}

func (s *userService) UpdateUser(id uuid.UUID, req *UpdateUserRequest) (*model.UserResponse, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user.Name = req.Name
	user.Role = req.Role
	user.IsActive = boolOr(req.IsActive, user.IsActive)
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	email := ""
	if identity, err := s.identityRepo.FindByID(id); err == nil {
		email = identity.Email
	}
	resp := user.ToResponse(email)
	return &resp, nil
}

// DeleteUser removes the profile, then the identity. A failed identity delete is only logged.
func (s *userService) DeleteUser(id uuid.UUID) error {
	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete profile: %w", err)
	}

	if err := s.identityRepo.Delete(id); err != nil {
		s.log.Warn("profile deleted but identity delete failed", zap.String("user_id", id.String()), zap.Error(err))
	}
	return nil
}
