package service

import (
	"errors"
	"time"

	"frendo-pos/internal/model"
	"frendo-pos/internal/repository"
	"frendo-pos/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

// Session is the resolved caller of one request.
type Session struct {
	UserID       uuid.UUID          `json:"user_id"`
	Email        string             `json:"email"`
	Name         string             `json:"name"`
	Role         model.Role         `json:"role"`
	Capabilities model.Capabilities `json:"-"`
}

func (s *Session) Can(capability model.Capability) bool {
	return s != nil && s.Capabilities.Has(capability)
}

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	Logout(userID uuid.UUID) error
	ChangePassword(email, oldPassword, newPassword string) error
	ResolveSession(tokenString string) (*Session, error)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type LoginResponse struct {
	Token        string             `json:"token"`
	ExpiresAt    time.Time          `json:"expires_at"`
	User         model.UserResponse `json:"user"`
	Capabilities []model.Capability `json:"capabilities"`
}

type authService struct {
	identityRepo repository.IdentityRepository
	userRepo     repository.UserRepository
	tokens       *jwt.Manager
	log          *zap.Logger
}

func NewAuthService(identityRepo repository.IdentityRepository, userRepo repository.UserRepository, tokens *jwt.Manager, log *zap.Logger) AuthService {
	return &authService{
		identityRepo: identityRepo,
		userRepo:     userRepo,
		tokens:       tokens,
		log:          log,
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	// 1. Find identity by email
	identity, err := s.identityRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// 2. Verify password
	if !identity.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Load profile and check it is active
	user, err := s.userRepo.FindByID(identity.ID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Single Session: Generate New Token Version
	newTokenVersion := uuid.New().String()
	if err := s.identityRepo.UpdateTokenVersion(identity.ID, newTokenVersion); err != nil {
		s.log.Error("failed to rotate token version", zap.String("user_id", identity.ID.String()), zap.Error(err))
		return nil, errors.New("failed to update session")
	}

	// 5. Generate JWT token with TokenVersion
	token, err := s.tokens.GenerateToken(user.ID, identity.Email, user.Name, string(user.Role), newTokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	s.log.Info("user signed in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))

	return &LoginResponse{
		Token:        token,
		ExpiresAt:    time.Now().Add(s.tokens.TTL()),
		User:         user.ToResponse(identity.Email),
		Capabilities: model.CapabilitiesFor(user.Role).List(),
	}, nil
}

// Logout rotates the token version so every issued token stops resolving.
func (s *authService) Logout(userID uuid.UUID) error {
	return s.identityRepo.UpdateTokenVersion(userID, uuid.New().String())
}

func (s *authService) ChangePassword(email, oldPassword, newPassword string) error {
	// 1. Find identity by email
	identity, err := s.identityRepo.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}

	// 2. Verify old password
	if !identity.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}

	// 3. Set new password
	if err := identity.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}

	// 4. Update in database
	if err := s.identityRepo.UpdatePassword(identity.ID, identity.Password); err != nil {
		return err
	}

	// 5. Invalidate existing sessions
	return s.identityRepo.UpdateTokenVersion(identity.ID, uuid.New().String())
}

func (s *authService) ResolveSession(tokenString string) (*Session, error) {
	// 1. Validate JWT token
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	// 2. Check against DB for strict session (TokenVersion)
	identity, err := s.identityRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if identity.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}

	// 3. Role and active flag come from the profile, not the token
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return &Session{
		UserID:       user.ID,
		Email:        identity.Email,
		Name:         user.Name,
		Role:         user.Role,
		Capabilities: model.CapabilitiesFor(user.Role),
	}, nil
}
