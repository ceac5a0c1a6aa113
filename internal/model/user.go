package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is the application profile. Credentials live on the AuthIdentity with the same ID.
type User struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Role     Role   `gorm:"type:varchar(10);not null;default:'kasir'" json:"role"`
	IsActive bool   `gorm:"not null" json:"is_active"`
}

// AuthIdentity is the sign-in record (email + password hash), managed separately from
// the profile, the way a hosted auth service keeps its own users table.
type AuthIdentity struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	TokenVersion string    `gorm:"type:varchar(255);default:''" json:"-"` // For single session enforcement
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SetPassword hashes and sets the identity's password
func (a *AuthIdentity) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (a *AuthIdentity) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}

// UserResponse joins a profile with the identity email for listings.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse(email string) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
