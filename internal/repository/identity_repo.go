package repository

import (
	"frendo-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentityRepository manages sign-in identities. Only trusted server code (auth and
// user management) talks to it.
type IdentityRepository interface {
	Create(identity *model.AuthIdentity) error
	FindByEmail(email string) (*model.AuthIdentity, error)
	FindByID(id uuid.UUID) (*model.AuthIdentity, error)
	FindAll() ([]model.AuthIdentity, error)
	Delete(id uuid.UUID) error
	UpdatePassword(id uuid.UUID, hashedPassword string) error
	UpdateTokenVersion(id uuid.UUID, version string) error
}

type identityRepo struct {
	db *gorm.DB
}

func NewIdentityRepo(db *gorm.DB) IdentityRepository {
	return &identityRepo{db}
}

func (r *identityRepo) Create(identity *model.AuthIdentity) error {
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	return r.db.Create(identity).Error
}

func (r *identityRepo) FindByEmail(email string) (*model.AuthIdentity, error) {
	var identity model.AuthIdentity
	if err := r.db.Where("LOWER(email) = LOWER(?)", email).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepo) FindByID(id uuid.UUID) (*model.AuthIdentity, error) {
	var identity model.AuthIdentity
	if err := r.db.First(&identity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepo) FindAll() ([]model.AuthIdentity, error) {
	var identities []model.AuthIdentity
	err := r.db.Find(&identities).Error
	return identities, err
}

func (r *identityRepo) Delete(id uuid.UUID) error {
	return deleteByID(r.db, &model.AuthIdentity{}, id)
}

func (r *identityRepo) UpdatePassword(id uuid.UUID, hashedPassword string) error {
	return r.db.Model(&model.AuthIdentity{}).Where("id = ?", id).Update("password", hashedPassword).Error
}

func (r *identityRepo) UpdateTokenVersion(id uuid.UUID, version string) error {
	return r.db.Model(&model.AuthIdentity{}).Where("id = ?", id).Update("token_version", version).Error
}
