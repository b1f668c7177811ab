package staff

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/pkg/db/models"
)

// Repository persists cashier accounts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, member *models.StaffMember) (*models.StaffMember, error) {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func (r *Repository) Update(ctx context.Context, member *models.StaffMember) (*models.StaffMember, error) {
	if err := r.db.WithContext(ctx).Save(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	var member models.StaffMember
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*models.StaffMember, error) {
	var member models.StaffMember
	if err := r.db.WithContext(ctx).First(&member, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *Repository) List(ctx context.Context) ([]models.StaffMember, error) {
	var members []models.StaffMember
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.StaffMember{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *Repository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StaffMember{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}
