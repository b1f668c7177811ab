package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/pkg/config"
	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
)

// UpdateInput carries optional shop profile changes.
type UpdateInput struct {
	Name          *string
	Address       *string
	TaxID         *string
	VATRegistered *bool
}

// Service manages the shop profile singleton.
type Service interface {
	Get(ctx context.Context) (*models.ShopProfile, error)
	Update(ctx context.Context, input UpdateInput) (*models.ShopProfile, error)
}

type service struct {
	db       *gorm.DB
	defaults config.ShopConfig
}

// NewService constructs the settings service.
func NewService(db *gorm.DB, defaults config.ShopConfig) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection required")
	}
	return &service{db: db, defaults: defaults}, nil
}

// Get returns the profile, creating it with configured defaults on first use.
func (s *service) Get(ctx context.Context) (*models.ShopProfile, error) {
	var profile models.ShopProfile
	err := s.db.WithContext(ctx).Order("created_at ASC").First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading shop profile")
	}

	profile = models.ShopProfile{
		Name:          s.defaults.DefaultName,
		Address:       s.defaults.DefaultAddress,
		TaxID:         s.defaults.DefaultTaxID,
		VATRegistered: true,
	}
	if profile.Name == "" {
		profile.Name = "Tindahan"
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating shop profile")
	}
	return &profile, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.ShopProfile, error) {
	profile, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name cannot be empty")
		}
		profile.Name = name
	}
	if input.Address != nil {
		profile.Address = strings.TrimSpace(*input.Address)
	}
	if input.TaxID != nil {
		profile.TaxID = strings.TrimSpace(*input.TaxID)
	}
	if input.VATRegistered != nil {
		profile.VATRegistered = *input.VATRegistered
	}

	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving shop profile")
	}
	return profile, nil
}
