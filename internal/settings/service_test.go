package settings

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/pkg/config"
	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
)

func setupSettings(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:settings_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	svc, err := NewService(conn, config.ShopConfig{DefaultName: "Sari-Sari"})
	require.NoError(t, err)
	return svc, conn
}

func TestGetCreatesDefaultProfile(t *testing.T) {
	svc, conn := setupSettings(t)
	ctx := context.Background()

	profile, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sari-Sari", profile.Name)
	assert.True(t, profile.VATRegistered)

	// second call returns the same row, not another default
	again, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)

	var count int64
	require.NoError(t, conn.Model(&models.ShopProfile{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpdatePartialFields(t *testing.T) {
	svc, _ := setupSettings(t)
	ctx := context.Background()

	name := "Aling Nena's"
	taxID := "123-456-789"
	updated, err := svc.Update(ctx, UpdateInput{Name: &name, TaxID: &taxID})
	require.NoError(t, err)
	assert.Equal(t, "Aling Nena's", updated.Name)
	assert.Equal(t, "123-456-789", updated.TaxID)
	assert.True(t, updated.VATRegistered)

	registered := false
	updated, err = svc.Update(ctx, UpdateInput{VATRegistered: &registered})
	require.NoError(t, err)
	assert.False(t, updated.VATRegistered)
	assert.Equal(t, "Aling Nena's", updated.Name)
}

func TestUpdateRejectsEmptyName(t *testing.T) {
	svc, _ := setupSettings(t)

	empty := "  "
	_, err := svc.Update(context.Background(), UpdateInput{Name: &empty})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
