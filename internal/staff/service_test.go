package staff

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgauth "github.com/jmflorece/tindahan-pos/pkg/auth"
	"github.com/jmflorece/tindahan-pos/pkg/config"
	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
)

var testJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "tindahan-test",
	ExpirationMinutes: 60,
}

// fastPin keeps argon2 cheap in tests.
var fastPin = config.PinConfig{
	ArgonMemoryKB:    1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fakeLimiter struct {
	allowed bool
	calls   int
}

func (f *fakeLimiter) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	f.calls++
	return f.allowed, int64(f.calls), nil
}

func setupStaff(t *testing.T, limiter loginLimiter) (Service, *Repository) {
	t.Helper()

	dsn := fmt.Sprintf("file:staff_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	repo := NewRepository(conn)
	svc, err := NewService(Deps{
		Repo:    repo,
		JWT:     testJWT,
		Pin:     fastPin,
		Limit:   config.LoginRateLimitConfig{Window: time.Minute, CashierLimit: 5},
		Limiter: limiter,
	})
	require.NoError(t, err)
	return svc, repo
}

func TestLoginMintsParsableToken(t *testing.T) {
	svc, _ := setupStaff(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "Nena", Code: "nena", Pin: "1234"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "nena", "1234")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.NotNil(t, result.Cashier.LastLoginAt)

	claims, err := pkgauth.ParseTerminalToken(testJWT, result.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.CashierID)
	assert.Equal(t, "Nena", claims.Name)
}

func TestLoginWrongPinAndUnknownCodeLookAlike(t *testing.T) {
	svc, _ := setupStaff(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "Nena", Code: "nena", Pin: "1234"})
	require.NoError(t, err)

	_, wrongPinErr := svc.Login(ctx, "nena", "9999")
	_, unknownErr := svc.Login(ctx, "ghost", "1234")

	require.Error(t, wrongPinErr)
	require.Error(t, unknownErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(wrongPinErr).Code())
	assert.Equal(t, wrongPinErr.Error(), unknownErr.Error())
}

func TestLoginRejectsInactiveCashier(t *testing.T) {
	svc, _ := setupStaff(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "Nena", Code: "nena", Pin: "1234"})
	require.NoError(t, err)
	_, err = svc.SetActive(ctx, created.ID, false)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nena", "1234")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLoginRateLimited(t *testing.T) {
	limiter := &fakeLimiter{allowed: false}
	svc, _ := setupStaff(t, limiter)

	_, err := svc.Login(context.Background(), "nena", "1234")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeRateLimit, pkgerrors.As(err).Code())
	assert.Equal(t, 1, limiter.calls)
}

func TestCreateValidatesPin(t *testing.T) {
	svc, _ := setupStaff(t, nil)
	ctx := context.Background()

	cases := []string{"12", "123456789", "12ab"}
	for _, pin := range cases {
		_, err := svc.Create(ctx, CreateInput{Name: "Nena", Code: "nena-" + pin, Pin: pin})
		require.Error(t, err, "pin %q", pin)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
}

func TestCreateStoresHashNotPin(t *testing.T) {
	svc, repo := setupStaff(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "Nena", Code: "nena", Pin: "1234"})
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.PinHash, "1234")
	assert.Contains(t, stored.PinHash, "$argon2id$")
}

func TestChangePinInvalidatesOldPin(t *testing.T) {
	svc, _ := setupStaff(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "Nena", Code: "nena", Pin: "1234"})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePin(ctx, created.ID, "5678"))

	_, err = svc.Login(ctx, "nena", "1234")
	require.Error(t, err)
	result, err := svc.Login(ctx, "nena", "5678")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestListOrdersByName(t *testing.T) {
	svc, _ := setupStaff(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "Zeny", Code: "zeny", Pin: "1234"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Aldo", Code: "aldo", Pin: "1234"})
	require.NoError(t, err)

	members, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Aldo", members[0].Name)
}
