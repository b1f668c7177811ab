package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/jmflorece/tindahan-pos/pkg/auth"
	"github.com/jmflorece/tindahan-pos/pkg/config"
	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
	"github.com/jmflorece/tindahan-pos/pkg/security"
)

const (
	minPinLength = 4
	maxPinLength = 8
)

// LoginResult is a successful register unlock.
type LoginResult struct {
	Token   string              `json:"token"`
	Cashier *models.StaffMember `json:"cashier"`
}

// CreateInput holds the payload for a new cashier account.
type CreateInput struct {
	Name string
	Code string
	Pin  string
}

type loginLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service manages cashier accounts and register unlock.
type Service interface {
	Login(ctx context.Context, code, pin string) (*LoginResult, error)
	Create(ctx context.Context, input CreateInput) (*models.StaffMember, error)
	List(ctx context.Context) ([]models.StaffMember, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.StaffMember, error)
	ChangePin(ctx context.Context, id uuid.UUID, pin string) error
}

type service struct {
	repo     *Repository
	jwtCfg   config.JWTConfig
	pinCfg   config.PinConfig
	limitCfg config.LoginRateLimitConfig
	limiter  loginLimiter
	now      func() time.Time
	logg     *logger.Logger
}

// Deps bundles the staff service collaborators.
type Deps struct {
	Repo    *Repository
	JWT     config.JWTConfig
	Pin     config.PinConfig
	Limit   config.LoginRateLimitConfig
	Limiter loginLimiter
	Now     func() time.Time
	Logger  *logger.Logger
}

// NewService constructs the staff service.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("staff repository required")
	}
	if deps.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		repo:     deps.Repo,
		jwtCfg:   deps.JWT,
		pinCfg:   deps.Pin,
		limitCfg: deps.Limit,
		limiter:  deps.Limiter,
		now:      deps.Now,
		logg:     deps.Logger,
	}, nil
}

// Login verifies the cashier code plus PIN and mints a terminal token. Wrong
// code and wrong PIN return the same error so the response does not leak
// which half failed.
func (s *service) Login(ctx context.Context, code, pin string) (*LoginResult, error) {
	code = strings.TrimSpace(code)
	if code == "" || pin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code and pin are required")
	}

	if err := s.allowAttempt(ctx, code); err != nil {
		return nil, err
	}

	member, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cashier")
	}
	if !member.IsActive {
		return nil, invalidCredentials()
	}

	ok, err := security.VerifyPin(pin, member.PinHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying pin")
	}
	if !ok {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "code", code), "failed login attempt")
		}
		return nil, invalidCredentials()
	}

	token, err := pkgauth.MintTerminalToken(s.jwtCfg, s.now(), pkgauth.TerminalTokenPayload{
		CashierID: member.ID,
		Name:      member.Name,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token")
	}

	loginAt := s.now()
	if err := s.repo.TouchLastLogin(ctx, member.ID, loginAt); err == nil {
		member.LastLoginAt = &loginAt
	}

	return &LoginResult{Token: token, Cashier: member}, nil
}

func (s *service) allowAttempt(ctx context.Context, code string) error {
	if s.limiter == nil || s.limitCfg.CashierLimit <= 0 {
		return nil
	}
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:"+code, int64(s.limitCfg.CashierLimit), s.limitCfg.Window)
	if err != nil {
		// Redis being down must not lock the register.
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.StaffMember, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.TrimSpace(input.Code)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if err := validatePin(input.Pin); err != nil {
		return nil, err
	}

	hash, err := security.HashPin(input.Pin, s.pinCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing pin")
	}

	member := &models.StaffMember{
		Name:     name,
		Code:     code,
		PinHash:  hash,
		IsActive: true,
	}
	created, err := s.repo.Create(ctx, member)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "code already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating cashier")
	}
	return created, nil
}

func (s *service) List(ctx context.Context) ([]models.StaffMember, error) {
	members, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing cashiers")
	}
	return members, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.StaffMember, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cashier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cashier")
	}
	member.IsActive = active
	updated, err := s.repo.Update(ctx, member)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating cashier")
	}
	return updated, nil
}

func (s *service) ChangePin(ctx context.Context, id uuid.UUID, pin string) error {
	if err := validatePin(pin); err != nil {
		return err
	}
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cashier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cashier")
	}

	hash, err := security.HashPin(pin, s.pinCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing pin")
	}
	member.PinHash = hash
	if _, err := s.repo.Update(ctx, member); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating cashier")
	}
	return nil
}

func validatePin(pin string) error {
	if len(pin) < minPinLength || len(pin) > maxPinLength {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("pin must be %d to %d digits", minPinLength, maxPinLength))
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return pkgerrors.New(pkgerrors.CodeValidation, "pin must be digits only")
		}
	}
	return nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid code or pin")
}
