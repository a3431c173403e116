package services

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gtdkeeper/internal/common"
	"github.com/dmitrijs2005/gtdkeeper/internal/logging"
	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

var ErrBadPinFormat = errors.New("pin must be 4 to 8 digits")

// AuthAPI is the subset of the HTTP client the auth service needs.
type AuthAPI interface {
	RegisterPin(ctx context.Context, pin string) (*wire.RegisterData, error)
	VerifyPin(ctx context.Context, pin string) (*wire.VerifyData, error)
}

// AuthService manages the locally stored PIN credential. The PIN doubles as
// the account identity on the server, so storing it is what "logs in" the
// client and enables sync.
type AuthService struct {
	api    AuthAPI
	meta   metadata.Repository
	engine SyncTrigger
	log    logging.Logger
}

func NewAuthService(api AuthAPI, meta metadata.Repository, engine SyncTrigger, log logging.Logger) *AuthService {
	return &AuthService{api: api, meta: meta, engine: engine, log: log}
}

func validatePin(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return ErrBadPinFormat
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return ErrBadPinFormat
		}
	}
	return nil
}

// Register creates a new account on the server and stores the PIN locally.
func (s *AuthService) Register(ctx context.Context, pin string) error {
	if err := validatePin(pin); err != nil {
		return err
	}
	data, err := s.api.RegisterPin(ctx, pin)
	if err != nil {
		return err
	}
	if err := s.meta.Set(ctx, metadata.KeyAuthPin, []byte(pin)); err != nil {
		return fmt.Errorf("storing pin: %w", err)
	}
	s.log.Info(ctx, "registered new account", "user_id", data.UserID)
	s.engine.Trigger()
	return nil
}

// Login verifies the PIN against the server and stores it locally.
func (s *AuthService) Login(ctx context.Context, pin string) error {
	if err := validatePin(pin); err != nil {
		return err
	}
	data, err := s.api.VerifyPin(ctx, pin)
	if err != nil {
		return err
	}
	if !data.Valid {
		return common.ErrInvalidPin
	}
	if err := s.meta.Set(ctx, metadata.KeyAuthPin, []byte(pin)); err != nil {
		return fmt.Errorf("storing pin: %w", err)
	}
	s.engine.Trigger()
	return nil
}

// Logout forgets the stored PIN. Local data stays; sync simply stops until
// a new login.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.meta.Delete(ctx, metadata.KeyAuthPin)
}

// Pin returns the stored credential, or "" when none is configured.
// Satisfies api.PinFunc.
func (s *AuthService) Pin(ctx context.Context) string {
	v, err := s.meta.Get(ctx, metadata.KeyAuthPin)
	if err != nil {
		s.log.Error(ctx, "reading stored pin failed", "error", err)
		return ""
	}
	return string(v)
}
