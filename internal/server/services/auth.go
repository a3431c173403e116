// Package services holds the server-side business logic: account management
// keyed by PIN digests and the sync exchange itself.
package services

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"github.com/dmitrijs2005/gtdkeeper/internal/common"
	"github.com/dmitrijs2005/gtdkeeper/internal/cryptox"
	"github.com/dmitrijs2005/gtdkeeper/internal/logging"
	"github.com/dmitrijs2005/gtdkeeper/internal/server/models"
	"github.com/dmitrijs2005/gtdkeeper/internal/server/repositories/users"
)

var (
	ErrPinTaken     = errors.New("pin already registered")
	ErrBadPinFormat = errors.New("pin must be 4 to 8 digits")
)

// AuthService resolves PINs to accounts. The PIN is never stored; accounts
// are looked up by a deterministic argon2id digest of the PIN and a
// server-wide salt, so the digest column can carry a unique index.
type AuthService struct {
	users users.Repository
	salt  []byte
	log   logging.Logger
}

func NewAuthService(repo users.Repository, salt string, log logging.Logger) *AuthService {
	return &AuthService{users: repo, salt: []byte(salt), log: log}
}

func (s *AuthService) digest(pin string) string {
	return cryptox.PinDigest(pin, s.salt)
}

func validPin(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Register creates a new account for pin. The PIN must be free: two users
// cannot share one, since the PIN is the whole identity.
func (s *AuthService) Register(ctx context.Context, pin string) (*models.User, error) {
	if !validPin(pin) {
		return nil, ErrBadPinFormat
	}
	digest := s.digest(pin)

	_, err := s.users.GetByPinDigest(ctx, digest)
	if err == nil {
		return nil, ErrPinTaken
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("looking up pin: %w", err)
	}

	user, err := s.users.Create(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	s.log.Info(ctx, "account registered", "user_id", user.ID)
	return user, nil
}

// Verify reports whether pin belongs to an existing account.
func (s *AuthService) Verify(ctx context.Context, pin string) (*models.User, bool, error) {
	if !validPin(pin) {
		return nil, false, nil
	}
	user, err := s.users.GetByPinDigest(ctx, s.digest(pin))
	if errors.Is(err, common.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Resolve maps pin to a user id for request authentication. Unknown PINs
// come back as common.ErrUnauthorized.
func (s *AuthService) Resolve(ctx context.Context, pin string) (int64, error) {
	if !validPin(pin) {
		return 0, common.ErrUnauthorized
	}
	user, err := s.users.GetByPinDigest(ctx, s.digest(pin))
	if errors.Is(err, common.ErrNotFound) {
		return 0, common.ErrUnauthorized
	}
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
