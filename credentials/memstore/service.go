// Package memstore is an in-process credential service: a shared account
// registry (Service) plus per-browser clients that implement credentials.Store.
// It backs local development and tests.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-portal/credentials"
	"github.com/jrsteele09/go-hr-portal/token"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/pkg/errors"
)

type account struct {
	id           string
	email        string
	passwordHash string
	metadata     map[string]string
	createdAt    time.Time
}

// Service holds accounts and issues session tokens. It is safe for concurrent use.
type Service struct {
	mu       sync.RWMutex
	accounts map[string]*account // lower-cased email -> account
	byID     map[string]*account
	revoked  map[string]struct{} // access tokens invalidated by sign-out
	issuer   *token.Issuer
	nowTime  func() time.Time
}

// ServiceOption customises a Service
type ServiceOption func(*Service)

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(issuer *token.Issuer, options ...ServiceOption) *Service {
	s := &Service{
		accounts: make(map[string]*account),
		byID:     make(map[string]*account),
		revoked:  make(map[string]struct{}),
		issuer:   issuer,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a credential record
func (s *Service) Register(ctx context.Context, email, password string, metadata map[string]string) (*credentials.User, error) {
	if err := users.ValidatePasswordStrength(password); err != nil {
		return nil, errors.Wrap(credentials.ErrWeakPassword, err.Error())
	}
	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] hash password")
	}

	key := normaliseEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[key]; exists {
		return nil, credentials.ErrEmailTaken
	}
	acc := &account{
		id:           uuid.New().String(),
		email:        key,
		passwordHash: hash,
		metadata:     copyMetadata(metadata),
		createdAt:    s.nowTime(),
	}
	s.accounts[key] = acc
	s.byID[acc.id] = acc

	return &credentials.User{ID: acc.id, Email: acc.email, Metadata: copyMetadata(acc.metadata)}, nil
}

// Authenticate checks a password and issues a new session
func (s *Service) Authenticate(ctx context.Context, email, password string) (*credentials.Session, error) {
	s.mu.RLock()
	acc, ok := s.accounts[normaliseEmail(email)]
	s.mu.RUnlock()

	if !ok || !users.CheckPasswordHash(password, acc.passwordHash) {
		return nil, credentials.ErrInvalidCredentials
	}
	return s.issue(acc)
}

// Refresh exchanges a still valid access token for a new one
func (s *Service) Refresh(ctx context.Context, session *credentials.Session) (*credentials.Session, error) {
	claims, err := s.Validate(ctx, session.AccessToken)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	acc, ok := s.byID[claims.Subject]
	s.revoked[session.AccessToken] = struct{}{}
	s.mu.Unlock()
	if !ok {
		return nil, credentials.ErrNoSession
	}
	return s.issue(acc)
}

// Validate verifies an access token that has not been revoked
func (s *Service) Validate(ctx context.Context, accessToken string) (*token.Claims, error) {
	s.mu.RLock()
	_, revoked := s.revoked[accessToken]
	s.mu.RUnlock()
	if revoked {
		return nil, credentials.ErrNoSession
	}
	claims, err := s.issuer.Verify(accessToken)
	if err != nil {
		return nil, errors.Wrap(credentials.ErrNoSession, err.Error())
	}
	return claims, nil
}

// Revoke invalidates an access token
func (s *Service) Revoke(ctx context.Context, accessToken string) {
	s.mu.Lock()
	s.revoked[accessToken] = struct{}{}
	s.mu.Unlock()
}

// ChangePassword replaces the password of the account owning accessToken
func (s *Service) ChangePassword(ctx context.Context, accessToken, newPassword string) error {
	claims, err := s.Validate(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return errors.Wrap(credentials.ErrWeakPassword, err.Error())
	}
	hash, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byID[claims.Subject]
	if !ok {
		return credentials.ErrNoSession
	}
	acc.passwordHash = hash
	return nil
}

func (s *Service) issue(acc *account) (*credentials.Session, error) {
	accessToken, expiresAt, err := s.issuer.Mint(acc.id, acc.email)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.issue]")
	}
	return &credentials.Session{
		UserID:       acc.id,
		Email:        acc.email,
		AccessToken:  accessToken,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    expiresAt,
	}, nil
}

func copyMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
