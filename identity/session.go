// Package identity tracks who is signed in on this device and verifies
// password and federated credentials.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
	"goflare.io/storefront/storage"
)

const sessionKey = "session"

// Listener observes sign-in and sign-out. It receives nil on sign-out.
type Listener func(identity *models.Identity)

// Session holds the current identity and persists it across restarts.
type Session struct {
	storage   storage.Storage
	passwords Authenticator
	tokens    TokenVerifier
	logger    *zap.Logger

	mu        sync.RWMutex
	current   *models.Identity
	nextID    int
	listeners map[int]Listener
}

// NewSession wires the providers; either may be nil when that sign-in method
// is not offered.
func NewSession(storage storage.Storage, passwords Authenticator, tokens TokenVerifier, logger *zap.Logger) *Session {
	return &Session{
		storage:   storage,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// Restore loads the persisted identity, if any.
func (s *Session) Restore(ctx context.Context) *models.Identity {
	raw, found, err := s.storage.Get(ctx, sessionKey)
	if err != nil {
		s.logger.Warn("Failed to read session", zap.Error(err))
		return nil
	}
	if !found || raw == "" {
		return nil
	}

	var identity models.Identity
	if err = sonic.UnmarshalString(raw, &identity); err != nil || identity.UID == "" {
		s.logger.Warn("Discarding unreadable session", zap.Error(err))
		return nil
	}

	s.set(&identity)
	return &identity
}

func (s *Session) SignInWithPassword(ctx context.Context, email, password string) (*models.Identity, error) {
	if s.passwords == nil {
		return nil, fmt.Errorf("%w: password", ErrNoProvider)
	}

	identity, err := s.passwords.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return identity, s.signIn(ctx, identity)
}

func (s *Session) SignInWithToken(ctx context.Context, idToken string) (*models.Identity, error) {
	if s.tokens == nil {
		return nil, fmt.Errorf("%w: federated", ErrNoProvider)
	}

	identity, err := s.tokens.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return identity, s.signIn(ctx, identity)
}

func (s *Session) SignOut(ctx context.Context) error {
	if err := s.storage.Remove(ctx, sessionKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.set(nil)
	return nil
}

// UpdateProfile renames the signed-in user. Password accounts also get their
// stored user document updated; federated names live in the session only.
func (s *Session) UpdateProfile(ctx context.Context, displayName string) (*models.Identity, error) {
	identity := s.Current()
	if identity == nil {
		return nil, ErrNotSignedIn
	}
	identity.DisplayName = strings.TrimSpace(displayName)

	if updater, ok := s.passwords.(ProfileUpdater); ok && identity.Provider == enum.IdentityProviderPassword {
		if err := updater.UpdateDisplayName(ctx, identity.UID, identity.DisplayName); err != nil {
			return nil, err
		}
	}
	if err := s.persist(ctx, identity); err != nil {
		return nil, err
	}
	s.logger.Info("Profile updated", zap.String("uid", identity.UID))
	return identity, nil
}

// Current returns the signed-in identity or nil.
func (s *Session) Current() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	identity := *s.current
	return &identity
}

// OnChange registers fn and returns a func that removes it.
func (s *Session) OnChange(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) signIn(ctx context.Context, identity *models.Identity) error {
	if err := s.persist(ctx, identity); err != nil {
		return err
	}
	s.logger.Info("Signed in", zap.String("uid", identity.UID), zap.String("provider", string(identity.Provider)))
	return nil
}

func (s *Session) persist(ctx context.Context, identity *models.Identity) error {
	raw, err := sonic.MarshalString(identity)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err = s.storage.Set(ctx, sessionKey, raw); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.set(identity)
	return nil
}

func (s *Session) set(identity *models.Identity) {
	s.mu.Lock()
	s.current = identity
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		if identity == nil {
			l(nil)
			continue
		}
		copied := *identity
		l(&copied)
	}
}
