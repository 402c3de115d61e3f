package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"goflare.io/storefront/driver"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

const usersCollection = "users"

// Authenticator checks email and password credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
}

// ProfileUpdater persists profile edits for accounts this device stores.
type ProfileUpdater interface {
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
}

var (
	_ Authenticator  = (*PasswordProvider)(nil)
	_ ProfileUpdater = (*PasswordProvider)(nil)
)

type registration struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// PasswordProvider keeps email/password accounts in the users collection
// with bcrypt hashes.
type PasswordProvider struct {
	store    driver.DocumentStore
	validate *validator.Validate
	cost     int
	logger   *zap.Logger
}

func NewPasswordProvider(store driver.DocumentStore, logger *zap.Logger) *PasswordProvider {
	return &PasswordProvider{
		store:    store,
		validate: validator.New(),
		cost:     bcrypt.DefaultCost,
		logger:   logger,
	}
}

func (p *PasswordProvider) Register(ctx context.Context, email, password, displayName string) (*models.Identity, error) {
	email = normalizeEmail(email)
	if err := p.validate.Struct(registration{Email: email, Password: password}); err != nil {
		return nil, fmt.Errorf("invalid registration: %w", err)
	}

	existing, err := p.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uid, err := p.store.Insert(ctx, usersCollection, map[string]any{
		"email":        email,
		"displayName":  displayName,
		"passwordHash": string(hash),
		"createdAt":    time.Now(),
	})
	if err != nil {
		p.logger.Error("Failed to register user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	p.logger.Info("User registered", zap.String("uid", uid))
	return &models.Identity{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		Provider:    enum.IdentityProviderPassword,
	}, nil
}

func (p *PasswordProvider) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	doc, err := p.findByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrInvalidCredentials
	}

	hash, _ := doc.Data["passwordHash"].(string)
	if err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	displayName, _ := doc.Data["displayName"].(string)
	return &models.Identity{
		UID:         doc.ID,
		Email:       normalizeEmail(email),
		DisplayName: displayName,
		Provider:    enum.IdentityProviderPassword,
	}, nil
}

// UpdateDisplayName changes the display name on a stored account.
func (p *PasswordProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	if err := p.store.Update(ctx, usersCollection, uid, map[string]any{"displayName": displayName}); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (p *PasswordProvider) findByEmail(ctx context.Context, email string) (*driver.Document, error) {
	docs, err := p.store.Query(ctx, usersCollection, driver.Query{
		Filters: []driver.Filter{driver.Where("email", driver.OpEqual, email)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
