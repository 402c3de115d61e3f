package identity

import (
	"context"
	"errors"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"goflare.io/storefront/driver"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
	"goflare.io/storefront/storage"
)

func newPasswordProvider(t *testing.T) *PasswordProvider {
	t.Helper()

	store, err := driver.ConnectClover(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	p := NewPasswordProvider(store, zap.NewNop())
	p.cost = bcrypt.MinCost
	return p
}

type stubTokenClient struct {
	tokens map[string]*firebaseauth.Token
}

func (c stubTokenClient) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	if token, ok := c.tokens[idToken]; ok {
		return token, nil
	}
	return nil, errors.New("ID token has invalid signature")
}

func TestRegisterAndAuthenticate(t *testing.T) {
	p := newPasswordProvider(t)
	ctx := context.Background()

	registered, err := p.Register(ctx, " Alice@Example.com ", "secret1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", registered.Email)
	assert.Equal(t, enum.IdentityProviderPassword, registered.Provider)

	_, err = p.Register(ctx, "alice@example.com", "another1", "")
	require.ErrorIs(t, err, ErrEmailTaken)

	got, err := p.Authenticate(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.UID, got.UID)
	assert.Equal(t, "Alice", got.DisplayName)

	_, err = p.Authenticate(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.Authenticate(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidates(t *testing.T) {
	p := newPasswordProvider(t)
	ctx := context.Background()

	_, err := p.Register(ctx, "not-an-email", "secret1", "")
	require.Error(t, err)
	_, err = p.Register(ctx, "bob@example.com", "123", "")
	require.Error(t, err)
}

func TestFirebaseVerifier(t *testing.T) {
	v := NewFirebaseVerifier(stubTokenClient{tokens: map[string]*firebaseauth.Token{
		"good": {UID: "g-1", Claims: map[string]interface{}{"email": "carol@example.com", "name": "Carol"}},
		"nouid": {Claims: map[string]interface{}{}},
	}}, zap.NewNop())
	ctx := context.Background()

	identity, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, &models.Identity{
		UID:         "g-1",
		Email:       "carol@example.com",
		DisplayName: "Carol",
		Provider:    enum.IdentityProviderFederated,
	}, identity)

	_, err = v.Verify(ctx, "forged")
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = v.Verify(ctx, "nouid")
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = v.Verify(ctx, "  ")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionLifecycle(t *testing.T) {
	p := newPasswordProvider(t)
	ctx := context.Background()
	_, err := p.Register(ctx, "dave@example.com", "secret1", "Dave")
	require.NoError(t, err)

	store := storage.NewMemory()
	session := NewSession(store, p, nil, zap.NewNop())

	var seen []*models.Identity
	unsubscribe := session.OnChange(func(identity *models.Identity) { seen = append(seen, identity) })

	assert.Nil(t, session.Current())

	identity, err := session.SignInWithPassword(ctx, "dave@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, identity, session.Current())

	// a fresh session on the same storage picks the identity back up
	restored := NewSession(store, p, nil, zap.NewNop())
	assert.Equal(t, identity, restored.Restore(ctx))
	assert.Equal(t, identity, restored.Current())

	require.NoError(t, session.SignOut(ctx))
	assert.Nil(t, session.Current())
	assert.Nil(t, NewSession(store, p, nil, zap.NewNop()).Restore(ctx))

	require.Len(t, seen, 2)
	assert.Equal(t, identity, seen[0])
	assert.Nil(t, seen[1])

	unsubscribe()
	_, err = session.SignInWithPassword(ctx, "dave@example.com", "secret1")
	require.NoError(t, err)
	assert.Len(t, seen, 2)
}

func TestSessionFailedSignInKeepsState(t *testing.T) {
	session := NewSession(storage.NewMemory(), newPasswordProvider(t), nil, zap.NewNop())

	_, err := session.SignInWithPassword(context.Background(), "eve@example.com", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, session.Current())
}

func TestSessionFederatedSignIn(t *testing.T) {
	verifier := NewFirebaseVerifier(stubTokenClient{tokens: map[string]*firebaseauth.Token{
		"tok": {UID: "g-2", Claims: map[string]interface{}{"email": "frank@example.com"}},
	}}, zap.NewNop())
	session := NewSession(storage.NewMemory(), nil, verifier, zap.NewNop())
	ctx := context.Background()

	identity, err := session.SignInWithToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "g-2", identity.UID)

	_, err = session.SignInWithPassword(ctx, "frank@example.com", "x")
	require.ErrorIs(t, err, ErrNoProvider)
}

func TestRestoreIgnoresCorruptSession(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(context.Background(), "session", "{broken"))

	session := NewSession(store, nil, nil, zap.NewNop())
	assert.Nil(t, session.Restore(context.Background()))
	assert.Nil(t, session.Current())
}

func TestUpdateProfile(t *testing.T) {
	p := newPasswordProvider(t)
	ctx := context.Background()
	_, err := p.Register(ctx, "grace@example.com", "secret1", "Grace")
	require.NoError(t, err)

	store := storage.NewMemory()
	session := NewSession(store, p, nil, zap.NewNop())

	_, err = session.UpdateProfile(ctx, "Nobody")
	require.ErrorIs(t, err, ErrNotSignedIn)

	_, err = session.SignInWithPassword(ctx, "grace@example.com", "secret1")
	require.NoError(t, err)

	var seen *models.Identity
	session.OnChange(func(identity *models.Identity) { seen = identity })

	updated, err := session.UpdateProfile(ctx, "  Grace Hopper ")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", updated.DisplayName)
	assert.Equal(t, "Grace Hopper", session.Current().DisplayName)
	require.NotNil(t, seen)
	assert.Equal(t, "Grace Hopper", seen.DisplayName)

	// the stored account and the persisted session both carry the new name
	again, err := p.Authenticate(ctx, "grace@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", again.DisplayName)
	assert.Equal(t, "Grace Hopper", NewSession(store, p, nil, zap.NewNop()).Restore(ctx).DisplayName)
}

func TestUpdateProfileFederated(t *testing.T) {
	verifier := NewFirebaseVerifier(stubTokenClient{tokens: map[string]*firebaseauth.Token{
		"tok": {UID: "g-3", Claims: map[string]interface{}{"email": "heidi@example.com"}},
	}}, zap.NewNop())
	store := storage.NewMemory()
	session := NewSession(store, newPasswordProvider(t), verifier, zap.NewNop())
	ctx := context.Background()

	_, err := session.SignInWithToken(ctx, "tok")
	require.NoError(t, err)

	updated, err := session.UpdateProfile(ctx, "Heidi")
	require.NoError(t, err)
	assert.Equal(t, "g-3", updated.UID)
	assert.Equal(t, "Heidi", NewSession(store, nil, nil, zap.NewNop()).Restore(ctx).DisplayName)
}
