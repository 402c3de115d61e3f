package identity

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

// TokenVerifier turns a federated sign-in token into an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*models.Identity, error)
}

// idTokenVerifier is the part of *firebaseauth.Client used here.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

var _ TokenVerifier = (*FirebaseVerifier)(nil)

// FirebaseVerifier accepts Firebase ID tokens, such as the ones issued by a
// Google popup sign-in.
type FirebaseVerifier struct {
	client idTokenVerifier
	logger *zap.Logger
}

// ConnectFirebase initialises the Admin SDK for projectID. An empty
// credentialsFile falls back to application default credentials.
func ConnectFirebase(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase auth: %w", err)
	}

	return NewFirebaseVerifier(client, logger), nil
}

func NewFirebaseVerifier(client idTokenVerifier, logger *zap.Logger) *FirebaseVerifier {
	return &FirebaseVerifier{
		client: client,
		logger: logger,
	}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*models.Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		v.logger.Warn("Rejected identity token", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrInvalidToken)
	}

	identity := &models.Identity{UID: uid, Provider: enum.IdentityProviderFederated}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = strings.TrimSpace(email)
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.DisplayName = strings.TrimSpace(name)
	}
	return identity, nil
}
