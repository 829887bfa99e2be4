package firebase

import (
	"context"
	"fmt"

	"clan-rental-backend/internal/logger"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

type authClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Credentials creates and verifies Firebase Auth users. The password never
// reaches our database.
type Credentials struct {
	client authClient
}

func NewCredentials(ctx context.Context, app *fb.App) (*Credentials, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
	}
	return &Credentials{client: client}, nil
}

func (c *Credentials) CreateCredential(ctx context.Context, email, password string) (string, string, error) {
	logger.ExternalServiceCall("firebase-auth", "create_user")
	rec, err := c.client.CreateUser(ctx, (&auth.UserToCreate{}).Email(email).Password(password))
	logger.ExternalServiceResult("firebase-auth", "create_user", err)
	if err != nil {
		return "", "", err
	}
	return rec.UID, "", nil
}

func (c *Credentials) DeleteCredential(ctx context.Context, uid string) error {
	logger.ExternalServiceCall("firebase-auth", "delete_user", "uid", uid)
	err := c.client.DeleteUser(ctx, uid)
	logger.ExternalServiceResult("firebase-auth", "delete_user", err, "uid", uid)
	if auth.IsUserNotFound(err) {
		return nil
	}
	return err
}

func (c *Credentials) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	token, err := c.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	return token.UID, nil
}
