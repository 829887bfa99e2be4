// Package firebase adapts Firebase Auth and Cloud Messaging to the service
// layer's credential, token verification and push interfaces.
package firebase

import (
	"context"
	"fmt"

	"clan-rental-backend/internal/config"
	"clan-rental-backend/internal/logger"

	fb "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// NewApp initializes the Firebase app from config. An empty credentials file
// falls back to application default credentials.
func NewApp(ctx context.Context, cfg config.FirebaseConfig) (*fb.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	logger.ExternalServiceCall("firebase", "init", "project", cfg.ProjectID)
	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: cfg.ProjectID}, opts...)
	logger.ExternalServiceResult("firebase", "init", err, "project", cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}
	return app, nil
}
