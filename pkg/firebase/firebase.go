// Package firebase sets up the optional Firebase ID token verification.
package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and its auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// Init returns the Firebase app for the service account at credentialsPath. An empty path
// disables Firebase and returns a nil App.
func Init(ctx context.Context, credentialsPath string, logger *zap.Logger) (*App, error) {
	if credentialsPath == "" {
		logger.Info("firebase disabled, only local tokens are accepted")
		return nil, nil
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials: %w", err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting firebase auth client: %w", err)
	}
	logger.Info("firebase auth enabled")
	return &App{FirebaseApp: app, AuthClient: authClient}, nil
}
