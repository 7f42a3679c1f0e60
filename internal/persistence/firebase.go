package persistence

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/spec-kit/restaurant-console/internal/config"
)

// Firebase holds the Admin SDK clients. A client is nil unless its feature
// was requested.
type Firebase struct {
	Auth      *auth.Client
	Firestore *firestore.Client
	Messaging *messaging.Client
}

// FirebaseFeatures selects which Admin SDK clients to build.
type FirebaseFeatures struct {
	Auth      bool
	Firestore bool
	Messaging bool
}

// NewFirebase initializes the Admin SDK. Without a credentials path it falls
// back to application default credentials.
func NewFirebase(ctx context.Context, cfg config.FirebaseConfig, features FirebaseFeatures, logger *zap.Logger) (*Firebase, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	fb := &Firebase{}
	if features.Auth {
		fb.Auth, err = app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Auth client: %w", err)
		}
	}
	if features.Firestore {
		fb.Firestore, err = app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Firestore client: %w", err)
		}
	}
	if features.Messaging {
		fb.Messaging, err = app.Messaging(ctx)
		if err != nil {
			fb.Close()
			return nil, fmt.Errorf("failed to get Messaging client: %w", err)
		}
	}

	logger.Info("firebase initialized",
		zap.String("project_id", cfg.ProjectID),
		zap.Bool("auth", features.Auth),
		zap.Bool("firestore", features.Firestore),
		zap.Bool("messaging", features.Messaging))
	return fb, nil
}

// Close releases the Firestore connection.
func (f *Firebase) Close() {
	if f != nil && f.Firestore != nil {
		_ = f.Firestore.Close()
	}
}
