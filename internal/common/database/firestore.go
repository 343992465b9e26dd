// internal/common/database/firestore.go
package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"foodbank-notifier/internal/common/config"
)

// FirestoreClient wraps the Cloud Firestore client.
type FirestoreClient struct {
	Client *firestore.Client
}

// NewFirestore connects to the project's default database. Without a
// credentials file, application default credentials are used.
func NewFirestore(ctx context.Context, cfg config.FirestoreConfig) (*FirestoreClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreClient{Client: client}, nil
}

func (c *FirestoreClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
