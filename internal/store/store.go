// Package store reads the food-bank documents the notification pipeline
// needs: stock items, pickup requests and user records.
package store

import (
	"context"
	stderrors "errors"
	"time"

	"foodbank-notifier/internal/models"
)

// ErrNotFound is returned by GetUser when the user record does not exist.
var ErrNotFound = stderrors.New("record not found")

type InventoryStore interface {
	// ListExpiringBefore returns items with quantity > 0 and an expiration
	// date at or before threshold. Already-expired items may be included.
	ListExpiringBefore(ctx context.Context, threshold time.Time) ([]models.StockItem, error)
}

type RequestStore interface {
	// ListScheduledBetween returns requests with the given status whose
	// scheduled pickup date lies in [start, end].
	ListScheduledBetween(ctx context.Context, status int, start, end time.Time) ([]models.Request, error)
}

type UserStore interface {
	GetUser(ctx context.Context, uid string) (*models.Recipient, error)
	ListAdmins(ctx context.Context) ([]models.Recipient, error)
	// ClearPushToken removes the user's token only if it still equals token.
	// It reports whether a token was cleared.
	ClearPushToken(ctx context.Context, uid, token string) (bool, error)
}

// Store is the full document source backing the pipeline.
type Store interface {
	InventoryStore
	RequestStore
	UserStore
	Ping(ctx context.Context) error
	Close() error
}
