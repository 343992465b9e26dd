package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/models"
)

const (
	itemsCollection    = "items"
	requestsCollection = "requests"
	usersCollection    = "users"
)

type itemDoc struct {
	Quantity       int        `firestore:"quantity"`
	ExpirationDate *time.Time `firestore:"expirationDate"`
}

type requestDoc struct {
	Status              int        `firestore:"status"`
	UserID              string     `firestore:"userId"`
	ScheduledPickupDate *time.Time `firestore:"scheduledPickupDate"`
}

type userDoc struct {
	FCMToken string `firestore:"fcmToken"`
	IsAdmin  bool   `firestore:"isAdmin"`
	Name     string `firestore:"name"`
	Email    string `firestore:"email"`
}

func (d userDoc) recipient(uid string) models.Recipient {
	return models.Recipient{
		UID:     uid,
		Token:   d.FCMToken,
		IsAdmin: d.IsAdmin,
		Name:    d.Name,
		Email:   d.Email,
	}
}

// FirestoreStore reads the mobile app's Firestore collections directly.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// ListExpiringBefore queries on expirationDate only and applies the quantity
// bound in process, keeping the query to a single inequality field.
func (s *FirestoreStore) ListExpiringBefore(ctx context.Context, threshold time.Time) ([]models.StockItem, error) {
	docs, err := s.client.Collection(itemsCollection).
		Where("expirationDate", "<=", threshold).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("items.expiring", err)
	}

	items := make([]models.StockItem, 0, len(docs))
	for _, doc := range docs {
		var d itemDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, errors.NewQueryExecutionFailedError("items.expiring", err)
		}
		if d.Quantity <= 0 {
			continue
		}
		items = append(items, models.StockItem{
			ID:             doc.Ref.ID,
			Quantity:       d.Quantity,
			ExpirationDate: d.ExpirationDate,
		})
	}
	return items, nil
}

func (s *FirestoreStore) ListScheduledBetween(ctx context.Context, requestStatus int, start, end time.Time) ([]models.Request, error) {
	docs, err := s.client.Collection(requestsCollection).
		Where("status", "==", requestStatus).
		Where("scheduledPickupDate", ">=", start).
		Where("scheduledPickupDate", "<=", end).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("requests.scheduled", err)
	}

	requests := make([]models.Request, 0, len(docs))
	for _, doc := range docs {
		var d requestDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, errors.NewQueryExecutionFailedError("requests.scheduled", err)
		}
		requests = append(requests, models.Request{
			ID:                  doc.Ref.ID,
			Status:              d.Status,
			UserID:              d.UserID,
			ScheduledPickupDate: d.ScheduledPickupDate,
		})
	}
	return requests, nil
}

func (s *FirestoreStore) GetUser(ctx context.Context, uid string) (*models.Recipient, error) {
	doc, err := s.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("users.get", err)
	}

	var d userDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, errors.NewQueryExecutionFailedError("users.get", err)
	}
	r := d.recipient(doc.Ref.ID)
	return &r, nil
}

func (s *FirestoreStore) ListAdmins(ctx context.Context) ([]models.Recipient, error) {
	docs, err := s.client.Collection(usersCollection).
		Where("isAdmin", "==", true).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("users.admins", err)
	}

	admins := make([]models.Recipient, 0, len(docs))
	for _, doc := range docs {
		var d userDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, errors.NewQueryExecutionFailedError("users.admins", err)
		}
		admins = append(admins, d.recipient(doc.Ref.ID))
	}
	return admins, nil
}

// ClearPushToken deletes the fcmToken field inside a transaction so a token
// refreshed by the app in the meantime is left alone.
func (s *FirestoreStore) ClearPushToken(ctx context.Context, uid, token string) (bool, error) {
	ref := s.client.Collection(usersCollection).Doc(uid)
	cleared := false

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cleared = false
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return err
		}

		current, err := doc.DataAt("fcmToken")
		if err != nil {
			return nil
		}
		if stored, ok := current.(string); !ok || stored != token {
			return nil
		}

		cleared = true
		return tx.Update(ref, []firestore.Update{{Path: "fcmToken", Value: firestore.Delete}})
	})
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("users.clear_token", err)
	}
	return cleared, nil
}

// Ping reads a single user document to verify connectivity.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	_, err := s.client.Collection(usersCollection).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
