package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"foodbank-notifier/internal/models"
)

// MemoryStore is an in-process Store used by the "memory" driver and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string]models.StockItem
	requests map[string]models.Request
	users    map[string]models.Recipient
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    make(map[string]models.StockItem),
		requests: make(map[string]models.Request),
		users:    make(map[string]models.Recipient),
	}
}

func (s *MemoryStore) PutItem(item models.StockItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *MemoryStore) PutRequest(req models.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
}

func (s *MemoryStore) PutUser(user models.Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UID] = user
}

func (s *MemoryStore) ListExpiringBefore(_ context.Context, threshold time.Time) ([]models.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.StockItem
	for _, item := range s.items {
		if item.Quantity > 0 && item.ExpirationDate != nil && !item.ExpirationDate.After(threshold) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *MemoryStore) ListScheduledBetween(_ context.Context, status int, start, end time.Time) ([]models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var requests []models.Request
	for _, req := range s.requests {
		if req.Status != status || req.ScheduledPickupDate == nil {
			continue
		}
		d := *req.ScheduledPickupDate
		if d.Before(start) || d.After(end) {
			continue
		}
		requests = append(requests, req)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

func (s *MemoryStore) GetUser(_ context.Context, uid string) (*models.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) ListAdmins(_ context.Context) ([]models.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var admins []models.Recipient
	for _, user := range s.users {
		if user.IsAdmin {
			admins = append(admins, user)
		}
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].UID < admins[j].UID })
	return admins, nil
}

func (s *MemoryStore) ClearPushToken(_ context.Context, uid, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[uid]
	if !ok || user.Token != token || token == "" {
		return false, nil
	}
	user.Token = ""
	s.users[uid] = user
	return true, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
