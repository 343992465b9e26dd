// internal/models/inventory.go
package models

import "time"

// RequestStatusAwaitingPickup marks a request whose pickup date is agreed.
const RequestStatusAwaitingPickup = 1

type StockItem struct {
	ID             string     `json:"id"`
	Quantity       int        `json:"quantity"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
}

// ExpiresWithin reports whether the item has stock and expires in [from, to].
func (s StockItem) ExpiresWithin(from, to time.Time) bool {
	if s.Quantity <= 0 || s.ExpirationDate == nil {
		return false
	}
	exp := *s.ExpirationDate
	return !exp.Before(from) && !exp.After(to)
}

type Request struct {
	ID                  string     `json:"id"`
	Status              int        `json:"status"`
	UserID              string     `json:"userId,omitempty"`
	ScheduledPickupDate *time.Time `json:"scheduledPickupDate,omitempty"`
}

// ScheduledWithin reports whether the request is awaiting pickup in [from, to].
func (r Request) ScheduledWithin(from, to time.Time) bool {
	if r.Status != RequestStatusAwaitingPickup || r.ScheduledPickupDate == nil {
		return false
	}
	d := *r.ScheduledPickupDate
	return !d.Before(from) && !d.After(to)
}
