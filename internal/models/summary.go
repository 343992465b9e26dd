package models

import "time"

type ExpirationSummary struct {
	ItemCount         int       `json:"itemCount"`
	NotificationsSent int       `json:"notificationsSent"`
	ScannedAt         time.Time `json:"scannedAt"`
}

type PickupSummary struct {
	RemindersSent int             `json:"remindersSent"`
	TotalPickups  int             `json:"totalPickups"`
	ScannedAt     time.Time       `json:"scannedAt"`
	Outcomes      []PickupOutcome `json:"-"`
}

// PickupOutcome records what happened to one request during a reminder scan.
type PickupOutcome struct {
	RequestID string `json:"requestId"`
	UserID    string `json:"userId,omitempty"`
	Sent      bool   `json:"sent"`
	Reason    string `json:"reason,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}

type CleanupSummary struct {
	Cleared int `json:"cleared"`
	Failed  int `json:"failed"`
}
