// internal/workers/notifications/scan-pickup-reminders/models.go
package scanpickupreminders

type Output struct {
	RemindersSent int       `json:"remindersSent"`
	TotalPickups  int       `json:"totalPickups"`
	Skipped       []Skipped `json:"skipped,omitempty"`
	ScannedAt     string    `json:"scannedAt"` // ISO 8601
}

// Skipped lists a request that did not get a reminder and why.
type Skipped struct {
	RequestID string `json:"requestId"`
	Reason    string `json:"reason"`
	ErrorCode string `json:"errorCode,omitempty"`
}
