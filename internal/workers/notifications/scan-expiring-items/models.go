// internal/workers/notifications/scan-expiring-items/models.go
package scanexpiringitems

// Input is empty: the job is fired by a timer and the scan reads everything
// it needs from the store.
type Input struct{}

type Output struct {
	ItemCount         int    `json:"itemCount"`
	NotificationsSent int    `json:"notificationsSent"`
	ScannedAt         string `json:"scannedAt"` // ISO 8601
}
