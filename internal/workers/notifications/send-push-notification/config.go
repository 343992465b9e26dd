// internal/workers/notifications/send-push-notification/config.go
package sendpushnotification

import "time"

type Config struct {
	Timeout time.Duration
	// FailOnUndelivered throws NOTIFICATION_SEND_FAILED when every send failed.
	FailOnUndelivered bool
}
