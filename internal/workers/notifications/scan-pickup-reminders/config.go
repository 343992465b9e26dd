// internal/workers/notifications/scan-pickup-reminders/config.go
package scanpickupreminders

import "time"

type Config struct {
	Timeout time.Duration
}
