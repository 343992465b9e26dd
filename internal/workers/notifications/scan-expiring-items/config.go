// internal/workers/notifications/scan-expiring-items/config.go
package scanexpiringitems

import "time"

type Config struct {
	Timeout time.Duration
}
