// internal/workers/notifications/cleanup-push-tokens/config.go
package cleanuppushtokens

import "time"

type Config struct {
	Timeout time.Duration
}
