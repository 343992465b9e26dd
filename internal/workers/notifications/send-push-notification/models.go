// internal/workers/notifications/send-push-notification/models.go
package sendpushnotification

import "foodbank-notifier/internal/notifications/message"

type Input struct {
	Type   string         `json:"type"`
	UserID string         `json:"userId,omitempty"`
	Params message.Params `json:"params"`
}

type Output struct {
	SuccessCount int  `json:"successCount"`
	FailureCount int  `json:"failureCount"`
	Delivered    bool `json:"delivered"`
}
