// internal/models/notification.go
package models

// EventType tags a push notification. The tag travels in the data map as
// "type" so the mobile client can route it.
type EventType string

const (
	EventNewApplication      EventType = "new_application"
	EventNewRequest          EventType = "new_request"
	EventApplicationAccepted EventType = "application_accepted"
	EventApplicationRejected EventType = "application_rejected"
	EventRequestAccepted     EventType = "request_accepted"
	EventRequestRejected     EventType = "request_rejected"
	EventDateProposed        EventType = "date_proposed"
	EventDateAccepted        EventType = "date_accepted"
	EventPickupReminder      EventType = "pickup_reminder"
	EventExpiringItems       EventType = "expiring_items"
)

// EventTypes lists every known tag.
var EventTypes = []EventType{
	EventNewApplication,
	EventNewRequest,
	EventApplicationAccepted,
	EventApplicationRejected,
	EventRequestAccepted,
	EventRequestRejected,
	EventDateProposed,
	EventDateAccepted,
	EventPickupReminder,
	EventExpiringItems,
}

func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AdminEvent reports whether the event targets every admin rather than a
// single user.
func (t EventType) AdminEvent() bool {
	switch t {
	case EventNewApplication, EventNewRequest, EventDateAccepted, EventExpiringItems:
		return true
	}
	return false
}

type AndroidHints struct {
	Priority  string `json:"priority"`
	ChannelID string `json:"channelId"`
	Sound     string `json:"sound"`
}

type APNSHints struct {
	Sound string `json:"sound"`
	Badge int    `json:"badge"`
}

// NotificationEvent is a fully built push message, not yet addressed.
type NotificationEvent struct {
	Type    EventType         `json:"type"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data"`
	Android AndroidHints      `json:"android"`
	APNS    APNSHints         `json:"apns"`
}

// DispatchResult is the outcome of one send attempt to one recipient.
type DispatchResult struct {
	RecipientID  string `json:"recipientId"`
	Token        string `json:"-"`
	Success      bool   `json:"success"`
	MessageID    string `json:"messageId,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}
