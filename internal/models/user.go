package models

const DefaultAdminName = "Admin"

// Recipient is a user record as read by the notification pipeline.
type Recipient struct {
	UID     string `json:"uid"`
	Token   string `json:"fcmToken,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

func (r Recipient) HasToken() bool {
	return r.Token != ""
}
