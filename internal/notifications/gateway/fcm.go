package gateway

import (
	"context"
	stderrors "errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/dispatch"
)

// FCMClient is the subset of *messaging.Client the gateway needs.
type FCMClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMGateway delivers notifications through Firebase Cloud Messaging.
type FCMGateway struct {
	client FCMClient
}

func NewFCMGateway(client FCMClient) *FCMGateway {
	return &FCMGateway{client: client}
}

// NewFCMGatewayFromConfig initializes a Firebase app for projectID. An empty
// credentialsFile falls back to application default credentials.
func NewFCMGatewayFromConfig(ctx context.Context, projectID, credentialsFile string) (*FCMGateway, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return NewFCMGateway(client), nil
}

func (g *FCMGateway) Send(ctx context.Context, token string, event *models.NotificationEvent) (string, error) {
	id, err := g.client.Send(ctx, FCMMessage(token, event))
	if err != nil {
		return "", &dispatch.SendError{Code: classifyFCM(err), Err: err}
	}
	return id, nil
}

// FCMMessage maps an event onto the FCM v1 message addressed to token.
func FCMMessage(token string, event *models.NotificationEvent) *messaging.Message {
	badge := event.APNS.Badge
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: event.Title,
			Body:  event.Body,
		},
		Data: event.Data,
		Android: &messaging.AndroidConfig{
			Priority: event.Android.Priority,
			Notification: &messaging.AndroidNotification{
				ChannelID: event.Android.ChannelID,
				Sound:     event.Android.Sound,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: event.APNS.Sound,
					Badge: &badge,
				},
			},
		},
	}
}

func classifyFCM(err error) string {
	switch {
	case messaging.IsUnregistered(err):
		return dispatch.CodeUnregistered
	case messaging.IsInvalidArgument(err):
		return dispatch.CodeInvalidArgument
	case messaging.IsQuotaExceeded(err):
		return dispatch.CodeQuotaExceeded
	case messaging.IsUnavailable(err), messaging.IsInternal(err):
		return dispatch.CodeUnavailable
	case stderrors.Is(err, context.DeadlineExceeded):
		return dispatch.CodeTimeout
	default:
		return dispatch.CodeUnknown
	}
}
