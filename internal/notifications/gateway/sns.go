package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/dispatch"
)

// SNSPublisher is satisfied by the shared SNS client.
type SNSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SNSGateway publishes to SNS mobile platform endpoints. The recipient token
// is the endpoint ARN.
type SNSGateway struct {
	publisher SNSPublisher
}

func NewSNSGateway(publisher SNSPublisher) *SNSGateway {
	return &SNSGateway{publisher: publisher}
}

type gcmPayload struct {
	Notification gcmNotification   `json:"notification"`
	Data         map[string]string `json:"data"`
	Android      gcmAndroid        `json:"android"`
}

type gcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type gcmAndroid struct {
	Priority     string             `json:"priority"`
	Notification gcmAndroidSettings `json:"notification"`
}

type gcmAndroidSettings struct {
	ChannelID string `json:"channelId"`
	Sound     string `json:"sound"`
}

type apnsPayload struct {
	Aps  apsBody           `json:"aps"`
	Data map[string]string `json:"data,omitempty"`
}

type apsBody struct {
	Alert gcmNotification `json:"alert"`
	Sound string          `json:"sound"`
	Badge int             `json:"badge"`
}

// SNSMessage renders the JSON message structure with default, GCM and APNS
// entries.
func SNSMessage(event *models.NotificationEvent) (string, error) {
	gcm, err := json.Marshal(gcmPayload{
		Notification: gcmNotification{Title: event.Title, Body: event.Body},
		Data:         event.Data,
		Android: gcmAndroid{
			Priority: event.Android.Priority,
			Notification: gcmAndroidSettings{
				ChannelID: event.Android.ChannelID,
				Sound:     event.Android.Sound,
			},
		},
	})
	if err != nil {
		return "", err
	}

	apns, err := json.Marshal(apnsPayload{
		Aps: apsBody{
			Alert: gcmNotification{Title: event.Title, Body: event.Body},
			Sound: event.APNS.Sound,
			Badge: event.APNS.Badge,
		},
		Data: event.Data,
	})
	if err != nil {
		return "", err
	}

	msg, err := json.Marshal(map[string]string{
		"default": event.Body,
		"GCM":     string(gcm),
		"APNS":    string(apns),
	})
	if err != nil {
		return "", err
	}
	return string(msg), nil
}

func (g *SNSGateway) Send(ctx context.Context, token string, event *models.NotificationEvent) (string, error) {
	msg, err := SNSMessage(event)
	if err != nil {
		return "", &dispatch.SendError{Code: dispatch.CodeInvalidArgument, Err: fmt.Errorf("encode message: %w", err)}
	}

	out, err := g.publisher.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(token),
		Message:          aws.String(msg),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return "", &dispatch.SendError{Code: classifySNS(err), Err: err}
	}
	return aws.ToString(out.MessageId), nil
}

func classifySNS(err error) string {
	var (
		disabled  *types.EndpointDisabledException
		notFound  *types.NotFoundException
		invalid   *types.InvalidParameterException
		throttled *types.ThrottledException
	)
	switch {
	case stderrors.As(err, &disabled), stderrors.As(err, &notFound):
		return dispatch.CodeUnregistered
	case stderrors.As(err, &invalid):
		return dispatch.CodeInvalidArgument
	case stderrors.As(err, &throttled):
		return dispatch.CodeQuotaExceeded
	case stderrors.Is(err, context.DeadlineExceeded):
		return dispatch.CodeTimeout
	default:
		return dispatch.CodeUnknown
	}
}
