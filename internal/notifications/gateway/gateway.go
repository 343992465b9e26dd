// Package gateway implements dispatch.Gateway for the supported push
// providers.
package gateway

import (
	"context"
	"fmt"

	awsclient "foodbank-notifier/internal/common/aws"
	"foodbank-notifier/internal/common/config"
	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/notifications/dispatch"
)

// New builds the gateway selected by cfg.Provider.
func New(ctx context.Context, cfg config.PushConfig) (dispatch.Gateway, error) {
	switch cfg.Provider {
	case "fcm":
		gw, err := NewFCMGatewayFromConfig(ctx, cfg.FCM.ProjectID, cfg.FCM.CredentialsFile)
		if err != nil {
			return nil, errors.NewGatewayUnavailableError("fcm", err)
		}
		return gw, nil
	case "sns":
		client, err := awsclient.NewSNSClient(ctx, cfg.SNS.Region, cfg.SNS.Endpoint)
		if err != nil {
			return nil, errors.NewGatewayUnavailableError("sns", err)
		}
		return NewSNSGateway(client), nil
	default:
		return nil, fmt.Errorf("unsupported push provider %q", cfg.Provider)
	}
}
