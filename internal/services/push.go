package services

import (
	"context"
	"fmt"

	"aponte/internal/config"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNsPusher sends pushes through Apple's token-based APNs API
type APNsPusher struct {
	client *apns2.Client
	topic  string
}

// NewAPNsPusher creates a pusher from a .p8 signing key. It returns nil, nil
// when no key file is configured.
func NewAPNsPusher(cfg config.APNsConfig) (*APNsPusher, error) {
	if cfg.KeyFile == "" {
		return nil, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsPusher{client: client, topic: cfg.Topic}, nil
}

// Push sends alert to deviceToken with the match id attached
func (p *APNsPusher) Push(ctx context.Context, deviceToken, alert string, matchID int64) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     payload.NewPayload().Alert(alert).Sound("default").Custom("matchId", matchID),
	}

	res, err := p.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}
