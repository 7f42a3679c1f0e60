package service

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

// messagingClient is the subset of *messaging.Client used for pushes.
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPushSender delivers pushes through Firebase Cloud Messaging.
type FCMPushSender struct {
	client messagingClient
}

// NewFCMPushSender wraps a Firebase messaging client.
func NewFCMPushSender(client *messaging.Client) *FCMPushSender {
	return &FCMPushSender{client: client}
}

// Send pushes a notification to one device token.
func (s *FCMPushSender) Send(ctx context.Context, token, title, body string) error {
	_, err := s.client.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
	})
	return err
}
