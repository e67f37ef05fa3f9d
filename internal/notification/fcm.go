package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMService delivers review-result pushes to registered participant
// devices via Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService reads credentials from the FCM_SERVICE_ACCOUNT_JSON
// environment variable (base64 encoded service account) and falls back to a
// local key file.
func NewFCMService(localFilePath string) (*FCMService, error) {
	var opt option.ClientOption

	if encoded := os.Getenv("FCM_SERVICE_ACCOUNT_JSON"); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FCM_SERVICE_ACCOUNT_JSON: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
	} else {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("firebase key file %s not found and FCM_SERVICE_ACCOUNT_JSON is not set", localFilePath)
		}
		opt = option.WithCredentialsFile(localFilePath)
	}

	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// SendPush sends one message per token. Individual failures are logged and
// only an all-failed batch is reported as an error; the caller never retries.
func (s *FCMService) SendPush(ctx context.Context, tokens []DeviceToken, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	sent, failed := 0, 0
	for _, t := range tokens {
		msg := &messaging.Message{
			Token: t.Token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		}
		if t.Platform == "android" {
			msg.Android = &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Sound: "default",
				},
			}
		}

		if _, err := s.client.Send(ctx, msg); err != nil {
			log.Printf("fcm: send to token failed: %v", err)
			failed++
		} else {
			sent++
		}
	}

	if sent == 0 && failed > 0 {
		return fmt.Errorf("all %d push notifications failed", failed)
	}
	return nil
}
