package firebase

import (
	"context"
	"fmt"

	"clan-rental-backend/internal/logger"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// FCM allows at most 500 tokens per multicast.
const maxMulticastTokens = 500

type messagingClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type PushSender struct {
	client messagingClient
}

func NewPushSender(ctx context.Context, app *fb.App) (*PushSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase messaging client: %w", err)
	}
	return &PushSender{client: client}, nil
}

// Send delivers one notification to every token and returns the tokens FCM
// reported as unregistered.
func (p *PushSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	var invalid []string
	for start := 0; start < len(tokens); start += maxMulticastTokens {
		end := min(start+maxMulticastTokens, len(tokens))
		batch := tokens[start:end]

		logger.ExternalServiceCall("fcm", "send_multicast", "tokens", len(batch))
		resp, err := p.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: &messaging.Notification{Title: title, Body: body},
			Data:         data,
		})
		logger.ExternalServiceResult("fcm", "send_multicast", err, "tokens", len(batch))
		if err != nil {
			return invalid, err
		}

		for i, r := range resp.Responses {
			if !r.Success && messaging.IsUnregistered(r.Error) {
				invalid = append(invalid, batch[i])
			}
		}
	}
	return invalid, nil
}
