package services

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier sends a short text alert.
type Notifier interface {
	Notify(ctx context.Context, body string) error
}

type twilioMessageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioNotifier texts a fixed number through Twilio's messaging API.
type TwilioNotifier struct {
	api  twilioMessageAPI
	from string
	to   string
}

func NewTwilioNotifier(accountSID, authToken, from, to string) (*TwilioNotifier, error) {
	if accountSID == "" || authToken == "" || from == "" || to == "" {
		return nil, fmt.Errorf("twilio notifier needs account SID, auth token, from and to numbers")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{api: client.Api, from: from, to: to}, nil
}

// Notify sends body as an SMS. The Twilio client takes no context.
func (n *TwilioNotifier) Notify(_ context.Context, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(body)

	if _, err := n.api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}
