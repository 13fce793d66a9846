// internal/sms/twilio_provider.go
package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/mzdss/sms-pin-auth/internal/config"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

type twilioProvider struct {
	client    *twilio.RestClient
	fromPhone string
}

func NewTwilioProvider(cfg *config.Config) Sender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &twilioProvider{
		client:    client,
		fromPhone: cfg.TwilioFromPhone,
	}
}

func (p *twilioProvider) Send(ctx context.Context, phone, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(p.fromPhone)
	params.SetBody(message)

	if _, err := p.client.Api.CreateMessage(params); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to send SMS to %s via Twilio", phone)
		return fmt.Errorf("%w: failed to send sms via twilio: %v", utils.ErrExternalServiceFailure, err)
	}
	return nil
}
