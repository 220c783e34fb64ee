package provider

import (
	"fmt"

	"voice-connector/internal/infra/logger"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioCallProvider drives call lifecycle through the Twilio REST API:
// creating outbound calls and terminating live ones.
type TwilioCallProvider struct {
	Logger *logger.Logger
	client *twilio.RestClient
	from   string
}

func NewTwilioCallProvider(logger *logger.Logger, accountSid, authToken, fromNumber string) *TwilioCallProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &TwilioCallProvider{Logger: logger, client: client, from: fromNumber}
}

// CreateCall dials an outbound call that fetches its instructions from
// twimlURL once answered. Returns the new CallSid.
func (p *TwilioCallProvider) CreateCall(to, twimlURL string) (string, error) {
	params := &openapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(p.from)
	params.SetUrl(twimlURL)

	call, err := p.client.Api.CreateCall(params)
	if err != nil {
		p.Logger.Error(fmt.Sprintf("Error initiating outbound call to %s: %v", to, err))
		return "", fmt.Errorf("failed to initiate call: %w", err)
	}
	if call.Sid == nil {
		return "", fmt.Errorf("call created without sid")
	}

	return *call.Sid, nil
}

// EndCall asks Twilio to complete the call identified by callSid.
func (p *TwilioCallProvider) EndCall(callSid string) error {
	params := &openapi.UpdateCallParams{}
	params.SetStatus("completed")

	if _, err := p.client.Api.UpdateCall(callSid, params); err != nil {
		p.Logger.Error(fmt.Sprintf("Error ending the call %s: %v", callSid, err))
		return fmt.Errorf("failed to end call %s: %w", callSid, err)
	}

	p.Logger.Info(fmt.Sprintf("Call %s has been ended successfully", callSid))
	return nil
}
