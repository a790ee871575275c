package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioConfig holds the account used to text and call the on-call contact.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	From        string // caller id / sender number, digits
	CountryCode string // prefixed to 10-digit numbers, default "1"
	Voice       bool   // place a voice call after the SMS
}

type twilioAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
}

// Twilio sends an SMS and, optionally, rings the phone reading the message.
type Twilio struct {
	api  twilioAPI
	from string
	cc   string
	call bool
}

func NewTwilio(cfg TwilioConfig) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("twilio: account sid and auth token required")
	}
	if cfg.From == "" {
		return nil, errors.New("twilio: sender number required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	cc := cfg.CountryCode
	if cc == "" {
		cc = "1"
	}
	return &Twilio{api: client.Api, from: E164(cfg.From, cc), cc: cc, call: cfg.Voice}, nil
}

// Page does not retry; the next cron run is the retry.
func (t *Twilio) Page(ctx context.Context, phone, message string) error {
	to := E164(phone, t.cc)

	sms := &twilioApi.CreateMessageParams{}
	sms.SetTo(to)
	sms.SetFrom(t.from)
	sms.SetBody(message)
	if _, err := t.api.CreateMessage(sms); err != nil {
		return fmt.Errorf("twilio sms to %s: %w", to, err)
	}
	if !t.call {
		return nil
	}

	call := &twilioApi.CreateCallParams{}
	call.SetTo(to)
	call.SetFrom(t.from)
	call.SetTwiml(VoiceTwiML(message))
	if _, err := t.api.CreateCall(call); err != nil {
		return fmt.Errorf("twilio call to %s: %w", to, err)
	}
	return nil
}

// E164 formats a digits-only number. Ten-digit numbers get the country code.
func E164(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 {
		digits = countryCode + digits
	}
	return "+" + digits
}

// VoiceTwiML reads the message twice so it survives a sleepy pickup.
func VoiceTwiML(message string) string {
	say := "<Say>" + html.EscapeString(message) + "</Say>"
	return "<Response>" + say + `<Pause length="1"/>` + say + "</Response>"
}
