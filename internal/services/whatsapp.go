package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/sawtna-yabni/community-backend/internal/models"
)

// Gateway delivers codes and announcements to users over an out-of-band
// channel. The OTP and notification flows treat it as opaque and
// possibly failing; IsConnected is checked before any issuance.
type Gateway interface {
	IsConnected() bool
	SendOTP(phone, code string) error
	SendSessionInvite(phone, name string, session *models.DiscussionSession) error
}

// TwilioService sends WhatsApp messages via Twilio
type TwilioService struct {
	client *twilio.RestClient
	from   string // Format: "whatsapp:+14155238886"
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService() (*TwilioService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		client: client,
		from:   from,
	}, nil
}

// IsConnected reports whether the service holds a usable client
func (t *TwilioService) IsConnected() bool {
	return t.client != nil
}

// SendOTP delivers a verification code over WhatsApp
func (t *TwilioService) SendOTP(phone, code string) error {
	message := fmt.Sprintf(
		"Hello! 👋\n\nYour verification code is: *%s*\n\nThe code is valid for 10 minutes.\n\n⚠️ Never share this code with anyone.",
		code,
	)
	return t.sendMessage(phone, message)
}

// SendSessionInvite announces a new discussion session to a user
func (t *TwilioService) SendSessionInvite(phone, name string, session *models.DiscussionSession) error {
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	message := fmt.Sprintf(
		"Hello %s! 👋\n\n🎯 You are invited to a new discussion session:\n\n📌 *%s*\n\n📅 %s\n",
		name,
		session.Title,
		session.DateTime.Format("Monday, 2 January 2006 at 15:04"),
	)
	if session.Description != "" {
		message += fmt.Sprintf("\n📝 %s\n", session.Description)
	}
	message += fmt.Sprintf("\n🔗 Details and registration:\n%s/discussions\n\n💎 We would love to see you there!", frontendURL)

	return t.sendMessage(phone, message)
}

func (t *TwilioService) sendMessage(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}

	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, *resp.ErrorMessage)
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}
