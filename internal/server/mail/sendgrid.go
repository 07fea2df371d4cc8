package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendgridMailer delivers through the SendGrid v3 API.
type SendgridMailer struct {
	client      *sendgrid.Client
	fromName    string
	fromAddress string
}

// NewSendgridMailer builds a mailer with the given API key and sender.
func NewSendgridMailer(apiKey, fromName, fromAddress string) *SendgridMailer {
	return &SendgridMailer{
		client:      sendgrid.NewSendClient(apiKey),
		fromName:    fromName,
		fromAddress: fromAddress,
	}
}

func (m *SendgridMailer) send(ctx context.Context, email, name, subject, body string) error {
	from := sgmail.NewEmail(m.fromName, m.fromAddress)
	to := sgmail.NewEmail(name, email)
	msg := sgmail.NewSingleEmail(from, subject, to, body, "")

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome greets a freshly registered user.
func (m *SendgridMailer) SendWelcome(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app.", name)
	return m.send(ctx, email, name, "Thanks for joining in!", body)
}

// SendCancellation says goodbye after account deletion.
func (m *SendgridMailer) SendCancellation(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Goodbye, %s. I hope to see you back sometime soon.", name)
	return m.send(ctx, email, name, "Sorry to see you go!", body)
}
