package identityinfra

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/identity"
)

// SESMailer delivers password-reset emails through AWS SES.
type SESMailer struct {
	client      *ses.Client
	fromAddress string
	resetURL    string
}

// NewSESMailer creates a new SES-backed reset mailer.
func NewSESMailer(client *ses.Client, fromAddress, resetURL string) identity.ResetMailer {
	return &SESMailer{
		client:      client,
		fromAddress: fromAddress,
		resetURL:    resetURL,
	}
}

// SendPasswordReset sends the reset email for an account.
func (m *SESMailer) SendPasswordReset(ctx context.Context, email string) error {
	textBody := fmt.Sprintf(
		"A password reset was requested for your account.\n\n"+
			"Open %s to choose a new password. If you did not request this, you can ignore this email.",
		m.resetURL,
	)

	input := &ses.SendEmailInput{
		Source: aws.String(m.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String("Reset your password"),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return errx.Wrap(err, "failed to send reset email", errx.TypeInternal).
			WithDetail("to", email)
	}
	return nil
}
