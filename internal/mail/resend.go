package mail

import (
	"context"
	"fmt"

	"github.com/resendlabs/resend-go"
)

type ResendTransport struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

func NewResendTransport(apiKey, fromEmail, fromName string) (*ResendTransport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	client := resend.NewClient(apiKey)
	if client == nil {
		return nil, fmt.Errorf("failed to create Resend client")
	}
	return &ResendTransport{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

type sendOutcome struct {
	id  string
	err error
}

// Send delivers one email. The SDK call itself is not cancellable, so it
// runs in a goroutine and a hung call surfaces as ctx.Err() for the caller
// while the goroutine is left to finish on its own.
func (t *ResendTransport) Send(ctx context.Context, toEmail, toName, subject, body string) (string, error) {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", t.fromName, t.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    body,
	}

	done := make(chan sendOutcome, 1)
	go func() {
		res, err := t.client.Emails.Send(params)
		if err != nil {
			done <- sendOutcome{err: err}
			return
		}
		done <- sendOutcome{id: res.Id}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("send to %s: %w", toEmail, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return "", fmt.Errorf("failed to send email: %w", out.err)
		}
		return out.id, nil
	}
}

var _ Transport = (*ResendTransport)(nil)
