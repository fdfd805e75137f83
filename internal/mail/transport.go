package mail

import "context"

// Transport sends one fully-rendered email and returns the provider's
// message id. A non-nil error means the message was not accepted.
type Transport interface {
	Send(ctx context.Context, toEmail, toName, subject, body string) (string, error)
}
