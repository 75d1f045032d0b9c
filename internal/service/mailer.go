package service

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Message is a single transactional email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers transactional email through one of the configured
// providers.
type Mailer interface {
	Send(ctx context.Context, m *Message) error
}

// NewMailer picks the provider from mail.provider. Setup already
// validated the provider-specific settings.
func NewMailer() Mailer {
	switch viper.GetString("mail.provider") {
	case "smtp":
		return NewSMTPMailer()
	default:
		return NewBrevoMailer()
	}
}

const dispatchTimeout = 30 * time.Second

// Dispatch sends a mail in a detached goroutine. Failures are logged
// and never reach the caller: no HTTP response may depend on email
// delivery completing or succeeding.
func Dispatch(m Mailer, msg *Message, requestID string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("Mail dispatch panicked", zap.Any("panic", r), zap.String("requestID", requestID))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := m.Send(ctx, msg); err != nil {
			zap.L().Error("Failed to send email",
				zap.Error(err),
				zap.String("subject", msg.Subject),
				zap.String("requestID", requestID),
			)
			return
		}

		zap.L().Debug("Email sent", zap.String("subject", msg.Subject), zap.String("requestID", requestID))
	}()
}
