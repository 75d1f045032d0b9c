package service

import (
	"context"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers mail over plain SMTP, used for self-hosted
// deployments without a Brevo account.
type SMTPMailer struct {
	dialer *gomail.Dialer
	sender string
}

func NewSMTPMailer() *SMTPMailer {
	sender := viper.GetString("mail.smtp.sender")

	return &SMTPMailer{
		dialer: gomail.NewDialer(
			viper.GetString("mail.smtp.host"),
			viper.GetInt("mail.smtp.port"),
			sender,
			viper.GetString("mail.smtp.password"),
		),
		sender: sender,
	}
}

func (s *SMTPMailer) Send(ctx context.Context, m *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.sender)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.HTML)

	if m.Text != "" {
		msg.AddAlternative("text/plain", m.Text)
	}

	return s.dialer.DialAndSend(msg)
}
