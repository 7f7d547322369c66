package service

import (
	"context"
	"fmt"
	"strings"

	"mindtrackserver/internal/config"
	"mindtrackserver/internal/email"
)

// VerificationMailer delivers the email-verification link after registration.
// Sending is best-effort: registration must not fail because SMTP is down,
// since the token stays valid and support can re-send the link by hand.
type VerificationMailer struct {
	SMTP config.SMTPConfig
	Send func(email.Settings, email.Message) error
}

func (m *VerificationMailer) SendVerificationEmail(ctx context.Context, toEmail, verifyURL string) error {
	if !m.SMTP.Configured() {
		return fmt.Errorf("smtp not configured")
	}
	send := m.Send
	if send == nil {
		send = email.SendSMTP
	}

	subject := "Verify your MindTrack email address"
	body := strings.Join([]string{
		"Welcome to MindTrack!",
		"",
		"Confirm your email address using this link:",
		verifyURL,
		"",
		"You cannot log in until your email is verified.",
		"If you did not sign up, you can ignore this email.",
	}, "\n")

	return send(email.Settings{
		Host:     m.SMTP.Host,
		Port:     m.SMTP.Port,
		Username: m.SMTP.Username,
		Password: m.SMTP.Password,
		TLSMode:  m.SMTP.TLSMode,
	}, email.Message{
		FromName:  m.SMTP.FromName,
		FromEmail: m.SMTP.FromEmail,
		ToEmail:   toEmail,
		Subject:   subject,
		TextBody:  body,
	})
}
