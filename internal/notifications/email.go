package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"anchorpoint/internal/shared/config"
	"anchorpoint/pkg/logger"
)

// EmailSender delivers a rendered notification message.
type EmailSender interface {
	Send(ctx context.Context, message *EmailMessage) error
}

type smtpSender struct {
	config config.EmailConfig
	logger *logger.Logger
}

// NewEmailSender returns an SMTP sender, or a log-only sender when no SMTP
// host is configured.
func NewEmailSender(cfg *config.Config) EmailSender {
	log := logger.GetDefault()
	if cfg.Email.SMTPHost == "" {
		log.Warn("no smtp host configured, emails are log-only")
		return &logSender{logger: log}
	}
	return &smtpSender{config: cfg.Email, logger: log}
}

func (s *smtpSender) Send(ctx context.Context, message *EmailMessage) error {
	if len(message.Recipients) == 0 {
		return nil
	}

	from := s.fromHeader(message.FromName)
	body := s.buildMessage(from, message)

	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	if err := smtp.SendMail(addr, auth, s.config.FromEmail, message.Recipients, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Debug(fmt.Sprintf("email %s sent to %v", message.ID, message.Recipients))
	return nil
}

// fromHeader brands the sender with the guide service's name while keeping
// the configured envelope address.
func (s *smtpSender) fromHeader(serviceName string) string {
	if serviceName == "" {
		return s.config.FromEmail
	}
	return fmt.Sprintf("%s via Anchorpoint <%s>", serviceName, s.config.FromEmail)
}

func (s *smtpSender) buildMessage(from string, message *EmailMessage) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(message.Recipients, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", message.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(message.Body)
	return []byte(b.String())
}

type logSender struct {
	logger *logger.Logger
}

func (s *logSender) Send(ctx context.Context, message *EmailMessage) error {
	s.logger.Info(fmt.Sprintf("email (log-only) to %v subject %q", message.Recipients, message.Subject))
	return nil
}
