// Package sender содержит логику отправки писем подтверждения почты
// по заданиям из очереди уведомлений.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/resumia/resumia-backend/internal/lib/sl"
	"github.com/resumia/resumia-backend/internal/lib/smtp"
	"github.com/resumia/resumia-backend/internal/models"
)

// SenderService отправляет письма подтверждения почты через SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	baseURL   string
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, baseURL string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		baseURL:   baseURL,
		log:       log,
	}
}

// SendVerificationEmail отправляет письмо со ссылкой подтверждения почты.
// Ссылка действительна один час с момента регистрации.
func (s *SenderService) SendVerificationEmail(body []byte) error {
	var task models.EmailTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.log.Error("Failed to unmarshal message body", "error", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	link := s.baseURL + "/api/verify-email/" + task.Token

	to := []string{task.Email}
	subject := "Verifica tu correo - ResumIA"
	bodyText := fmt.Sprintf(`Hola, %s!

Gracias por registrarte en ResumIA. Para activar tu cuenta, haz clic en el siguiente enlace:

%s

El enlace es válido durante 1 hora. Si no creaste esta cuenta, ignora este mensaje.`,
		task.Name, link)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", "error", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("Failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
