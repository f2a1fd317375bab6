// Package sender реализует сервис рассылки писем о новых квотах.
// Сервис потребляет сообщения из очереди уведомлений и отправляет
// каждому участнику письмо с суммой и графиком надбавок.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clubops/club-billing/internal/lib/sl"
	smtplib "github.com/clubops/club-billing/internal/lib/smtp"
	"github.com/clubops/club-billing/internal/models"
)

// SenderService отправляет письма через SMTP-транспорт.
type SenderService struct {
	transport smtplib.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtplib.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendShareCreatedEmail обрабатывает одно сообщение очереди о новой
// квоте: разбирает JSON и отправляет участнику письмо.
func (s *SenderService) SendShareCreatedEmail(body []byte) error {
	var message models.ShareCreatedInfo
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := fmt.Sprintf("Клубный взнос за %s", message.PeriodDate.Format("01-2006"))
	bodyText := fmt.Sprintf(`Здравствуйте, %s!

Вам выставлен клубный взнос за %s на сумму %d.

До 10-го числа включительно действует базовая сумма.
С 11-го по 20-е число сумма увеличивается на 10%%.
С 21-го числа сумма увеличивается на 20%%.

Пожалуйста, оплатите взнос до конца льготного периода.`,
		message.MemberName, message.PeriodDate.Format("01-2006"), message.Amount)

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
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
