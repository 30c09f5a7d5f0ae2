package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/Dan9191/bankcards/internal/config"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   sendFunc
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendTransferNotification tells the owner that money moved between two of their
// cards. Only masked card numbers appear in the message.
func (s *Sender) SendTransferNotification(to string, transfer *models.Transfer, from, dest *models.Card) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Transfer Notification"

	body := fmt.Sprintf(
		"Dear customer,\n\n"+
			"%s has been transferred from card %s to card %s.\n"+
			"Transfer time: %s\n"+
			"Balance of card %s: %s\n"+
			"Balance of card %s: %s\n",
		transfer.Amount(), from.MaskedNumber(), dest.MaskedNumber(),
		transfer.CreatedAt.UTC().Format(time.DateTime),
		from.MaskedNumber(), from.Balance(),
		dest.MaskedNumber(), dest.Balance(),
	)
	body += "\nBest regards,\nBank Cards"
	e.Text = []byte(body)

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.WithField("transfer_id", transfer.ID).Errorf("Failed to send transfer notification: %v", err)
		return fmt.Errorf("failed to send transfer notification: %w", err)
	}

	s.logger.WithField("transfer_id", transfer.ID).Infof("Email sent: %s", e.Subject)
	return nil
}
