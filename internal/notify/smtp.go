package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"

	"agenda-service/internal/config"
	"agenda-service/pkg/sl"
)

// Notifier performs best-effort delivery. Failures are logged by the
// implementation and never reach the caller: a lost email must not roll back
// a booking transition.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string)
}

// BookingCreatedMessage is the template sent to the requester right after a
// booking is persisted in pending state.
func BookingCreatedMessage(labName string, date time.Time, description string) (subject, body string) {
	subject = fmt.Sprintf("Booking request received: %s", labName)
	body = fmt.Sprintf(
		"Your booking request for %s on %s has been received and is awaiting approval.\n\nActivity: %s\n",
		labName, date.Format("02/01/2006"), description,
	)
	return subject, body
}

// BookingDecidedMessage is the template sent when a lab administrator
// approves or rejects a pending booking.
func BookingDecidedMessage(labName string, date time.Time, description string, approved bool) (subject, body string) {
	decision := "approved"
	if !approved {
		decision = "rejected"
	}
	subject = fmt.Sprintf("Booking %s: %s", decision, labName)
	body = fmt.Sprintf(
		"Your booking request for %s on %s has been %s.\n\nActivity: %s\n",
		labName, date.Format("02/01/2006"), decision, description,
	)
	return subject, body
}

type SMTPNotifier struct {
	cfg config.SMTP
	log *slog.Logger
}

func NewSMTPNotifier(cfg config.SMTP, log *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, log: log}
}

func (n *SMTPNotifier) Send(_ context.Context, recipient, subject, body string) {
	const op = "notify.SMTPNotifier.Send"

	log := n.log.With(
		slog.String("op", op),
		slog.String("recipient", recipient),
		slog.String("subject", subject),
	)

	if n.cfg.Host == "" {
		log.Debug("SMTP is not configured, skipping notification")
		return
	}

	msg := email.NewEmail()
	msg.From = n.cfg.From
	msg.To = []string{recipient}
	msg.Subject = subject
	msg.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)

	if err := msg.Send(addr, auth); err != nil {
		log.Error("Failed to send notification", sl.Err(err))
		return
	}

	log.Info("Notification sent")
}
