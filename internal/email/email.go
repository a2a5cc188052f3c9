package email

import (
	"context"
	"fmt"
	"html"

	"github.com/Domenick1991/tourbooking/config"
	"github.com/Domenick1991/tourbooking/internal/kafka"
	"gopkg.in/mail.v2"
)

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type Sender struct {
	from   string
	dialer dialer
}

func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{
		from:   cfg.From,
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendBookingEvent mails the booking owner about a lifecycle event.
// Events without a recipient address are skipped.
func (s *Sender) SendBookingEvent(ctx context.Context, event kafka.BookingEvent) error {
	if event.UserEmail == "" {
		return nil
	}
	subject, line := describeEvent(event)
	body := fmt.Sprintf("<p>Hello %s,</p><p>%s</p><p>Tour: %s<br>Date: %s<br>Participants: %d<br>Status: %s</p>",
		html.EscapeString(event.UserName), line, html.EscapeString(event.TourTitle),
		event.Date.Format("2 Jan 2006"), event.Participants, html.EscapeString(event.Status))
	return s.send(ctx, event.UserEmail, subject, body)
}

func (s *Sender) SendPasswordReset(ctx context.Context, to, name, code, resetURL string) error {
	body := fmt.Sprintf("<p>Hello %s,</p><p>Your password reset code is <b>%s</b>. It expires in 15 minutes.</p>",
		html.EscapeString(name), html.EscapeString(code))
	if resetURL != "" {
		body += fmt.Sprintf(`<p><a href="%s">Reset your password</a></p>`, html.EscapeString(resetURL))
	}
	return s.send(ctx, to, "Your password reset code", body)
}

func (s *Sender) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func describeEvent(event kafka.BookingEvent) (string, string) {
	switch event.Type {
	case kafka.EventBookingCreated:
		return "Booking received", "We received your booking and it is awaiting payment."
	case kafka.EventBookingStatusChanged:
		return "Booking status updated", "The status of your booking has changed."
	case kafka.EventCancellationRequested:
		return "Cancellation requested", "Your cancellation request was sent to our team."
	case kafka.EventCancellationApproved:
		return "Cancellation approved", "Your cancellation request was approved and the booking is cancelled."
	case kafka.EventCancellationRejected:
		return "Cancellation rejected", "Your cancellation request was rejected. The booking stays active."
	default:
		return "Booking updated", "Your booking was updated."
	}
}
