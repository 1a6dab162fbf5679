package service

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/ravicodry/dastaavej/config"
)

// Notifier sends best-effort order confirmation emails. Delivery failure is
// never an error to the caller: the durable order record must exist even
// when the mail channel is down, so every failure collapses to false.
type Notifier struct {
	config *config.SMTPConfig
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewNotifier(cfg *config.SMTPConfig) *Notifier {
	return &Notifier{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// Configured reports whether sender credentials are present.
func (n *Notifier) Configured() bool {
	return n.config.Host != "" && n.config.From != "" && n.config.Password != ""
}

// SendConfirmation emails the customer that their document request was
// received. Returns true only when the message was accepted for delivery.
func (n *Notifier) SendConfirmation(email, name, docName string) bool {
	if !n.Configured() {
		slog.Warn("confirmation email skipped", "reason", "smtp not configured", "to", email)
		return false
	}

	from := n.config.From
	if n.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", n.config.FromName, n.config.From)
	}

	body := fmt.Sprintf(
		"Dear %s,\r\n\r\n"+
			"We have received your request for the document %q.\r\n"+
			"Our team will contact you with an update shortly.\r\n\r\n"+
			"Regards,\r\nDastaavej",
		name, docName,
	)

	msg := []byte(strings.Join([]string{
		"To: " + email,
		"From: " + from,
		"Subject: Your document request has been received",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n"))

	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)
	auth := smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)

	if err := n.send(addr, auth, n.config.From, []string{email}, msg); err != nil {
		slog.Warn("confirmation email failed", "to", email, "error", err)
		return false
	}

	slog.Info("confirmation email sent", "to", email, "doc_name", docName)
	return true
}
