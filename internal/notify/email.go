package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

// EmailAdapter submits a plain-text summary of the event to the
// establishment inbox over SMTP.
type EmailAdapter struct {
	cfg EmailConfig
	// send is swappable for tests; defaults to smtp.SendMail
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailAdapter(cfg EmailConfig) *EmailAdapter {
	return &EmailAdapter{cfg: cfg, send: smtp.SendMail}
}

func (e *EmailAdapter) Name() string { return "email" }

func (e *EmailAdapter) Send(ctx context.Context, ev domain.OrderEvent) error {
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.Host)
	}
	msg := buildEmail(e.cfg.From, e.cfg.To, ev)
	if err := e.send(addr, auth, e.cfg.From, []string{e.cfg.To}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildEmail(from, to string, ev domain.OrderEvent) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", emailSubject(ev))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(EventText(ev))
	return []byte(b.String())
}

func emailSubject(ev domain.OrderEvent) string {
	switch ev.Type {
	case domain.EventOrderCreated:
		return fmt.Sprintf("New order %s", ev.Ticket)
	case domain.EventOrderStatusUpdated:
		return fmt.Sprintf("Order %s is now %s", ev.Ticket, ev.Status)
	}
	return fmt.Sprintf("Order %s", ev.Ticket)
}

// EventText renders the human-readable message shared by the email and
// WhatsApp channels.
func EventText(ev domain.OrderEvent) string {
	var b strings.Builder
	switch ev.Type {
	case domain.EventOrderCreated:
		fmt.Fprintf(&b, "Order %s received", ev.Ticket)
		if ev.CustomerName != "" {
			fmt.Fprintf(&b, " for %s", ev.CustomerName)
		}
		b.WriteString(".\n")
		for _, it := range ev.Items {
			fmt.Fprintf(&b, "  %dx %s\n", it.Quantity, it.Name)
		}
		fmt.Fprintf(&b, "Total: %.2f\n", ev.Total)
	case domain.EventOrderStatusUpdated:
		fmt.Fprintf(&b, "Order %s is now %s.\n", ev.Ticket, ev.Status)
	default:
		fmt.Fprintf(&b, "Order %s: %s\n", ev.Ticket, ev.Type)
	}
	return b.String()
}
