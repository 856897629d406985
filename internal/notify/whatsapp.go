package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

type WhatsAppConfig struct {
	BaseURL    string // https://graph.facebook.com/v18.0/<phone_id>
	Token      string
	AdminPhone string
}

// WhatsAppAdapter posts a text message to a WhatsApp Cloud-API-shaped
// endpoint. One instance per destination role: the admin adapter always
// targets the establishment's phone, the customer adapter takes the
// destination from the event.
type WhatsAppAdapter struct {
	name   string
	cfg    WhatsAppConfig
	client *http.Client
	// phone picks the destination for a given event; empty means skip
	phone func(ev domain.OrderEvent) string
}

func NewAdminWhatsApp(cfg WhatsAppConfig) *WhatsAppAdapter {
	return &WhatsAppAdapter{
		name:   "whatsapp-admin",
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		phone:  func(domain.OrderEvent) string { return cfg.AdminPhone },
	}
}

func NewCustomerWhatsApp(cfg WhatsAppConfig) *WhatsAppAdapter {
	return &WhatsAppAdapter{
		name:   "whatsapp-customer",
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		phone:  func(ev domain.OrderEvent) string { return ev.CustomerPhone },
	}
}

func (w *WhatsAppAdapter) Name() string { return w.name }

type waTextPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (w *WhatsAppAdapter) Send(ctx context.Context, ev domain.OrderEvent) error {
	to := w.phone(ev)
	if to == "" {
		return fmt.Errorf("no destination phone for event %s", ev.EventID)
	}

	payload := waTextPayload{MessagingProduct: "whatsapp", To: to, Type: "text"}
	payload.Text.Body = EventText(ev)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.cfg.Token)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
