package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/connections/rabbitmq"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

// AMQPAdapter publishes every event onto the notifications fanout
// exchange. It is a channel like any other: a broker outage shows up as
// a failed outcome for this channel and nothing more.
type AMQPAdapter struct {
	client *rabbitmq.Client
}

func NewAMQPAdapter(client *rabbitmq.Client) *AMQPAdapter {
	return &AMQPAdapter{client: client}
}

func (a *AMQPAdapter) Name() string { return "amqp" }

func (a *AMQPAdapter) Send(ctx context.Context, ev domain.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := a.client.Publish(ctx, rabbitmq.NotificationsExchange, "", body); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
