package notify

import (
	"context"
	"encoding/json"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/common/logger"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/connections/rabbitmq"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

// RunSubscriber consumes the notifications queue and logs every event,
// feeding the admin dashboard's activity stream. Blocks until the
// context is canceled or the delivery channel closes.
func RunSubscriber(ctx context.Context, client *rabbitmq.Client) error {
	lg := logger.New("notify-subscriber")

	if err := client.DeclareTopology(); err != nil {
		return err
	}
	deliveries, err := client.Consume(rabbitmq.NotificationsQueue, "dashboard", 10)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var ev domain.OrderEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				lg.Error("event_unparsable", err, map[string]any{"bytes": len(d.Body)})
				_ = d.Nack(false, false)
				continue
			}
			lg.Info("event_received", map[string]any{
				"event_id":   ev.EventID,
				"event_type": string(ev.Type),
				"order_id":   ev.OrderID,
				"ticket":     ev.Ticket,
				"status":     string(ev.Status),
			})
			_ = d.Ack(false)
		}
	}
}
