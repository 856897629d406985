package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/common/logger"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

// Adapter delivers one event over one channel. Adapters own their
// provider auth, retries and rate limits; the dispatcher makes at most
// one attempt per channel per event.
type Adapter interface {
	Name() string
	Send(ctx context.Context, ev domain.OrderEvent) error
}

// Outcome is the per-channel result of one dispatch. Informational only:
// the triggering operation never fails because of it.
type Outcome struct {
	OK      bool
	Err     string
	Elapsed time.Duration
}

const DefaultTimeout = 10 * time.Second

// Channels names the adapters by role so the dispatcher can pick targets
// per event. Any nil adapter is simply never targeted.
type Channels struct {
	Email            Adapter // establishment inbox, new orders
	AdminWhatsApp    Adapter // establishment phone, new orders
	CustomerWhatsApp Adapter // customer phone from the event
	Broadcast        Adapter // fanout exchange feeding the dashboard
}

// Dispatcher fans an event out to its target channels in parallel and
// collects every outcome. One channel failing, hanging or panicking
// never affects another channel or the caller.
type Dispatcher struct {
	channels Channels
	timeout  time.Duration
	lg       *logger.Logger
}

func NewDispatcher(channels Channels, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{channels: channels, timeout: timeout, lg: logger.New("notify")}
}

// Dispatch invokes every target adapter concurrently and waits, bounded
// by the dispatch timeout, for all of them to settle. An adapter that
// has not returned by the deadline is recorded as failed; its goroutine
// is abandoned with the outcome already written.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.OrderEvent) map[string]Outcome {
	targets := d.targets(ev)
	outcomes := make(map[string]Outcome, len(targets))
	if len(targets) == 0 {
		return outcomes
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var mu sync.Mutex
	var g errgroup.Group
	for _, a := range targets {
		a := a
		g.Go(func() error {
			start := time.Now()
			err := attempt(ctx, a, ev)
			out := Outcome{OK: err == nil, Elapsed: time.Since(start)}
			if err != nil {
				out.Err = err.Error()
			}
			mu.Lock()
			outcomes[a.Name()] = out
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for name, out := range outcomes {
		fields := map[string]any{
			"event_id":   ev.EventID,
			"event_type": string(ev.Type),
			"channel":    name,
			"elapsed_ms": out.Elapsed.Milliseconds(),
		}
		if out.OK {
			d.lg.Info("notification_sent", fields)
		} else {
			fields["reason"] = out.Err
			d.lg.Warn("notification_failed", fields)
		}
	}
	return outcomes
}

// targets applies the per-event channel selection: new orders go to the
// establishment channels, with the customer channel added only when a
// phone number came with the request; status updates reach the customer
// channel only. The broadcast exchange sees every event.
func (d *Dispatcher) targets(ev domain.OrderEvent) []Adapter {
	var out []Adapter
	add := func(a Adapter) {
		if a != nil {
			out = append(out, a)
		}
	}
	switch ev.Type {
	case domain.EventOrderCreated:
		add(d.channels.Email)
		add(d.channels.AdminWhatsApp)
		if ev.CustomerPhone != "" {
			add(d.channels.CustomerWhatsApp)
		}
	case domain.EventOrderStatusUpdated:
		if ev.CustomerPhone != "" {
			add(d.channels.CustomerWhatsApp)
		}
	}
	add(d.channels.Broadcast)
	return out
}

// attempt runs one adapter in its own goroutine so a Send that ignores
// context cancellation still cannot hold up the joint wait. Panics are
// recovered into a failed outcome.
func attempt(ctx context.Context, a Adapter, ev domain.OrderEvent) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("channel panic: %v", r)
			}
		}()
		done <- a.Send(ctx, ev)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("channel timed out: %w", ctx.Err())
	}
}
