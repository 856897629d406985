package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/common/logger"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/notify"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/sequencer"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/store"
)

// Notifier is the dispatch side of the notification subsystem. Outcomes
// are informational; the service never lets them fail an operation.
type Notifier interface {
	Dispatch(ctx context.Context, ev domain.OrderEvent) map[string]notify.Outcome
}

// Service owns the queue state. Every read-modify-write cycle runs under
// one mutex and mutates a clone that only replaces the live state after
// the store has durably committed it, so a failed save leaves both the
// durable artifact and the in-memory state on the previous snapshot.
// Notifications are dispatched strictly after commit, outside the lock.
type Service struct {
	mu       sync.Mutex
	st       domain.QueueState
	store    store.Store
	seq      *sequencer.Sequencer
	notifier Notifier
	policy   CreatedAtPolicy
	lg       *logger.Logger
	now      func() time.Time
}

func NewService(ctx context.Context, st store.Store, seq *sequencer.Sequencer, notifier Notifier, policy CreatedAtPolicy) (*Service, error) {
	if policy == "" {
		policy = CreatedAtDefaultNow
	}
	state, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	s := &Service{
		st:       state,
		store:    st,
		seq:      seq,
		notifier: notifier,
		policy:   policy,
		lg:       logger.New("queue"),
		now:      time.Now,
	}
	s.lg.Info("queue_loaded", map[string]any{
		"orders": len(state.Orders),
		"prefix": state.CurrentPrefix,
		"number": state.CurrentNumber,
	})
	return s, nil
}

// Snapshot returns a copy of the current state for read-only callers.
func (s *Service) Snapshot(ctx context.Context) domain.QueueState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

// CheckReset runs the day-boundary check and persists any rotation.
func (s *Service) CheckReset(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.st.Clone()
	reset := s.runReset(ctx, &next)
	if !reset && next.LastResetDate == s.st.LastResetDate {
		return false, nil
	}
	if err := s.store.Save(ctx, next); err != nil {
		return false, err
	}
	s.st = next
	return reset, nil
}

// runReset applies the sequencer's day check to the working copy and, on
// rotation, moves finished orders of the closed day into the archive.
// Archival failure keeps those orders in the live queue rather than
// dropping them. Callers hold the mutex and still need to Save.
func (s *Service) runReset(ctx context.Context, next *domain.QueueState) bool {
	closedDay := next.LastResetDate
	if !s.seq.CheckAndResetForNewDay(next) {
		return false
	}

	keep := make([]domain.Order, 0, len(next.Orders))
	var finished []domain.Order
	for _, o := range next.Orders {
		if o.Status.Terminal() {
			finished = append(finished, o)
		} else {
			keep = append(keep, o)
		}
	}
	if len(finished) > 0 {
		if err := s.store.Archive(ctx, closedDay, finished); err != nil {
			s.lg.Error("archive_failed", err, map[string]any{"day": closedDay, "orders": len(finished)})
		} else {
			next.Orders = keep
			s.lg.Info("day_archived", map[string]any{"day": closedDay, "orders": len(finished)})
		}
	}
	s.lg.Info("day_reset", map[string]any{
		"prefix": next.CurrentPrefix,
		"date":   next.LastResetDate,
	})
	return true
}

// AddOrder ingests a walk-in order, assigns the next ticket of the day
// and notifies the channels once the order is durably committed.
func (s *Service) AddOrder(ctx context.Context, req domain.AddOrderRequest) (string, error) {
	if req.Order.ID == "" {
		return "", singleFieldError("order.id", "must not be empty")
	}
	createdAt, hasCreatedAt, err := coerceCreatedAt(req.Order.CreatedAt)
	if err != nil {
		return "", singleFieldError("order.createdAt", err.Error())
	}
	if !hasCreatedAt && s.policy == CreatedAtReject {
		return "", singleFieldError("order.createdAt", "required")
	}

	s.mu.Lock()
	next := s.st.Clone()
	s.runReset(ctx, &next)

	if next.OrderIndex(req.Order.ID) >= 0 {
		s.mu.Unlock()
		return "", singleFieldError("order.id", "already in queue")
	}

	prefix, number := s.seq.NextTicket(&next)
	order := clientOrderToDomain(req.Order, s.now().UTC())
	order.Ticket = sequencer.FormatTicket(prefix, number)
	order.Status = domain.StatusReceived
	if hasCreatedAt {
		order.CreatedAt = createdAt
	}
	if req.CustomerPhone != "" {
		order.CustomerPhone = req.CustomerPhone
	}
	next.Orders = append(next.Orders, order)

	if err := s.store.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.st = next
	s.mu.Unlock()

	s.dispatch(ctx, s.newEvent(domain.EventOrderCreated, order))
	return order.Ticket, nil
}

// UpdateStatus transitions one order and notifies the customer channel.
func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) error {
	if req.OrderID == "" {
		return singleFieldError("orderId", "must not be empty")
	}
	status := domain.OrderStatus(req.Status)
	if !status.Valid() {
		return singleFieldError("status", "unknown status value")
	}

	s.mu.Lock()
	next := s.st.Clone()
	idx := next.OrderIndex(req.OrderID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrOrderNotFound
	}
	next.Orders[idx].Status = status

	if err := s.store.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.st = next
	order := next.Orders[idx]
	s.mu.Unlock()

	ev := s.newEvent(domain.EventOrderStatusUpdated, order)
	if req.CustomerPhone != "" {
		ev.CustomerPhone = req.CustomerPhone
	}
	s.dispatch(ctx, ev)
	return nil
}

// Sync reconciles a client snapshot. Returns the resulting order count.
func (s *Service) Sync(ctx context.Context, req domain.SyncQueueRequest) (int, error) {
	s.mu.Lock()
	next := s.st.Clone()
	added, fieldErrs := merge(&next, req, s.now().UTC(), s.policy)
	if len(fieldErrs) > 0 {
		s.mu.Unlock()
		return 0, &ValidationError{Fields: fieldErrs}
	}

	if err := s.store.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.st = next
	count := len(next.Orders)
	s.mu.Unlock()

	for _, order := range added {
		s.dispatch(ctx, s.newEvent(domain.EventOrderCreated, order))
	}
	return count, nil
}

func (s *Service) newEvent(typ domain.EventType, order domain.Order) domain.OrderEvent {
	return domain.OrderEvent{
		EventID:       uuid.NewString(),
		Type:          typ,
		OrderID:       order.ID,
		Ticket:        order.Ticket,
		Status:        order.Status,
		Items:         order.Items,
		Total:         order.Total,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		OccurredAt:    s.now().UTC(),
	}
}

func (s *Service) dispatch(ctx context.Context, ev domain.OrderEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(ctx, ev)
}
