package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/notify"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/sequencer"
)

// mockStore keeps the snapshot in memory and can be told to fail saves.
type mockStore struct {
	mu       sync.Mutex
	saved    domain.QueueState
	hasSaved bool
	saveErr  error
	archived map[string][]domain.Order
}

func newMockStore() *mockStore {
	return &mockStore{archived: make(map[string][]domain.Order)}
}

func (m *mockStore) Load(ctx context.Context) (domain.QueueState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSaved {
		return domain.QueueState{Orders: []domain.Order{}, CurrentPrefix: "A", CurrentNumber: 1}, nil
	}
	return m.saved.Clone(), nil
}

func (m *mockStore) Save(ctx context.Context, st domain.QueueState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = st.Clone()
	m.hasSaved = true
	return nil
}

func (m *mockStore) Archive(ctx context.Context, date string, orders []domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archived[date] = append(m.archived[date], orders...)
	return nil
}

// recordingNotifier collects dispatched events; optionally reports
// failure outcomes, which must never matter to the service.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	fail   bool
}

func (r *recordingNotifier) Dispatch(ctx context.Context, ev domain.OrderEvent) map[string]notify.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.fail {
		return map[string]notify.Outcome{"email": {OK: false, Err: "smtp down"}}
	}
	return map[string]notify.Outcome{"email": {OK: true}}
}

func (r *recordingNotifier) byType(t domain.EventType) []domain.OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.OrderEvent
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestService(t *testing.T, st *mockStore, n Notifier) *Service {
	t.Helper()
	seq := sequencer.New(time.UTC)
	svc, err := NewService(context.Background(), st, seq, n, CreatedAtDefaultNow)
	require.NoError(t, err)
	return svc
}

func addReq(id string, phone string) domain.AddOrderRequest {
	return domain.AddOrderRequest{
		Order: domain.ClientOrder{
			ID:    id,
			Items: []domain.OrderItem{{Name: "x-salada", Quantity: 2, Price: 18.0}},
			Total: 36.0,
		},
		CustomerPhone: phone,
	}
}

func TestAddOrderAssignsSequentialTickets(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st, &recordingNotifier{})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ticket, err := svc.AddOrder(ctx, addReq(fmt.Sprintf("o%d", i), ""))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("A%d", i), ticket)
	}

	snap := svc.Snapshot(ctx)
	assert.Len(t, snap.Orders, 3)
	assert.Equal(t, 4, snap.CurrentNumber)
	// committed state matches the in-memory state
	assert.Equal(t, snap, st.saved)
}

func TestAddOrderTicketsMonotonicUnderConcurrency(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st, &recordingNotifier{})
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	tickets := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket, err := svc.AddOrder(ctx, addReq(fmt.Sprintf("c%d", i), ""))
			assert.NoError(t, err)
			tickets <- ticket
		}(i)
	}
	wg.Wait()
	close(tickets)

	seen := make(map[string]bool, n)
	for ticket := range tickets {
		assert.False(t, seen[ticket], "ticket %s assigned twice", ticket)
		seen[ticket] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n+1, svc.Snapshot(ctx).CurrentNumber)
}

func TestAddOrderRejectsDuplicateID(t *testing.T) {
	svc := newTestService(t, newMockStore(), &recordingNotifier{})
	ctx := context.Background()

	_, err := svc.AddOrder(ctx, addReq("o1", ""))
	require.NoError(t, err)

	_, err = svc.AddOrder(ctx, addReq("o1", ""))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "order.id", verr.Fields[0].Field)
	assert.Len(t, svc.Snapshot(ctx).Orders, 1)
}

func TestAddOrderSaveFailureLeavesStateUntouched(t *testing.T) {
	st := newMockStore()
	n := &recordingNotifier{}
	svc := newTestService(t, st, n)
	ctx := context.Background()

	st.saveErr = errors.New("disk full")
	_, err := svc.AddOrder(ctx, addReq("o1", ""))
	require.Error(t, err)

	assert.Empty(t, svc.Snapshot(ctx).Orders)
	assert.Equal(t, 1, svc.Snapshot(ctx).CurrentNumber)
	// nothing committed, nothing notified
	assert.Empty(t, n.events)

	// the next attempt works once the store recovers
	st.saveErr = nil
	ticket, err := svc.AddOrder(ctx, addReq("o1", ""))
	require.NoError(t, err)
	assert.Equal(t, "A1", ticket)
}

func TestAddOrderNotificationFailureDoesNotFailIntake(t *testing.T) {
	n := &recordingNotifier{fail: true}
	svc := newTestService(t, newMockStore(), n)

	ticket, err := svc.AddOrder(context.Background(), addReq("o1", "+5511999990000"))
	require.NoError(t, err)
	assert.Equal(t, "A1", ticket)
	require.Len(t, n.events, 1)
	assert.Equal(t, "+5511999990000", n.events[0].CustomerPhone)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc := newTestService(t, newMockStore(), &recordingNotifier{})

	err := svc.UpdateStatus(context.Background(), domain.UpdateStatusRequest{OrderID: "ghost", Status: "preparing"})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateStatusInvalidValue(t *testing.T) {
	svc := newTestService(t, newMockStore(), &recordingNotifier{})

	err := svc.UpdateStatus(context.Background(), domain.UpdateStatusRequest{OrderID: "o1", Status: "frying"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateStatusEmitsCustomerEvent(t *testing.T) {
	n := &recordingNotifier{}
	svc := newTestService(t, newMockStore(), n)
	ctx := context.Background()

	_, err := svc.AddOrder(ctx, addReq("o1", ""))
	require.NoError(t, err)

	err = svc.UpdateStatus(ctx, domain.UpdateStatusRequest{OrderID: "o1", Status: "out-for-delivery", CustomerPhone: "+5511988887777"})
	require.NoError(t, err)

	updates := n.byType(domain.EventOrderStatusUpdated)
	require.Len(t, updates, 1)
	assert.Equal(t, domain.StatusOutForDelivery, updates[0].Status)
	assert.Equal(t, "+5511988887777", updates[0].CustomerPhone)
	assert.Equal(t, domain.StatusOutForDelivery, svc.Snapshot(ctx).Orders[0].Status)
}

func TestSyncEmitsEventsForNewOrdersOnly(t *testing.T) {
	n := &recordingNotifier{}
	svc := newTestService(t, newMockStore(), n)
	ctx := context.Background()

	_, err := svc.AddOrder(ctx, addReq("o1", ""))
	require.NoError(t, err)
	require.Len(t, n.events, 1)

	count, err := svc.Sync(ctx, domain.SyncQueueRequest{
		Orders: []domain.ClientOrder{
			{ID: "o1", Ticket: "A1"},
			{ID: "o2", Ticket: "A2"},
		},
		CurrentPrefix: "A",
		CurrentNumber: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	created := n.byType(domain.EventOrderCreated)
	require.Len(t, created, 2)
	assert.Equal(t, "o2", created[1].OrderID)
}

func TestSyncValidationErrorIsSideEffectFree(t *testing.T) {
	st := newMockStore()
	n := &recordingNotifier{}
	svc := newTestService(t, st, n)
	ctx := context.Background()

	_, err := svc.Sync(ctx, domain.SyncQueueRequest{
		Orders:        []domain.ClientOrder{{ID: "o9"}},
		CurrentPrefix: "",
		CurrentNumber: 5,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, n.events)
	assert.False(t, st.hasSaved)
	assert.Equal(t, "A", svc.Snapshot(ctx).CurrentPrefix)
}

func TestDayResetArchivesFinishedOrders(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st, &recordingNotifier{})
	ctx := context.Background()

	// yesterday's queue: one finished order, one still in flight
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	svc.mu.Lock()
	svc.st = domain.QueueState{
		Orders: []domain.Order{
			{ID: "done", Ticket: "A1", Status: domain.StatusCompleted},
			{ID: "open", Ticket: "A2", Status: domain.StatusPreparing},
		},
		CurrentPrefix: "A",
		CurrentNumber: 3,
		LastResetDate: yesterday,
	}
	svc.mu.Unlock()

	reset, err := svc.CheckReset(ctx)
	require.NoError(t, err)
	assert.True(t, reset)

	snap := svc.Snapshot(ctx)
	assert.Equal(t, "B", snap.CurrentPrefix)
	assert.Equal(t, 1, snap.CurrentNumber)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "open", snap.Orders[0].ID)
	require.Len(t, st.archived[yesterday], 1)
	assert.Equal(t, "done", st.archived[yesterday][0].ID)

	// same day: idempotent
	reset, err = svc.CheckReset(ctx)
	require.NoError(t, err)
	assert.False(t, reset)
	assert.Equal(t, "B", svc.Snapshot(ctx).CurrentPrefix)
}

func TestCheckResetAdoptsDateOnFreshQueue(t *testing.T) {
	st := newMockStore()
	svc := newTestService(t, st, &recordingNotifier{})

	reset, err := svc.CheckReset(context.Background())
	require.NoError(t, err)
	assert.False(t, reset)
	assert.NotEmpty(t, svc.Snapshot(context.Background()).LastResetDate)
	assert.Equal(t, "A", svc.Snapshot(context.Background()).CurrentPrefix)
}
