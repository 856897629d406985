package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

var mergeNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func serverState() domain.QueueState {
	return domain.QueueState{
		Orders: []domain.Order{
			{ID: "a", Ticket: "A1", Status: domain.StatusPreparing, CreatedAt: mergeNow.Add(-time.Hour)},
		},
		CurrentPrefix: "A",
		CurrentNumber: 2,
		LastResetDate: "2026-03-10",
	}
}

func TestMergeAppendsOnlyUnknownOrders(t *testing.T) {
	st := serverState()
	req := domain.SyncQueueRequest{
		Orders: []domain.ClientOrder{
			{ID: "a", Ticket: "A1", Status: "completed"}, // known id: ignored
			{ID: "b", Ticket: "A2", Status: "received", Total: 24.5},
		},
		CurrentPrefix: "A",
		CurrentNumber: 3,
	}

	added, errs := merge(&st, req, mergeNow, CreatedAtDefaultNow)
	require.Empty(t, errs)
	require.Len(t, added, 1)
	assert.Equal(t, "b", added[0].ID)

	require.Len(t, st.Orders, 2)
	// the client snapshot never overwrites an existing order
	assert.Equal(t, domain.StatusPreparing, st.Orders[0].Status)
	assert.Equal(t, "A", st.CurrentPrefix)
	assert.Equal(t, 3, st.CurrentNumber)
}

func TestMergeIsIdempotent(t *testing.T) {
	st := serverState()
	req := domain.SyncQueueRequest{
		Orders:        []domain.ClientOrder{{ID: "b", Ticket: "A2"}},
		CurrentPrefix: "A",
		CurrentNumber: 3,
	}

	added, errs := merge(&st, req, mergeNow, CreatedAtDefaultNow)
	require.Empty(t, errs)
	assert.Len(t, added, 1)

	added, errs = merge(&st, req, mergeNow, CreatedAtDefaultNow)
	require.Empty(t, errs)
	assert.Empty(t, added)
	assert.Len(t, st.Orders, 2)
}

func TestMergeNeverDeletesServerOrders(t *testing.T) {
	st := serverState()
	// client snapshot lost order "a" (offline client), brings new "b"
	req := domain.SyncQueueRequest{
		Orders:        []domain.ClientOrder{{ID: "b", Ticket: "A2"}},
		CurrentPrefix: "A",
		CurrentNumber: 3,
	}

	_, errs := merge(&st, req, mergeNow, CreatedAtDefaultNow)
	require.Empty(t, errs)
	assert.GreaterOrEqual(t, st.OrderIndex("a"), 0)
	assert.GreaterOrEqual(t, st.OrderIndex("b"), 0)
}

func TestMergeRejectsInvalidSequencerFields(t *testing.T) {
	st := serverState()
	before := st.Clone()

	_, errs := merge(&st, domain.SyncQueueRequest{CurrentPrefix: "", CurrentNumber: -1}, mergeNow, CreatedAtDefaultNow)
	require.Len(t, errs, 2)
	assert.Equal(t, "currentPrefix", errs[0].Field)
	assert.Equal(t, "currentNumber", errs[1].Field)
	assert.Equal(t, before, st)
}

func TestMergeRejectsBadOrders(t *testing.T) {
	st := serverState()
	before := st.Clone()
	req := domain.SyncQueueRequest{
		Orders: []domain.ClientOrder{
			{ID: ""},
			{ID: "b", Status: "microwaving"},
			{ID: "b"},
			{ID: "c", CreatedAt: "not-a-date"},
		},
		CurrentPrefix: "A",
		CurrentNumber: 3,
	}

	_, errs := merge(&st, req, mergeNow, CreatedAtDefaultNow)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "orders[0].id")
	assert.Contains(t, fields, "orders[1].status")
	assert.Contains(t, fields, "orders[2].id")
	assert.Contains(t, fields, "orders[3].createdAt")
	// rejected merges leave the state untouched
	assert.Equal(t, before, st)
}

func TestMergeCoercesCreatedAt(t *testing.T) {
	st := serverState()
	req := domain.SyncQueueRequest{
		Orders: []domain.ClientOrder{
			{ID: "rfc", CreatedAt: "2026-03-10T09:15:00Z"},
			{ID: "sql", CreatedAt: "2026-03-10 09:20:00"},
			{ID: "millis", CreatedAt: float64(1773131100000)},
			{ID: "absent"},
		},
		CurrentPrefix: "A",
		CurrentNumber: 6,
	}

	added, errs := merge(&st, req, mergeNow, CreatedAtDefaultNow)
	require.Empty(t, errs)
	require.Len(t, added, 4)

	assert.Equal(t, time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC), added[0].CreatedAt)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 20, 0, 0, time.UTC), added[1].CreatedAt)
	assert.Equal(t, time.UnixMilli(1773131100000).UTC(), added[2].CreatedAt)
	// absent timestamp defaults to ingestion time under the "now" policy
	assert.Equal(t, mergeNow, added[3].CreatedAt)
}

func TestMergeRejectPolicyRequiresCreatedAt(t *testing.T) {
	st := serverState()
	req := domain.SyncQueueRequest{
		Orders:        []domain.ClientOrder{{ID: "b"}},
		CurrentPrefix: "A",
		CurrentNumber: 3,
	}

	_, errs := merge(&st, req, mergeNow, CreatedAtReject)
	require.Len(t, errs, 1)
	assert.Equal(t, "orders[0].createdAt", errs[0].Field)
}

func TestMergeDefaultsStatusToReceived(t *testing.T) {
	st := serverState()
	req := domain.SyncQueueRequest{
		Orders:        []domain.ClientOrder{{ID: "b"}},
		CurrentPrefix: "A",
		CurrentNumber: 3,
	}

	added, errs := merge(&st, req, mergeNow, CreatedAtDefaultNow)
	require.Empty(t, errs)
	assert.Equal(t, domain.StatusReceived, added[0].Status)
}
