package queue

import (
	"fmt"
	"time"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

// CreatedAtPolicy decides what happens to a client order submitted
// without a creation timestamp. The historical behavior is to default it
// to ingestion time, which can misorder tickets relative to true
// arrival; strict deployments can reject instead.
type CreatedAtPolicy string

const (
	CreatedAtDefaultNow CreatedAtPolicy = "now"
	CreatedAtReject     CreatedAtPolicy = "reject"
)

// merge reconciles a client-held snapshot into the server state. The
// merge is one-directional and additive: client orders with unknown ids
// are appended in submission order, server orders absent from the
// snapshot are never removed, and replaying the same snapshot is a
// no-op. The client's sequencer fields replace the server's only after
// validation. On any validation failure the state is left untouched and
// the full field error list is returned.
func merge(st *domain.QueueState, req domain.SyncQueueRequest, now time.Time, policy CreatedAtPolicy) (added []domain.Order, errs []domain.FieldError) {
	errs = validateSync(req, policy)
	if len(errs) > 0 {
		return nil, errs
	}

	for _, co := range req.Orders {
		if st.OrderIndex(co.ID) >= 0 {
			continue
		}
		order := clientOrderToDomain(co, now)
		st.Orders = append(st.Orders, order)
		added = append(added, order)
	}
	st.CurrentPrefix = req.CurrentPrefix
	st.CurrentNumber = req.CurrentNumber
	return added, nil
}

func validateSync(req domain.SyncQueueRequest, policy CreatedAtPolicy) []domain.FieldError {
	var errs []domain.FieldError
	add := func(field, msg string) {
		errs = append(errs, domain.FieldError{Field: field, Message: msg})
	}

	if req.CurrentPrefix == "" {
		add("currentPrefix", "must not be empty")
	}
	if req.CurrentNumber < 0 {
		add("currentNumber", "must not be negative")
	}
	seen := make(map[string]bool, len(req.Orders))
	for i, co := range req.Orders {
		field := func(name string) string { return fmt.Sprintf("orders[%d].%s", i, name) }
		if co.ID == "" {
			add(field("id"), "must not be empty")
		} else if seen[co.ID] {
			add(field("id"), "duplicated in snapshot")
		}
		seen[co.ID] = true
		if co.Status != "" && !domain.OrderStatus(co.Status).Valid() {
			add(field("status"), fmt.Sprintf("unknown status %q", co.Status))
		}
		if co.CreatedAt == nil && policy == CreatedAtReject {
			add(field("createdAt"), "required")
		}
		if _, _, err := coerceCreatedAt(co.CreatedAt); err != nil {
			add(field("createdAt"), err.Error())
		}
	}
	return errs
}

func clientOrderToDomain(co domain.ClientOrder, now time.Time) domain.Order {
	status := domain.OrderStatus(co.Status)
	if co.Status == "" {
		status = domain.StatusReceived
	}
	createdAt, ok, _ := coerceCreatedAt(co.CreatedAt)
	if !ok {
		createdAt = now
	}
	return domain.Order{
		ID:            co.ID,
		Ticket:        co.Ticket,
		Status:        status,
		Items:         co.Items,
		Total:         co.Total,
		CustomerName:  co.CustomerName,
		CustomerPhone: co.CustomerPhone,
		CreatedAt:     createdAt,
	}
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// coerceCreatedAt turns whatever the client sent into a timestamp.
// Strings are tried against the known layouts, numbers are read as Unix
// epoch (milliseconds when the magnitude says so). ok is false when the
// value was absent.
func coerceCreatedAt(v any) (t time.Time, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case string:
		if x == "" {
			return time.Time{}, false, nil
		}
		for _, layout := range createdAtLayouts {
			if ts, perr := time.Parse(layout, x); perr == nil {
				return ts.UTC(), true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("unparsable timestamp %q", x)
	case float64:
		// JSON numbers decode as float64; epoch millis since 2001 are > 1e12
		if x > 1e12 {
			return time.UnixMilli(int64(x)).UTC(), true, nil
		}
		return time.Unix(int64(x), 0).UTC(), true, nil
	default:
		return time.Time{}, false, fmt.Errorf("unsupported timestamp type %T", v)
	}
}
