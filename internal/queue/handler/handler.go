package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/common/logger"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/queue"
)

// Service is the queue surface the HTTP layer needs.
type Service interface {
	CheckReset(ctx context.Context) (bool, error)
	Snapshot(ctx context.Context) domain.QueueState
	Sync(ctx context.Context, req domain.SyncQueueRequest) (int, error)
	AddOrder(ctx context.Context, req domain.AddOrderRequest) (string, error)
	UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) error
}

type QueueHandler struct {
	svc Service
	lg  *logger.Logger
}

func NewQueueHandler(svc Service) *QueueHandler {
	return &QueueHandler{svc: svc, lg: logger.New("queue-http")}
}

func (h *QueueHandler) ResetCheck(w http.ResponseWriter, r *http.Request) {
	reset, err := h.svc.CheckReset(r.Context())
	if err != nil {
		h.lg.Error("reset_check_failed", err, nil)
		writeProblem(w, http.StatusInternalServerError, "persistence_error", "could not commit queue state")
		return
	}
	writeJSON(w, http.StatusOK, domain.ResetCheckResponse{Reset: reset})
}

func (h *QueueHandler) FetchQueue(w http.ResponseWriter, r *http.Request) {
	st := h.svc.Snapshot(r.Context())
	counts := make(map[string]int)
	for _, o := range st.Orders {
		counts[string(o.Status)]++
	}
	writeJSON(w, http.StatusOK, domain.FetchQueueResponse{
		Orders:        st.Orders,
		CurrentPrefix: st.CurrentPrefix,
		CurrentNumber: st.CurrentNumber,
		LastResetDate: st.LastResetDate,
		StatusCounts:  counts,
	})
}

func (h *QueueHandler) SyncQueue(w http.ResponseWriter, r *http.Request) {
	var req domain.SyncQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_json", "request body is not valid JSON")
		return
	}
	count, err := h.svc.Sync(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "sync_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, domain.SyncQueueResponse{
		Success:    true,
		OrderCount: count,
		Timestamp:  time.Now().UTC(),
	})
}

func (h *QueueHandler) AddOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.AddOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_json", "request body is not valid JSON")
		return
	}
	ticket, err := h.svc.AddOrder(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "add_order_failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.AddOrderResponse{Success: true, Ticket: ticket})
}

func (h *QueueHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_json", "request body is not valid JSON")
		return
	}
	if req.OrderID == "" {
		req.OrderID = r.PathValue("order_id")
	}
	err := h.svc.UpdateStatus(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "update_status_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *QueueHandler) writeServiceError(w http.ResponseWriter, action string, err error) {
	var verr *queue.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr.Fields)
	case errors.Is(err, queue.ErrOrderNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", "order not found")
	default:
		h.lg.Error(action, err, nil)
		writeProblem(w, http.StatusInternalServerError, "persistence_error", "could not commit queue state")
	}
}

// writeJSON renders a body with the given status.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem renders the shared error shape (simplified problem+json).
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	writeJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

func writeValidation(w http.ResponseWriter, fields []domain.FieldError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"type":   "validation_error",
		"title":  http.StatusText(http.StatusBadRequest),
		"status": http.StatusBadRequest,
		"detail": "request rejected before any state change",
		"errors": fields,
	})
}
