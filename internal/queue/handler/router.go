package handler

import "net/http"

// Router wires the queue endpoints; needs Go 1.22 ServeMux patterns.
func Router(h *QueueHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/queue/reset-check", h.ResetCheck)
	mux.HandleFunc("GET /api/v1/queue", h.FetchQueue)
	mux.HandleFunc("POST /api/v1/queue/sync", h.SyncQueue)
	mux.HandleFunc("POST /api/v1/orders", h.AddOrder)
	mux.HandleFunc("POST /api/v1/orders/{order_id}/status", h.UpdateStatus)
	return mux
}
