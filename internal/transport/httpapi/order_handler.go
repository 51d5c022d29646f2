package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/orchidcommerce/orchidbe/internal/service/order"
)

// OrderHandler обслуживает REST-операции над заказами.
type OrderHandler struct {
	engine *order.Engine
}

// NewOrderHandler создаёт обработчик заказов.
func NewOrderHandler(engine *order.Engine) *OrderHandler {
	return &OrderHandler{engine: engine}
}

type orderLinePayload struct {
	OrchidID string `json:"orchid_id"`
	Quantity int32  `json:"quantity"`
}

type orderPayload struct {
	Lines []orderLinePayload `json:"lines"`
}

func (p orderPayload) requests() []order.LineRequest {
	requests := make([]order.LineRequest, 0, len(p.Lines))
	for _, line := range p.Lines {
		requests = append(requests, order.LineRequest{
			OrchidID: line.OrchidID,
			Qty:      line.Quantity,
		})
	}
	return requests
}

// Create обрабатывает POST /api/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	view, err := h.engine.CreateOrder(r.Context(), identityFrom(r.Context()), payload.requests())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, view)
}

// Update обрабатывает PUT /api/orders/{id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	view, err := h.engine.UpdateOrder(r.Context(), identityFrom(r.Context()), r.PathValue("id"), payload.requests())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, view)
}

// Pay обрабатывает POST /api/orders/{id}/pay.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.PayOrder(r.Context(), identityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, view)
}

// Cancel обрабатывает DELETE /api/orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.CancelOrder(r.Context(), identityFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

// Get обрабатывает GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.GetOrder(r.Context(), identityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, view)
}

// ListAll обрабатывает GET /api/orders (только ADMIN).
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	views, err := h.engine.ListAllOrders(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, views)
}

// ListMine обрабатывает GET /api/orders/my.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	views, err := h.engine.ListOrdersForCaller(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, views)
}
