package web

import (
	"net/http"

	"distripanel/internal/app"
	"distripanel/internal/core"

	"github.com/shopspring/decimal"
)

type orderLinePayload struct {
	ArticleID   int             `json:"article_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	ItemStatus  string          `json:"item_status"`
}

type orderPayload struct {
	CustomerID *int               `json:"customer_id"`
	Status     *string            `json:"status"`
	Notes      *string            `json:"notes"`
	Items      []orderLinePayload `json:"items"`
}

func toOrderLines(items []orderLinePayload) []app.OrderLineInput {
	lines := make([]app.OrderLineInput, len(items))
	for i, it := range items {
		lines[i] = app.OrderLineInput{
			ArticleID:   it.ArticleID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			DiscountPct: it.DiscountPct,
			ItemStatus:  it.ItemStatus,
		}
	}
	return lines
}

// listOrders handles GET /orders. Supports ?status= and ?customer_id=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter := core.OrderFilter{Status: r.URL.Query().Get("status")}
	filter.CustomerID = queryIntPtr(r, "customer_id")

	orders, err := h.svc.ListOrders(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var body orderPayload
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.CreateOrderRequest{Lines: toOrderLines(body.Items)}
	if body.CustomerID != nil {
		req.CustomerID = *body.CustomerID
	}
	if body.Status != nil {
		req.Status = *body.Status
	}
	if body.Notes != nil {
		req.Notes = *body.Notes
	}

	order, err := h.svc.CreateOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// updateOrder handles PUT /orders/{id}. Items, when present, fully replace
// the existing lines and the total is recomputed.
func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body orderPayload
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.UpdateOrderRequest{
		Notes:  body.Notes,
		Status: body.Status,
	}
	if body.Items != nil {
		req.Lines = toOrderLines(body.Items)
	}

	order, err := h.svc.UpdateOrder(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// closeOrder handles POST /orders/{id}/close: charges the order total to the
// customer's current account and freezes the order.
func (h *Handler) closeOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	order, err := h.svc.CloseOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// deleteOrder handles DELETE /orders/{id}. Deleting a closed order reverses
// its charge on the customer's account first.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
