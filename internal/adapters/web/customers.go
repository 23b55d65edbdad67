package web

import (
	"net/http"

	"distripanel/internal/app"

	"github.com/shopspring/decimal"
)

type customerPayload struct {
	Name           *string          `json:"name"`
	Address        *string          `json:"address"`
	Locality       *string          `json:"locality"`
	Phone          *string          `json:"phone"`
	Balance        *decimal.Decimal `json:"balance"`
	OpeningBalance *decimal.Decimal `json:"opening_balance"`
}

type paymentPayload struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// listCustomers handles GET /customers. Supports ?q= name search.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// getCustomer handles GET /customers/{id}: the customer plus their order
// history and recent current-account movements.
func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var body customerPayload
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.CreateCustomerRequest{}
	if body.Name != nil {
		req.Name = *body.Name
	}
	if body.Address != nil {
		req.Address = *body.Address
	}
	if body.Locality != nil {
		req.Locality = *body.Locality
	}
	if body.Phone != nil {
		req.Phone = *body.Phone
	}
	if body.OpeningBalance != nil {
		req.OpeningBalance = *body.OpeningBalance
	}

	customer, err := h.svc.CreateCustomer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

// updateCustomer handles PUT /customers/{id}. A balance field in the body is
// a manual adjustment and leaves a ledger entry behind.
func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body customerPayload
	if !decodeJSON(w, r, &body) {
		return
	}

	customer, err := h.svc.UpdateCustomer(r.Context(), id, app.UpdateCustomerRequest{
		Name:     body.Name,
		Address:  body.Address,
		Locality: body.Locality,
		Phone:    body.Phone,
		Balance:  body.Balance,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeactivateCustomer(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// registerPayment handles POST /customers/{id}/payments.
func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body paymentPayload
	if !decodeJSON(w, r, &body) {
		return
	}

	entry, err := h.svc.RegisterPayment(r.Context(), id, body.Amount, body.Note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// frequentArticles handles GET /customers/{id}/frequent-articles.
func (h *Handler) frequentArticles(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	articles, err := h.svc.FrequentArticles(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}
