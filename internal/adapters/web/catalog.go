package web

import (
	"net/http"
)

type namePayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// ── Suppliers ─────────────────────────────────────────────────────────────────

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.svc.ListSuppliers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var body namePayload
	if !decodeJSON(w, r, &body) {
		return
	}
	supplier, err := h.svc.CreateSupplier(r.Context(), body.Name, body.Phone)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, supplier)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body namePayload
	if !decodeJSON(w, r, &body) {
		return
	}
	supplier, err := h.svc.UpdateSupplier(r.Context(), id, body.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, supplier)
}

// deleteSupplier handles DELETE /suppliers/{id}. The supplier's articles are
// kept and detached rather than deleted.
func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSupplier(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// ── Categories ────────────────────────────────────────────────────────────────

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var body namePayload
	if !decodeJSON(w, r, &body) {
		return
	}
	category, err := h.svc.CreateCategory(r.Context(), body.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body namePayload
	if !decodeJSON(w, r, &body) {
		return
	}
	category, err := h.svc.UpdateCategory(r.Context(), id, body.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// deleteCategory handles DELETE /categories/{id}. Refused while any article
// or pack still references the category.
func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
