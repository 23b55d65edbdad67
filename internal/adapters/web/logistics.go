package web

import (
	"net/http"
)

type consolidatePayload struct {
	OrderIDs []int  `json:"order_ids"`
	Mode     string `json:"mode"`
}

// consolidate handles POST /logistics/consolidate: merges the item lines of
// the given orders into a picking list grouped by customer or category.
func (h *Handler) consolidate(w http.ResponseWriter, r *http.Request) {
	var body consolidatePayload
	if !decodeJSON(w, r, &body) {
		return
	}

	groups, err := h.svc.Consolidate(r.Context(), body.OrderIDs, body.Mode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}
