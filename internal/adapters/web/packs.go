package web

import (
	"net/http"

	"distripanel/internal/app"

	"github.com/shopspring/decimal"
)

type packLinePayload struct {
	ArticleID    int             `json:"article_id"`
	SuggestedQty decimal.Decimal `json:"suggested_qty"`
}

type packPayload struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	CategoryID  *int              `json:"category_id"`
	Items       []packLinePayload `json:"items"`
}

func toPackLines(items []packLinePayload) []app.PackLineInput {
	lines := make([]app.PackLineInput, len(items))
	for i, it := range items {
		lines[i] = app.PackLineInput{
			ArticleID:    it.ArticleID,
			SuggestedQty: it.SuggestedQty,
		}
	}
	return lines
}

func (h *Handler) listPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := h.svc.ListPacks(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, packs)
}

func (h *Handler) getPack(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	pack, err := h.svc.GetPack(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pack)
}

func (h *Handler) createPack(w http.ResponseWriter, r *http.Request) {
	var body packPayload
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.CreatePackRequest{
		CategoryID: body.CategoryID,
		Lines:      toPackLines(body.Items),
	}
	if body.Name != nil {
		req.Name = *body.Name
	}
	if body.Description != nil {
		req.Description = *body.Description
	}

	pack, err := h.svc.CreatePack(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pack)
}

// updatePack handles PUT /packs/{id}. Items, when present, fully replace the
// existing item list.
func (h *Handler) updatePack(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body packPayload
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.UpdatePackRequest{
		Name:        body.Name,
		Description: body.Description,
		CategoryID:  body.CategoryID,
	}
	if body.Items != nil {
		req.Lines = toPackLines(body.Items)
	}

	pack, err := h.svc.UpdatePack(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pack)
}

func (h *Handler) deletePack(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePack(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
