package web

import (
	"net/http"
	"strconv"

	"distripanel/internal/app"
	"distripanel/internal/core"

	"github.com/shopspring/decimal"
)

type articlePayload struct {
	Name          *string          `json:"name"`
	Unit          *string          `json:"unit"`
	AllowsDecimal *bool            `json:"allows_decimal"`
	Cost          *decimal.Decimal `json:"cost"`
	Price         *decimal.Decimal `json:"price"`
	SupplierID    *int             `json:"supplier_id"`
	CategoryID    *int             `json:"category_id"`
}

type bulkPricePayload struct {
	Target     string          `json:"target"`
	TargetID   int             `json:"target_id"`
	Percentage decimal.Decimal `json:"percentage"`
}

// listArticles handles GET /articles. Supports ?q=, ?category_id= and
// ?supplier_id= filters.
func (h *Handler) listArticles(w http.ResponseWriter, r *http.Request) {
	filter := core.ArticleFilter{Query: r.URL.Query().Get("q")}
	filter.CategoryID = queryIntPtr(r, "category_id")
	filter.SupplierID = queryIntPtr(r, "supplier_id")

	articles, err := h.svc.ListArticles(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (h *Handler) getArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	article, err := h.svc.GetArticle(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (h *Handler) createArticle(w http.ResponseWriter, r *http.Request) {
	var body articlePayload
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.CreateArticleRequest{
		SupplierID: body.SupplierID,
		CategoryID: body.CategoryID,
	}
	if body.Name != nil {
		req.Name = *body.Name
	}
	if body.Unit != nil {
		req.Unit = *body.Unit
	}
	if body.AllowsDecimal != nil {
		req.AllowsDecimal = *body.AllowsDecimal
	}
	if body.Cost != nil {
		req.Cost = *body.Cost
	}
	if body.Price != nil {
		req.Price = *body.Price
	}

	article, err := h.svc.CreateArticle(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

func (h *Handler) updateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body articlePayload
	if !decodeJSON(w, r, &body) {
		return
	}

	article, err := h.svc.UpdateArticle(r.Context(), id, app.UpdateArticleRequest{
		Name:          body.Name,
		Unit:          body.Unit,
		AllowsDecimal: body.AllowsDecimal,
		Cost:          body.Cost,
		Price:         body.Price,
		SupplierID:    body.SupplierID,
		CategoryID:    body.CategoryID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// deleteArticle handles DELETE /articles/{id}. Articles are deactivated,
// never removed, so order history keeps its references.
func (h *Handler) deleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeactivateArticle(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// bulkPriceUpdate handles POST /articles/bulk-price-update.
func (h *Handler) bulkPriceUpdate(w http.ResponseWriter, r *http.Request) {
	var body bulkPricePayload
	if !decodeJSON(w, r, &body) {
		return
	}

	updated, err := h.svc.BulkPriceUpdate(r.Context(), app.BulkPriceUpdateRequest{
		Target:     body.Target,
		TargetID:   body.TargetID,
		Percentage: body.Percentage,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// queryIntPtr parses an optional integer query parameter, returning nil when
// absent or malformed.
func queryIntPtr(r *http.Request, key string) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
