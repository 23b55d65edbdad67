package web

import (
	"net/http"

	"distripanel/internal/app"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies; order item lists stay well under this.
const maxBodyBytes = 1 << 20

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(maxBodyBytes))

	r.Get("/health", h.health)

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.listArticles)
		r.Post("/", h.createArticle)
		r.Post("/bulk-price-update", h.bulkPriceUpdate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getArticle)
			r.Put("/", h.updateArticle)
			r.Delete("/", h.deleteArticle)
		})
	})

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getCustomer)
			r.Put("/", h.updateCustomer)
			r.Delete("/", h.deleteCustomer)
			r.Post("/payments", h.registerPayment)
			r.Get("/frequent-articles", h.frequentArticles)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getOrder)
			r.Put("/", h.updateOrder)
			r.Delete("/", h.deleteOrder)
			r.Post("/close", h.closeOrder)
		})
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", h.listSuppliers)
		r.Post("/", h.createSupplier)
		r.Put("/{id}", h.updateSupplier)
		r.Delete("/{id}", h.deleteSupplier)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Put("/{id}", h.updateCategory)
		r.Delete("/{id}", h.deleteCategory)
	})

	r.Route("/packs", func(r chi.Router) {
		r.Get("/", h.listPacks)
		r.Post("/", h.createPack)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getPack)
			r.Put("/", h.updatePack)
			r.Delete("/", h.deletePack)
		})
	})

	r.Post("/logistics/consolidate", h.consolidate)

	h.router = r
	return h.router
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// okResponse is the body for deletes and other side-effect-only operations.
type okResponse struct {
	OK bool `json:"ok"`
}
