package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/logger"
	"github.com/fjod/go_pos/internal/resource"
	"github.com/fjod/go_pos/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	Logger             zerolog.Logger
}

func NewRouter(cfg RouterConfig, sessions Sessions) chi.Router {
	pos := NewPOSHandler(cfg.RequestTimeout, cfg.Logger)
	rs := responder{log: cfg.Logger}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout + 5*time.Second))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		rs.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(sessions, cfg.Logger))

		r.Route("/pos", func(r chi.Router) {
			r.Get("/catalog", pos.GetCatalog)
			r.Post("/catalog/reload", pos.ReloadCatalog)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", pos.GetCart)
				r.Delete("/", pos.ClearCart)
				r.Post("/items", pos.AddItem)
				r.Post("/items/{product_id}/decrement", pos.DecrementItem)
				r.Delete("/items/{product_id}", pos.RemoveItem)
			})

			r.Get("/order", pos.GetOrder)
			r.Put("/order", pos.UpdateOrder)

			r.Get("/checkout", pos.GetCheckout)
			r.Post("/checkout", pos.Checkout)
			r.Post("/checkout/reset", pos.ResetCheckout)
			r.Get("/invoice", pos.GetInvoice)
		})

		r.Route("/screens", func(r chi.Router) {
			t, log := cfg.RequestTimeout, cfg.Logger
			r.Route("/products", NewScreenHandler(t, log, func(s *session.Session) *resource.List[domain.Product] { return s.Products }, decodeProduct).Routes)
			r.Route("/categories", NewScreenHandler[domain.Category](t, log, func(s *session.Session) *resource.List[domain.Category] { return s.Categories }, nil).Routes)
			r.Route("/customers", NewScreenHandler[domain.Customer](t, log, func(s *session.Session) *resource.List[domain.Customer] { return s.Customers }, nil).Routes)
			r.Route("/employees", NewScreenHandler[domain.Employee](t, log, func(s *session.Session) *resource.List[domain.Employee] { return s.Employees }, nil).Routes)
			r.Route("/payment-methods", NewScreenHandler[domain.PaymentMethod](t, log, func(s *session.Session) *resource.List[domain.PaymentMethod] { return s.PaymentMethods }, nil).Routes)
			r.Route("/orders", NewScreenHandler[domain.Order](t, log, func(s *session.Session) *resource.List[domain.Order] { return s.Orders }, nil).Routes)
		})

		r.Get("/notifications", func(w http.ResponseWriter, r *http.Request) {
			rs.respondJSON(w, http.StatusOK, sessionFromContext(r.Context()).DrainNotifications())
		})
	})

	return r
}
