package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/rsalgados/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса заказов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}

	r.Get("/healthz", h.Health)
	if h.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{Registry: h.registry}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/me", h.Me)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.CreateOrder)
				r.Get("/", h.ListOrders)
				r.Get("/all", h.ListOrders)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetOrder)
					r.Put("/", h.ReplaceOrder)
					r.Delete("/", h.DeleteOrder)
					r.Put("/pay", h.MarkPaid)

					r.Post("/items", h.AddItem)
					r.Put("/items/{itemID}", h.UpdateItem)
					r.Delete("/items/{itemID}", h.RemoveItem)
				})
			})
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.RegisterForm)
		r.Post("/login", h.LoginForm)
		r.Post("/logout", h.LogoutForm)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware.RedirectMiddleware("/auth/login"))

		r.Post("/orders", h.CreateOrderForm)
		r.Post("/orders/{id}", h.ReplaceOrderForm)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
